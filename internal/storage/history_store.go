package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"blockeditor/internal/domain"
)

// HistoryNode is one committed version of a document's block order.
type HistoryNode struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"documentId"`
	ParentID   *string        `json:"parentId"`
	Label      string         `json:"label"`
	Snapshot   []domain.Block `json:"snapshot"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// HistoryTree is the full history of a document. Undoing and then editing
// starts a new branch, so a node may have several children.
type HistoryTree struct {
	Nodes     []HistoryNode `json:"nodes"`
	CurrentID string        `json:"currentId"`
	RootID    string        `json:"rootId"`
}

// HistoryStore keeps a bounded undo history per document.
type HistoryStore struct {
	db       *DB
	maxNodes int
}

func NewHistoryStore(db *DB, maxNodes int) *HistoryStore {
	return &HistoryStore{db: db, maxNodes: maxNodes}
}

// LoadTree returns the history of a document, or nil if it has none.
func (s *HistoryStore) LoadTree(documentID string) (*HistoryTree, error) {
	rows, err := s.db.query(s.db.conn,
		`SELECT id, document_id, parent_id, label, snapshot_json, created_at
		 FROM history_nodes WHERE document_id = ? ORDER BY seq ASC`, documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history nodes: %w", err)
	}
	defer rows.Close()

	var nodes []HistoryNode
	var rootID string
	for rows.Next() {
		var (
			n        HistoryNode
			parentID sql.NullString
			snapshot string
		)
		if err := rows.Scan(&n.ID, &n.DocumentID, &parentID, &n.Label, &snapshot, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history node: %w", err)
		}
		if parentID.Valid {
			n.ParentID = &parentID.String
		} else {
			rootID = n.ID
		}
		if err := json.Unmarshal([]byte(snapshot), &n.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", n.ID, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	currentID, err := s.currentID(s.db.conn, documentID)
	if err != nil {
		return nil, err
	}
	if currentID == "" {
		currentID = rootID
	}
	return &HistoryTree{Nodes: nodes, CurrentID: currentID, RootID: rootID}, nil
}

// Push records seq as a child of the current node and makes it current.
func (s *HistoryStore) Push(documentID, label string, seq []domain.Block) (*HistoryNode, error) {
	snapshot, err := json.Marshal(seq)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	currentID, err := s.currentID(tx, documentID)
	if err != nil {
		return nil, err
	}
	var parentID *string
	if currentID != "" {
		parentID = &currentID
	}

	var maxSeq sql.NullInt64
	if err := s.db.queryRow(tx, `SELECT MAX(seq) FROM history_nodes WHERE document_id = ?`, documentID).Scan(&maxSeq); err != nil {
		return nil, fmt.Errorf("read history seq: %w", err)
	}

	node := &HistoryNode{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		ParentID:   parentID,
		Label:      label,
		Snapshot:   seq,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.db.exec(tx,
		`INSERT INTO history_nodes (id, document_id, parent_id, label, snapshot_json, seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		node.ID, documentID, parentID, label, string(snapshot), maxSeq.Int64+1, node.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert history node: %w", err)
	}
	if err := s.setCurrent(tx, documentID, node.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if _, err := s.Prune(documentID); err != nil {
		return node, fmt.Errorf("prune history: %w", err)
	}
	return node, nil
}

// Undo moves to the parent of the current node and returns its snapshot.
// The bool is false when there is nothing to undo.
func (s *HistoryStore) Undo(documentID string) ([]domain.Block, bool, error) {
	currentID, err := s.currentID(s.db.conn, documentID)
	if err != nil || currentID == "" {
		return nil, false, err
	}
	var parentID sql.NullString
	err = s.db.queryRow(s.db.conn, `SELECT parent_id FROM history_nodes WHERE id = ?`, currentID).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !parentID.Valid) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read history parent: %w", err)
	}
	seq, err := s.GoTo(documentID, parentID.String)
	return seq, err == nil, err
}

// Redo moves to the newest child of the current node and returns its snapshot.
func (s *HistoryStore) Redo(documentID string) ([]domain.Block, bool, error) {
	currentID, err := s.currentID(s.db.conn, documentID)
	if err != nil || currentID == "" {
		return nil, false, err
	}
	var childID string
	err = s.db.queryRow(s.db.conn,
		`SELECT id FROM history_nodes WHERE parent_id = ? ORDER BY seq DESC LIMIT 1`, currentID,
	).Scan(&childID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read history child: %w", err)
	}
	seq, err := s.GoTo(documentID, childID)
	return seq, err == nil, err
}

// Current returns the id of the current node, or "" when the document has
// no history.
func (s *HistoryStore) Current(documentID string) (string, error) {
	return s.currentID(s.db.conn, documentID)
}

// GoTo makes nodeID current and returns its snapshot.
func (s *HistoryStore) GoTo(documentID, nodeID string) ([]domain.Block, error) {
	var snapshot string
	err := s.db.queryRow(s.db.conn,
		`SELECT snapshot_json FROM history_nodes WHERE id = ? AND document_id = ?`, nodeID, documentID,
	).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history node %s: %w", nodeID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read history node: %w", err)
	}
	var seq []domain.Block
	if err := json.Unmarshal([]byte(snapshot), &seq); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", nodeID, err)
	}
	if err := s.setCurrent(s.db.conn, documentID, nodeID); err != nil {
		return nil, err
	}
	return seq, nil
}

// Clear removes all history for a document.
func (s *HistoryStore) Clear(documentID string) error {
	if _, err := s.db.exec(s.db.conn, `DELETE FROM history_state WHERE document_id = ?`, documentID); err != nil {
		return err
	}
	_, err := s.db.exec(s.db.conn, `DELETE FROM history_nodes WHERE document_id = ?`, documentID)
	return err
}

// Prune deletes the oldest nodes of a document beyond the configured limit,
// never the current one. Children of a deleted node are re-attached to its
// parent. Returns the number of deleted nodes.
func (s *HistoryStore) Prune(documentID string) (int, error) {
	var count int
	if err := s.db.queryRow(s.db.conn, `SELECT COUNT(*) FROM history_nodes WHERE document_id = ?`, documentID).Scan(&count); err != nil {
		return 0, err
	}
	if count <= s.maxNodes {
		return 0, nil
	}

	currentID, err := s.currentID(s.db.conn, documentID)
	if err != nil {
		return 0, err
	}

	// Collect ids first; the single sqlite connection cannot serve writes
	// while a rows cursor is open.
	rows, err := s.db.query(s.db.conn,
		`SELECT id, parent_id FROM history_nodes WHERE document_id = ? ORDER BY seq ASC LIMIT ?`,
		documentID, count-s.maxNodes+1,
	)
	if err != nil {
		return 0, err
	}
	type victim struct {
		id     string
		parent sql.NullString
	}
	var victims []victim
	for rows.Next() {
		var v victim
		if err := rows.Scan(&v.id, &v.parent); err != nil {
			rows.Close()
			return 0, err
		}
		if v.id != currentID {
			victims = append(victims, v)
		}
	}
	rows.Close()
	if len(victims) > count-s.maxNodes {
		victims = victims[:count-s.maxNodes]
	}

	tx, err := s.db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, v := range victims {
		// parent ids may have been rewritten by an earlier deletion in this loop
		var parent sql.NullString
		if err := s.db.queryRow(tx, `SELECT parent_id FROM history_nodes WHERE id = ?`, v.id).Scan(&parent); err != nil {
			return 0, err
		}
		if _, err := s.db.exec(tx, `UPDATE history_nodes SET parent_id = ? WHERE parent_id = ?`, parent, v.id); err != nil {
			return 0, err
		}
		if _, err := s.db.exec(tx, `DELETE FROM history_nodes WHERE id = ?`, v.id); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(victims), nil
}

// PruneAll prunes every document that has history.
func (s *HistoryStore) PruneAll() (int, error) {
	rows, err := s.db.query(s.db.conn, `SELECT DISTINCT document_id FROM history_nodes`)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()

	total := 0
	for _, id := range ids {
		n, err := s.Prune(id)
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", id, err)
		}
		total += n
	}
	return total, nil
}

func (s *HistoryStore) currentID(e execer, documentID string) (string, error) {
	var id string
	err := s.db.queryRow(e, `SELECT current_node_id FROM history_state WHERE document_id = ?`, documentID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read history state: %w", err)
	}
	return id, nil
}

func (s *HistoryStore) setCurrent(e execer, documentID, nodeID string) error {
	_, err := s.db.exec(e, s.db.upsertCurrentSQL(), documentID, nodeID)
	if err != nil {
		return fmt.Errorf("update history state: %w", err)
	}
	return nil
}
