package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blockeditor/internal/domain"
)

// DocumentStore implements domain.DocumentStore on a SQL database.
type DocumentStore struct {
	db *DB
}

func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) CreateDocument(d *domain.Document) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := s.db.exec(s.db.conn,
		`INSERT INTO documents (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.Title, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *DocumentStore) GetDocument(id string) (*domain.Document, error) {
	d := &domain.Document{}
	err := s.db.queryRow(s.db.conn,
		`SELECT id, title, created_at, updated_at FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Title, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return d, nil
}

func (s *DocumentStore) ListDocuments() ([]domain.Document, error) {
	rows, err := s.db.query(s.db.conn, `SELECT id, title, created_at, updated_at FROM documents ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *DocumentStore) UpdateDocument(d *domain.Document) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := s.db.exec(s.db.conn,
		`UPDATE documents SET title = ?, updated_at = ? WHERE id = ?`,
		d.Title, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update document %s: %w", d.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *DocumentStore) DeleteDocument(id string) error {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM blocks WHERE document_id = ?`,
		`DELETE FROM documents WHERE id = ?`,
	} {
		if _, err := s.db.exec(tx, q, id); err != nil {
			return fmt.Errorf("delete document %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// ListBlocks returns the document's blocks in display order.
func (s *DocumentStore) ListBlocks(documentID string) ([]domain.Block, error) {
	rows, err := s.db.query(s.db.conn,
		`SELECT id, type, data_json FROM blocks WHERE document_id = ? ORDER BY sort_order ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := []domain.Block{}
	for rows.Next() {
		var (
			b    domain.Block
			data string
		)
		if err := rows.Scan(&b.ID, &b.Type, &data); err != nil {
			return nil, err
		}
		b.Data, err = domain.DecodePayload(b.Type, []byte(data))
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// ReplaceBlocks atomically rewrites the document body so that sort_order
// matches the position of each block in seq.
func (s *DocumentStore) ReplaceBlocks(documentID string, seq []domain.Block) error {
	if err := domain.ValidateSequence(seq); err != nil {
		return fmt.Errorf("replace blocks: %w", err)
	}

	tx, err := s.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := s.db.exec(tx, `UPDATE documents SET updated_at = ? WHERE id = ?`, now, documentID)
	if err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("replace blocks of %s: %w", documentID, domain.ErrNotFound)
	}

	if _, err := s.db.exec(tx, `DELETE FROM blocks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}

	for i, b := range seq {
		data := []byte("{}")
		if b.Data != nil {
			data, err = domain.EncodePayload(b.Data)
			if err != nil {
				return err
			}
		}
		if _, err := s.db.exec(tx,
			`INSERT INTO blocks (id, document_id, type, data_json, sort_order, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.ID, documentID, b.Type, string(data), i, now, now,
		); err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID, err)
		}
	}

	return tx.Commit()
}
