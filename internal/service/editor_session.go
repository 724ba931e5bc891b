package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"blockeditor/internal/domain"
	"blockeditor/internal/logger"
	"blockeditor/internal/reorder"
)

// ─────────────────────────────────────────────────────────────
// EditorSession: one open document and its reorder manager
// ─────────────────────────────────────────────────────────────

// EditorSession owns the in-memory block sequence of an open document. The
// reorder manager reads it and proposes new versions; the session stores a
// proposal and only then adopts it.
//
// All methods are safe for concurrent use: calls are serialized, which gives
// the manager the single event loop it expects.
type EditorSession struct {
	svc *DocumentService
	log logger.Logger

	mu      sync.Mutex
	doc     domain.Document
	seq     []domain.Block
	manager *reorder.Manager

	// set for the duration of one manager call
	ctx       context.Context
	label     string
	commitErr error
}

func newEditorSession(svc *DocumentService, doc domain.Document, seq []domain.Block) *EditorSession {
	s := &EditorSession{
		svc: svc,
		log: svc.log.With(logger.String("document", doc.ID)),
		doc: doc,
		seq: seq,
	}
	s.manager = reorder.NewManager(reorder.SourceFunc(s.blocks), s.onSequenceChanged)
	return s
}

func (s *EditorSession) blocks() []domain.Block { return s.seq }

// onSequenceChanged receives every sequence the manager proposes.
func (s *EditorSession) onSequenceChanged(next []domain.Block) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.commitErr = s.commit(ctx, s.label, next)
}

// commit stores next, records it in history and adopts it. Callers hold mu.
func (s *EditorSession) commit(ctx context.Context, label string, next []domain.Block) error {
	if err := s.svc.docs.ReplaceBlocks(s.doc.ID, next); err != nil {
		s.log.Error("persist block order failed", logger.String("op", label), logger.Error(err))
		return err
	}
	if _, err := s.svc.history.Push(s.doc.ID, label, next); err != nil {
		// the order is stored; only undo depth suffers
		s.log.Warn("record history failed", logger.String("op", label), logger.Error(err))
	}
	s.seq = next
	s.log.Debug("block order committed", logger.String("op", label), logger.Strings("order", domain.IDs(next)))
	s.emitBlocksChanged(ctx)
	return nil
}

// adopt replaces the sequence without writing history, for undo/redo and
// external reloads. Any running drag refers to the old sequence and ends.
func (s *EditorSession) adopt(ctx context.Context, next []domain.Block) {
	s.seq = next
	s.manager.HandleDragEnd()
	s.emitBlocksChanged(ctx)
}

func (s *EditorSession) emitBlocksChanged(ctx context.Context) {
	s.svc.emitter.Emit(ctx, EventBlocksChanged, map[string]any{
		"documentId": s.doc.ID,
		"blockIds":   domain.IDs(s.seq),
	})
}

func (s *EditorSession) emitDrag(ctx context.Context) {
	s.svc.emitter.Emit(ctx, EventDragChanged, map[string]any{
		"documentId": s.doc.ID,
		"session":    s.manager.Session(),
	})
}

// run drives the manager under the session lock and reports whether the
// sequence changed and was stored.
func (s *EditorSession) run(ctx context.Context, label string, fn func(m *reorder.Manager) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.label, s.commitErr = ctx, label, nil
	defer func() { s.ctx, s.label, s.commitErr = nil, "", nil }()

	changed := fn(s.manager)
	if s.commitErr != nil {
		return false, s.commitErr
	}
	if !changed {
		s.log.Debug("reorder request ignored", logger.String("op", label))
	}
	return changed, nil
}

// ── Read side ─────────────────────────────────────────────

func (s *EditorSession) DocumentID() string {
	return s.doc.ID
}

// State returns the document and a copy of its current sequence.
func (s *EditorSession) State() domain.DocumentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.DocumentState{Document: s.doc, Blocks: append([]domain.Block(nil), s.seq...)}
}

// DragState returns the drag session snapshot.
func (s *EditorSession) DragState() reorder.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Session()
}

// Controls is the per-block state a host needs to draw move controls and
// drag feedback.
type Controls struct {
	BlockID     string         `json:"blockId"`
	CanMoveUp   bool           `json:"canMoveUp"`
	CanMoveDown bool           `json:"canMoveDown"`
	Visual      reorder.Visual `json:"visual"`
}

// Controls returns control state for every block, in order.
func (s *EditorSession) Controls() []Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Controls, len(s.seq))
	for i, b := range s.seq {
		out[i] = Controls{
			BlockID:     b.ID,
			CanMoveUp:   s.manager.CanMoveUp(b.ID),
			CanMoveDown: s.manager.CanMoveDown(b.ID),
			Visual:      s.manager.Visual(b.ID),
		}
	}
	return out
}

// ── Reorder operations ────────────────────────────────────

func (s *EditorSession) MoveUp(ctx context.Context, blockID string) (bool, error) {
	return s.run(ctx, "move up", func(m *reorder.Manager) bool { return m.MoveUp(blockID) })
}

func (s *EditorSession) MoveDown(ctx context.Context, blockID string) (bool, error) {
	return s.run(ctx, "move down", func(m *reorder.Manager) bool { return m.MoveDown(blockID) })
}

func (s *EditorSession) Key(ctx context.Context, blockID string, key reorder.Key) (bool, error) {
	return s.run(ctx, "key "+string(key), func(m *reorder.Manager) bool { return m.HandleKey(blockID, key) })
}

func (s *EditorSession) DragStart(ctx context.Context, blockID string) bool {
	started, _ := s.run(ctx, "drag start", func(m *reorder.Manager) bool { return m.HandleDragStart(blockID) })
	if started {
		s.emitDragLocked(ctx)
	}
	return started
}

func (s *EditorSession) DragOver(ctx context.Context, targetID string, pointerY, blockTop, blockHeight float64) (reorder.DropTarget, bool) {
	var target reorder.DropTarget
	ok, _ := s.run(ctx, "drag over", func(m *reorder.Manager) bool {
		var ok bool
		target, ok = m.HandleDragOver(targetID, pointerY, blockTop, blockHeight)
		return ok
	})
	if ok {
		s.emitDragLocked(ctx)
	}
	return target, ok
}

func (s *EditorSession) DragLeave(ctx context.Context, targetID string) bool {
	left, _ := s.run(ctx, "drag leave", func(m *reorder.Manager) bool { return m.HandleDragLeave(targetID) })
	if left {
		s.emitDragLocked(ctx)
	}
	return left
}

// DragEnd abandons the drag. The session is idle afterwards in every case.
func (s *EditorSession) DragEnd(ctx context.Context) {
	s.run(ctx, "drag end", func(m *reorder.Manager) bool {
		m.HandleDragEnd()
		return false
	})
	s.emitDragLocked(ctx)
}

func (s *EditorSession) Drop(ctx context.Context, draggedID, targetID string, pos reorder.Position) (bool, error) {
	changed, err := s.run(ctx, "drop", func(m *reorder.Manager) bool { return m.HandleDrop(draggedID, targetID, pos) })
	s.emitDragLocked(ctx)
	return changed, err
}

// DropOnTarget completes the running drag on the block currently hovered.
func (s *EditorSession) DropOnTarget(ctx context.Context) (bool, error) {
	changed, err := s.run(ctx, "drop", func(m *reorder.Manager) bool { return m.DropOnTarget() })
	s.emitDragLocked(ctx)
	return changed, err
}

func (s *EditorSession) emitDragLocked(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitDrag(ctx)
}

// ── Editing operations ────────────────────────────────────

// Insert adds a block of type t after afterID, or at the end when afterID is
// empty. A nil payload takes the kind's starting payload. An unknown afterID
// inserts nothing.
func (s *EditorSession) Insert(ctx context.Context, afterID string, t domain.BlockType, payload domain.Payload) (domain.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := len(s.seq)
	if afterID != "" {
		i := reorder.IndexOf(s.seq, afterID)
		if i < 0 {
			return domain.Block{}, false, nil
		}
		at = i + 1
	}
	if payload == nil {
		payload = s.svc.kinds.NewPayload(t)
	}
	b := domain.Block{ID: uuid.NewString(), Type: t, Data: payload}

	next := make([]domain.Block, 0, len(s.seq)+1)
	next = append(next, s.seq[:at]...)
	next = append(next, b)
	next = append(next, s.seq[at:]...)
	if err := s.commit(ctx, "insert", next); err != nil {
		return domain.Block{}, false, err
	}
	return b, true, nil
}

// Duplicate copies blockID, with a new id, directly below the original.
func (s *EditorSession) Duplicate(ctx context.Context, blockID string) (domain.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := reorder.IndexOf(s.seq, blockID)
	if i < 0 {
		return domain.Block{}, false, nil
	}
	dup := s.seq[i].Clone()
	dup.ID = uuid.NewString()

	next := make([]domain.Block, 0, len(s.seq)+1)
	next = append(next, s.seq[:i+1]...)
	next = append(next, dup)
	next = append(next, s.seq[i+1:]...)
	if err := s.commit(ctx, "duplicate", next); err != nil {
		return domain.Block{}, false, err
	}
	return dup, true, nil
}

// Delete removes blockID. Unknown ids are ignored.
func (s *EditorSession) Delete(ctx context.Context, blockID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := reorder.IndexOf(s.seq, blockID)
	if i < 0 {
		return false, nil
	}
	next := make([]domain.Block, 0, len(s.seq)-1)
	next = append(next, s.seq[:i]...)
	next = append(next, s.seq[i+1:]...)
	if s.manager.Session().DraggedID == blockID {
		s.manager.HandleDragEnd()
	}
	if err := s.commit(ctx, "delete", next); err != nil {
		return false, err
	}
	return true, nil
}

// SearchHit is a block matched by Search and its position.
type SearchHit struct {
	Index int          `json:"index"`
	Block domain.Block `json:"block"`
}

// Search finds blocks whose type or text contains query, ignoring case.
// An empty query matches every block.
func (s *EditorSession) Search(query string) []SearchHit {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var hits []SearchHit
	for i, b := range s.seq {
		text := string(b.Type)
		if b.Data != nil {
			text += " " + b.Data.Text()
		}
		if strings.Contains(strings.ToLower(text), q) {
			hits = append(hits, SearchHit{Index: i, Block: b})
		}
	}
	return hits
}

// Undo restores the previous committed order.
func (s *EditorSession) Undo(ctx context.Context) (bool, error) {
	return s.travel(ctx, s.svc.history.Undo)
}

// Redo re-applies the most recently undone order.
func (s *EditorSession) Redo(ctx context.Context) (bool, error) {
	return s.travel(ctx, s.svc.history.Redo)
}

func (s *EditorSession) travel(ctx context.Context, step func(string) ([]domain.Block, bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.svc.history.Current(s.doc.ID)
	if err != nil {
		return false, err
	}
	seq, ok, err := step(s.doc.ID)
	if err != nil || !ok {
		return false, err
	}
	if err := s.svc.docs.ReplaceBlocks(s.doc.ID, seq); err != nil {
		// the stored order did not change, so neither may the history pointer
		if _, rerr := s.svc.history.GoTo(s.doc.ID, prev); rerr != nil {
			s.svc.log.Warn("restore history pointer failed",
				logger.String("document", s.doc.ID), logger.Error(rerr))
		}
		return false, err
	}
	s.adopt(ctx, seq)
	return true, nil
}

// reload adopts a sequence written by someone else (e.g. the importer).
func (s *EditorSession) reload(ctx context.Context, doc domain.Document, seq []domain.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.adopt(ctx, seq)
}

// close ends any running drag. Called when the document is unmounted.
func (s *EditorSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager.HandleDragEnd()
}
