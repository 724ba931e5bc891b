package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"blockeditor/internal/domain"
	"blockeditor/internal/logger"
	"blockeditor/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Document Service: editing sessions over stored documents
// ─────────────────────────────────────────────────────────────

// History is the undo store used by editing sessions.
type History interface {
	Push(documentID, label string, seq []domain.Block) (*storage.HistoryNode, error)
	Undo(documentID string) ([]domain.Block, bool, error)
	Redo(documentID string) ([]domain.Block, bool, error)
	Current(documentID string) (string, error)
	GoTo(documentID, nodeID string) ([]domain.Block, error)
	LoadTree(documentID string) (*storage.HistoryTree, error)
	Clear(documentID string) error
}

// DocumentService opens documents for editing and keeps one EditorSession
// per open document.
type DocumentService struct {
	docs    domain.DocumentStore
	history History
	kinds   *KindRegistry
	emitter EventEmitter
	log     logger.Logger

	mu       sync.Mutex
	sessions map[string]*EditorSession
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(docs domain.DocumentStore, history History, kinds *KindRegistry, emitter EventEmitter, log logger.Logger) *DocumentService {
	return &DocumentService{
		docs:     docs,
		history:  history,
		kinds:    kinds,
		emitter:  emitter,
		log:      log,
		sessions: make(map[string]*EditorSession),
	}
}

// Kinds returns the registry of insertable block kinds.
func (s *DocumentService) Kinds() *KindRegistry {
	return s.kinds
}

// ListDocuments returns all stored documents.
func (s *DocumentService) ListDocuments() ([]domain.Document, error) {
	return s.docs.ListDocuments()
}

// State returns a document with its blocks, preferring the open session.
func (s *DocumentService) State(id string) (*domain.DocumentState, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		st := sess.State()
		return &st, nil
	}

	doc, err := s.docs.GetDocument(id)
	if err != nil {
		return nil, err
	}
	blocks, err := s.docs.ListBlocks(id)
	if err != nil {
		return nil, fmt.Errorf("list blocks of %s: %w", id, err)
	}
	return &domain.DocumentState{Document: *doc, Blocks: blocks}, nil
}

// Open returns the editing session for a document, loading it on first use.
func (s *DocumentService) Open(ctx context.Context, id string) (*EditorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	doc, err := s.docs.GetDocument(id)
	if err != nil {
		return nil, err
	}
	blocks, err := s.docs.ListBlocks(id)
	if err != nil {
		return nil, fmt.Errorf("list blocks of %s: %w", id, err)
	}
	// give undo a root to return to
	tree, err := s.history.LoadTree(id)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", id, err)
	}
	if tree == nil {
		if _, err := s.history.Push(id, "open", blocks); err != nil {
			s.log.Warn("record history failed", logger.String("document", id), logger.Error(err))
		}
	}

	sess := newEditorSession(s, *doc, blocks)
	s.sessions[id] = sess
	s.log.Info("document opened", logger.String("document", id), logger.Int("blocks", len(blocks)))
	return sess, nil
}

// Close tears down the editing session of a document. Closing a document
// that is not open does nothing.
func (s *DocumentService) Close(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
		s.log.Info("document closed", logger.String("document", id))
	}
}

// CloseAll tears down every open session.
func (s *DocumentService) CloseAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Close(id)
	}
}

// Put creates or overwrites a document and its full block sequence. Open
// sessions of the document pick up the new sequence.
func (s *DocumentService) Put(ctx context.Context, doc domain.Document, seq []domain.Block, label string) error {
	if err := domain.ValidateSequence(seq); err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}

	existing, err := s.docs.GetDocument(doc.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := s.docs.CreateDocument(&doc); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		doc.CreatedAt = existing.CreatedAt
		if err := s.docs.UpdateDocument(&doc); err != nil {
			return err
		}
	}

	if err := s.docs.ReplaceBlocks(doc.ID, seq); err != nil {
		return err
	}
	if _, err := s.history.Push(doc.ID, label, seq); err != nil {
		s.log.Warn("record history failed", logger.String("document", doc.ID), logger.Error(err))
	}

	s.mu.Lock()
	sess, open := s.sessions[doc.ID]
	s.mu.Unlock()
	if open {
		sess.reload(ctx, doc, seq)
	} else {
		s.emitter.Emit(ctx, EventBlocksChanged, map[string]any{
			"documentId": doc.ID,
			"blockIds":   domain.IDs(seq),
		})
	}
	return nil
}

// Delete removes a document, its blocks and its history.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	s.Close(id)
	if err := s.history.Clear(id); err != nil {
		return fmt.Errorf("clear history of %s: %w", id, err)
	}
	if err := s.docs.DeleteDocument(id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	s.emitter.Emit(ctx, EventDocumentRemoved, map[string]string{"documentId": id})
	return nil
}
