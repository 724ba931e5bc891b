package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"blockeditor/internal/domain"
	"blockeditor/internal/logger"
)

// ─────────────────────────────────────────────────────────────
// Importer: loads document files into the store
// ─────────────────────────────────────────────────────────────

// ErrImportRunning is returned when the same file is already being imported.
var ErrImportRunning = errors.New("import already running")

// documentFile is the on-disk shape of a document.
type documentFile struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Blocks []json.RawMessage `json:"blocks"`
}

// Importer reads document files and stores them through the DocumentService.
type Importer struct {
	docs  *DocumentService
	log   logger.Logger
	guard importGuard
}

func NewImporter(docs *DocumentService, log logger.Logger) *Importer {
	return &Importer{docs: docs, log: log}
}

// ParseDocument decodes a document file. fallbackID names the document when
// the file has no id. Blocks without an id get a fresh one.
func ParseDocument(data []byte, fallbackID string) (domain.Document, []domain.Block, error) {
	var f documentFile
	if err := json.Unmarshal(data, &f); err != nil {
		return domain.Document{}, nil, fmt.Errorf("parse document: %w", err)
	}
	doc := domain.Document{ID: f.ID, Title: f.Title}
	if doc.ID == "" {
		doc.ID = fallbackID
	}
	if doc.ID == "" {
		return domain.Document{}, nil, errors.New("parse document: no id")
	}
	if doc.Title == "" {
		doc.Title = doc.ID
	}

	blocks := make([]domain.Block, 0, len(f.Blocks))
	for i, raw := range f.Blocks {
		var b domain.Block
		if err := json.Unmarshal(raw, &b); err != nil {
			return domain.Document{}, nil, fmt.Errorf("parse block %d: %w", i, err)
		}
		if b.Type == "" {
			return domain.Document{}, nil, fmt.Errorf("parse block %d: no type", i)
		}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		blocks = append(blocks, b)
	}
	if err := domain.ValidateSequence(blocks); err != nil {
		return domain.Document{}, nil, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	return doc, blocks, nil
}

// ImportFile stores the document in path, replacing any earlier version.
func (im *Importer) ImportFile(ctx context.Context, path string) (*domain.Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if !im.guard.Begin(absPath) {
		return nil, ErrImportRunning
	}
	defer im.guard.End(absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fallbackID := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	doc, blocks, err := ParseDocument(data, fallbackID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := im.docs.Put(ctx, doc, blocks, "import"); err != nil {
		return nil, fmt.Errorf("store %s: %w", doc.ID, err)
	}
	im.log.Info("document imported",
		logger.String("document", doc.ID),
		logger.String("path", absPath),
		logger.Int("blocks", len(blocks)),
	)
	return &doc, nil
}

// ImportDir imports every *.json file in dir, in name order. It keeps going
// past broken files and returns their errors joined.
func (im *Importer) ImportDir(ctx context.Context, dir string) ([]domain.Document, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var (
		docs []domain.Document
		errs []error
	)
	for _, p := range paths {
		doc, err := im.ImportFile(ctx, p)
		if err != nil {
			im.log.Warn("import failed", logger.String("path", p), logger.Error(err))
			errs = append(errs, err)
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, errors.Join(errs...)
}

// WaitRunning blocks until running imports finish or ctx is cancelled.
func (im *Importer) WaitRunning(ctx context.Context) {
	if err := im.guard.Wait(ctx); err != nil {
		im.log.Warn("imports still running",
			logger.Strings("paths", im.guard.Pending()),
			logger.Error(err),
		)
	}
}
