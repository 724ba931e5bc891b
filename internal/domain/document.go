package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned (wrapped) by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// Document is a page of content whose body is an ordered block sequence.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DocumentState is a document together with its blocks in display order.
type DocumentState struct {
	Document Document `json:"document"`
	Blocks   []Block  `json:"blocks"`
}

type DocumentStore interface {
	CreateDocument(d *Document) error
	GetDocument(id string) (*Document, error)
	ListDocuments() ([]Document, error)
	UpdateDocument(d *Document) error
	DeleteDocument(id string) error

	ListBlocks(documentID string) ([]Block, error)
	// ReplaceBlocks stores seq as the full ordered body of the document.
	ReplaceBlocks(documentID string, seq []Block) error
}
