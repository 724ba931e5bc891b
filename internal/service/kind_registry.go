package service

import (
	"fmt"
	"sort"
	"sync"

	"blockeditor/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Block kind registry: what the block picker can insert
// ─────────────────────────────────────────────────────────────

// BlockKind describes an insertable block type.
type BlockKind interface {
	// BlockType returns the type string stored on blocks (e.g. "hero").
	BlockType() domain.BlockType
	// Label is the human name shown in the picker.
	Label() string
	// NewPayload returns the payload a freshly inserted block starts with.
	NewPayload() domain.Payload
}

// KindRegistry holds the registered block kinds.
type KindRegistry struct {
	mu    sync.RWMutex
	kinds map[domain.BlockType]BlockKind
}

func NewKindRegistry() *KindRegistry {
	return &KindRegistry{kinds: make(map[domain.BlockType]BlockKind)}
}

// Register adds a kind. Panics on duplicate registration.
func (r *KindRegistry) Register(k BlockKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := k.BlockType()
	if _, exists := r.kinds[t]; exists {
		panic(fmt.Sprintf("kind registry: duplicate registration for block type %q", t))
	}
	r.kinds[t] = k
}

func (r *KindRegistry) Get(t domain.BlockType) (BlockKind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[t]
	return k, ok
}

// NewPayload returns the starting payload for t. Types without a registered
// kind start from an empty raw payload.
func (r *KindRegistry) NewPayload(t domain.BlockType) domain.Payload {
	if k, ok := r.Get(t); ok {
		return k.NewPayload()
	}
	return domain.RawPayload{Type: t, JSON: []byte("{}")}
}

// ForEach visits kinds sorted by block type.
func (r *KindRegistry) ForEach(fn func(BlockKind)) {
	r.mu.RLock()
	kinds := make([]BlockKind, 0, len(r.kinds))
	for _, k := range r.kinds {
		kinds = append(kinds, k)
	}
	r.mu.RUnlock()

	sort.Slice(kinds, func(i, j int) bool { return kinds[i].BlockType() < kinds[j].BlockType() })
	for _, k := range kinds {
		fn(k)
	}
}
