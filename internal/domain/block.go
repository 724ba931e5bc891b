package domain

import (
	"encoding/json"
	"fmt"
)

type BlockType string

const (
	BlockTypeRichText     BlockType = "richText"
	BlockTypeHero         BlockType = "hero"
	BlockTypePricing      BlockType = "pricing"
	BlockTypeTestimonial  BlockType = "testimonial"
	BlockTypeMedia        BlockType = "media"
	BlockTypeCallToAction BlockType = "cta"
)

// Block is one content unit in an ordered sequence.
// Data holds the payload variant that matches Type.
type Block struct {
	ID   string    `json:"id"`
	Type BlockType `json:"type"`
	Data Payload   `json:"data"`
}

// blockJSON is the wire shape of a Block; Data stays raw until Type is known.
type blockJSON struct {
	ID   string          `json:"id"`
	Type BlockType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	out := blockJSON{ID: b.ID, Type: b.Type}
	if b.Data != nil {
		raw, err := EncodePayload(b.Data)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		out.Data = raw
	}
	return json.Marshal(out)
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var in blockJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p, err := DecodePayload(in.Type, in.Data)
	if err != nil {
		return fmt.Errorf("block %s: %w", in.ID, err)
	}
	b.ID, b.Type, b.Data = in.ID, in.Type, p
	return nil
}

// Clone returns a copy of b whose payload shares no mutable state with b.
func (b Block) Clone() Block {
	if b.Data == nil {
		return b
	}
	raw, err := EncodePayload(b.Data)
	if err != nil {
		return b
	}
	p, err := DecodePayload(b.Type, raw)
	if err != nil {
		return b
	}
	b.Data = p
	return b
}

// IDs returns the ids of seq in order.
func IDs(seq []Block) []string {
	ids := make([]string, len(seq))
	for i, b := range seq {
		ids[i] = b.ID
	}
	return ids
}

// ValidateSequence reports the first empty or duplicated id in seq.
func ValidateSequence(seq []Block) error {
	seen := make(map[string]struct{}, len(seq))
	for i, b := range seq {
		if b.ID == "" {
			return fmt.Errorf("block at index %d has no id", i)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate block id %q", b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}
