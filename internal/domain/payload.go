package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Payload is the type-specific content of a block.
type Payload interface {
	Kind() BlockType
	// Text returns the searchable plain text of the payload.
	Text() string
}

type RichText struct {
	Body string `json:"body"`
}

func (RichText) Kind() BlockType { return BlockTypeRichText }
func (p RichText) Text() string  { return p.Body }

type Hero struct {
	Heading    string `json:"heading"`
	Subheading string `json:"subheading,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

func (Hero) Kind() BlockType { return BlockTypeHero }
func (p Hero) Text() string  { return joinText(p.Heading, p.Subheading) }

type PricingTier struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Features []string `json:"features,omitempty"`
}

type Pricing struct {
	Title string        `json:"title"`
	Tiers []PricingTier `json:"tiers"`
}

func (Pricing) Kind() BlockType { return BlockTypePricing }

func (p Pricing) Text() string {
	parts := []string{p.Title}
	for _, t := range p.Tiers {
		parts = append(parts, t.Name, t.Price)
		parts = append(parts, t.Features...)
	}
	return joinText(parts...)
}

type Testimonial struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Role   string `json:"role,omitempty"`
}

func (Testimonial) Kind() BlockType { return BlockTypeTestimonial }
func (p Testimonial) Text() string  { return joinText(p.Quote, p.Author, p.Role) }

type Media struct {
	URL     string `json:"url"`
	Alt     string `json:"alt"`
	Caption string `json:"caption,omitempty"`
}

func (Media) Kind() BlockType { return BlockTypeMedia }
func (p Media) Text() string  { return joinText(p.Alt, p.Caption) }

type CallToAction struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

func (CallToAction) Kind() BlockType { return BlockTypeCallToAction }
func (p CallToAction) Text() string  { return p.Label }

// RawPayload keeps the payload of a block type nobody registered a decoder for.
type RawPayload struct {
	Type BlockType
	JSON json.RawMessage
}

func (p RawPayload) Kind() BlockType { return p.Type }
func (p RawPayload) Text() string    { return string(p.JSON) }

func (p RawPayload) MarshalJSON() ([]byte, error) {
	if len(p.JSON) == 0 {
		return []byte("null"), nil
	}
	return p.JSON, nil
}

// ─────────────────────────────────────────────────────────────
// Payload registry
// ─────────────────────────────────────────────────────────────

// PayloadDecoder turns raw JSON into the payload variant for one block type.
type PayloadDecoder func(raw json.RawMessage) (Payload, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[BlockType]PayloadDecoder{
		BlockTypeRichText:     decodeAs[RichText],
		BlockTypeHero:         decodeAs[Hero],
		BlockTypePricing:      decodeAs[Pricing],
		BlockTypeTestimonial:  decodeAs[Testimonial],
		BlockTypeMedia:        decodeAs[Media],
		BlockTypeCallToAction: decodeAs[CallToAction],
	}
)

// RegisterPayload installs a decoder for a block type. Panics on duplicates.
func RegisterPayload(t BlockType, dec PayloadDecoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	if _, exists := decoders[t]; exists {
		panic(fmt.Sprintf("payload registry: duplicate decoder for block type %q", t))
	}
	decoders[t] = dec
}

// KnownTypes returns every block type with a registered decoder.
func KnownTypes() []BlockType {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	out := make([]BlockType, 0, len(decoders))
	for t := range decoders {
		out = append(out, t)
	}
	return out
}

// DecodePayload resolves raw JSON into the variant registered for t.
// Unregistered types come back as RawPayload.
func DecodePayload(t BlockType, raw json.RawMessage) (Payload, error) {
	decodersMu.RLock()
	dec, ok := decoders[t]
	decodersMu.RUnlock()
	if !ok {
		return RawPayload{Type: t, JSON: append(json.RawMessage(nil), raw...)}, nil
	}
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	p, err := dec(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}

// EncodePayload serializes a payload to JSON.
func EncodePayload(p Payload) (json.RawMessage, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Kind(), err)
	}
	return data, nil
}

func decodeAs[T Payload](raw json.RawMessage) (Payload, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func joinText(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
