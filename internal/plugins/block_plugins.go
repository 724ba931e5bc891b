package plugins

import (
	"blockeditor/internal/domain"
	"blockeditor/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Built-in block kinds
// ─────────────────────────────────────────────────────────────

// kind is a block kind defined by its type, picker label and starting payload.
type kind struct {
	blockType domain.BlockType
	label     string
	newFn     func() domain.Payload
}

func (k kind) BlockType() domain.BlockType { return k.blockType }
func (k kind) Label() string               { return k.label }
func (k kind) NewPayload() domain.Payload  { return k.newFn() }

// Builtins returns the block kinds that ship with the editor.
func Builtins() []service.BlockKind {
	return []service.BlockKind{
		kind{domain.BlockTypeRichText, "Text", func() domain.Payload {
			return domain.RichText{}
		}},
		kind{domain.BlockTypeHero, "Hero", func() domain.Payload {
			return domain.Hero{Heading: "Headline"}
		}},
		kind{domain.BlockTypePricing, "Pricing table", func() domain.Payload {
			// one starter tier so the table renders
			return domain.Pricing{Title: "Pricing", Tiers: []domain.PricingTier{{Name: "Basic"}}}
		}},
		kind{domain.BlockTypeTestimonial, "Testimonial", func() domain.Payload {
			return domain.Testimonial{}
		}},
		kind{domain.BlockTypeMedia, "Image", func() domain.Payload {
			return domain.Media{}
		}},
		kind{domain.BlockTypeCallToAction, "Call to action", func() domain.Payload {
			return domain.CallToAction{Label: "Get started", Href: "#"}
		}},
	}
}

// RegisterBuiltins adds every built-in kind to r.
func RegisterBuiltins(r *service.KindRegistry) {
	for _, k := range Builtins() {
		r.Register(k)
	}
}
