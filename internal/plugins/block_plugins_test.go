package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockeditor/internal/domain"
	"blockeditor/internal/plugins"
	"blockeditor/internal/service"
)

func TestRegisterBuiltins(t *testing.T) {
	r := service.NewKindRegistry()
	plugins.RegisterBuiltins(r)

	var types []domain.BlockType
	r.ForEach(func(k service.BlockKind) { types = append(types, k.BlockType()) })
	assert.Equal(t, []domain.BlockType{"cta", "hero", "media", "pricing", "richText", "testimonial"}, types)

	for _, bt := range types {
		p := r.NewPayload(bt)
		require.NotNil(t, p, bt)
		assert.Equal(t, bt, p.Kind(), "payload kind of %s", bt)
	}
}

func TestRegisterBuiltins_Twice(t *testing.T) {
	r := service.NewKindRegistry()
	plugins.RegisterBuiltins(r)
	assert.Panics(t, func() { plugins.RegisterBuiltins(r) })
}
