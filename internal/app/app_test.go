package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockeditor/internal/config"
	"blockeditor/internal/logger"
	"blockeditor/internal/service"
)

func TestApp_StartupImportsWatchDir(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	watchDir := t.TempDir()
	doc := `{"id":"landing","title":"Landing","blocks":[{"id":"hero","type":"hero"},{"id":"cta","type":"cta"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(watchDir, "landing.json"), []byte(doc), 0o644))

	emitter := &service.MockEmitter{}
	ctx := context.Background()
	a, err := New(ctx, cfg, logger.NewNop(), emitter)
	require.NoError(t, err)
	defer a.Shutdown(ctx)

	require.NoError(t, a.Startup(ctx, watchDir))

	st, err := a.Docs.State("landing")
	require.NoError(t, err)
	assert.Equal(t, "Landing", st.Document.Title)
	assert.Len(t, st.Blocks, 2)
	assert.Equal(t, 1, emitter.Count(service.EventBlocksChanged))
	assert.FileExists(t, cfg.DatabasePath())
}

func TestApp_BadPruneSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.History.PruneSchedule = "every tuesday"

	ctx := context.Background()
	a, err := New(ctx, cfg, logger.NewNop(), nil)
	require.NoError(t, err)
	defer a.Shutdown(ctx)

	assert.Error(t, a.Startup(ctx, ""))
}
