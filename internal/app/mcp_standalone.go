package app

import (
	"context"

	"blockeditor/internal/config"
	"blockeditor/internal/logger"
	mcpserver "blockeditor/internal/mcp"
)

// ServeMCP runs the editor as an MCP server on stdin/stdout until the client
// disconnects or ctx is cancelled. Logs must go to stderr, stdout carries the
// protocol.
func ServeMCP(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	a, err := New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	if err := a.Startup(ctx, cfg.Watch.Dir); err != nil {
		return err
	}

	srv := mcpserver.New(mcpserver.Deps{
		Documents: a.Docs,
		Importer:  a.Importer,
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down MCP server")
		return nil
	}
}
