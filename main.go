package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"blockeditor/internal/app"
	"blockeditor/internal/config"
	"blockeditor/internal/logger"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg *config.Config
	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "blockeditor",
	Short: "Block editor with drag and keyboard reordering",
	Long: `blockeditor stores documents made of typed blocks (hero, pricing,
testimonial, ...) and reorders them by drag and drop or keyboard.

Agents drive it over MCP with "blockeditor mcp"; documents can be imported
from JSON files and kept in sync with "blockeditor watch".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		log, err = logger.New(logger.Config{Level: level, Development: cfg.Log.Development})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the editor over MCP on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		return app.ServeMCP(ctx, cfg, log)
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file-or-dir]",
	Short: "Import JSON document files",
	Long: `Imports one document file, or every *.json file in a directory.
An imported document replaces the stored version with the same id.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Import a directory and re-import files when they change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show [document-id]",
	Short: "Print a document and its blocks as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "blockeditor.yaml", "Config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if !info.IsDir() {
		doc, err := a.Importer.ImportFile(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", doc.ID)
		return nil
	}

	docs, err := a.Importer.ImportDir(ctx, args[0])
	for _, d := range docs {
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", d.ID)
	}
	return err
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := cfg.Watch.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no directory given and watch.dir is not configured")
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	if err := a.Startup(ctx, dir); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := app.New(cmd.Context(), cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	docs, err := a.Docs.ListDocuments()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Title, d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := app.New(cmd.Context(), cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	st, err := a.Docs.State(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}
