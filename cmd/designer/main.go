package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/thereceipt/label-designer/internal/client"
	"github.com/thereceipt/label-designer/internal/command"
	"github.com/thereceipt/label-designer/internal/config"
	"github.com/thereceipt/label-designer/internal/editor"
	"github.com/thereceipt/label-designer/internal/store"
	"github.com/thereceipt/label-designer/internal/tui"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// Version is set during build via ldflags
var Version = "dev"

type options struct {
	configPath string
	serverURL  string
	remote     bool
	templateID string
	importPath string
	stockID    string
	name       string
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:   "label-designer [flags]",
		Short: "Terminal label template editor",
		Long: `Edit label templates on a character-cell canvas.

Draw with the mouse, switch tools with s/t/b/q/i/r/l and press ':' for the
command line (:help lists commands, :wq saves and quits, ctrl+q quits).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	f := root.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file")
	f.BoolVarP(&opts.remote, "remote", "r", false, "store templates on a running server instead of locally")
	f.StringVarP(&opts.serverURL, "server", "s", "", "server URL for --remote (default from config)")
	f.StringVarP(&opts.templateID, "template", "t", "", "template id to open")
	f.StringVarP(&opts.importPath, "import", "i", "", "document JSON file to import into a new template")
	f.StringVar(&opts.stockID, "stock", "", "stock id for a new template")
	f.StringVarP(&opts.name, "name", "n", "", "name for a new template")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// backend is what the editor needs from wherever templates live
type backend interface {
	editor.TemplateStore
	command.StockSource
}

func run(opts options) error {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Logs go to the status bar; the alternate screen owns the terminal
	logs := tui.NewLogBuffer(200)
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelInfo}))

	be, closeFn, err := openBackend(cfg, opts, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	e := editor.New(labelformat.Document{Name: opts.name, StockID: opts.stockID},
		editor.WithLogger(logger),
		editor.WithStore(be),
		editor.WithHistoryLimit(cfg.Editor.HistoryLimit),
		editor.WithSnapping(cfg.Editor.GridSnap, cfg.Editor.ObjectSnap),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch {
	case opts.templateID != "":
		if err := e.Load(ctx, opts.templateID); err != nil {
			return fmt.Errorf("failed to open template %s: %w", opts.templateID, err)
		}
	case opts.importPath != "":
		data, err := os.ReadFile(opts.importPath)
		if err != nil {
			return err
		}
		if err := e.Import(data); err != nil {
			return err
		}
	}

	executor := command.NewExecutor(e, be)
	app := tui.NewApp(e, executor, be, logs)
	return app.Run()
}

func openBackend(cfg *config.Config, opts options, logger *slog.Logger) (backend, func(), error) {
	if opts.remote || opts.serverURL != "" {
		url := opts.serverURL
		if url == "" {
			url = cfg.Server.URL
		}
		c := client.New(url)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Health(ctx); err != nil {
			return nil, nil, fmt.Errorf("server %s is not reachable: %w", c.URL(), err)
		}
		logger.Info("using server", "url", c.URL())
		return c, func() {}, nil
	}

	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	if fs, ok := st.(*store.FileStore); ok {
		fs.SetLogger(logger)
	}
	logger.Info("using local store", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	return st, func() { _ = st.Close() }, nil
}
