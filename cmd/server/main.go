package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/thereceipt/label-designer/internal/api"
	"github.com/thereceipt/label-designer/internal/config"
	"github.com/thereceipt/label-designer/internal/jobs"
	"github.com/thereceipt/label-designer/internal/store"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	var (
		configPath string
		port       int
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "label-server",
		Short:         "Label template API server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return run(cfg, verbose)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: search LABEL_CONFIG, ./label-designer.yaml, ~/.config/label-designer)")
	root.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config and SERVER_PORT)")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func run(cfg *config.Config, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gin.SetMode(cfg.Server.Mode)

	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()
	if fs, ok := st.(*store.FileStore); ok {
		fs.SetLogger(logger)
	}

	render := cfg.Render.Options(logger)
	queue := jobs.NewQueue(api.RenderFunc(st, render), jobs.Options{
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logger,
	})
	defer queue.Stop()

	server := api.NewServer(st, queue, render, logger)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", addr, "store", cfg.Store.Driver, "path", cfg.Store.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
