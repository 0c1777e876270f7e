package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nysgpt/billembed/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves POST / and POST /api/v1/embed with the embed-single, embed-batch, status and
search actions, plus GET /health. Embedding actions fail with a configuration error until
LEGISLATIVE_API_KEY and OPENAI_API_KEY are set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	if components.MissingKeys != nil {
		logger.Warn("embedding actions disabled", zap.Error(components.MissingKeys))
	}

	srv := server.NewServer(serverServices(components), &cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-sigChan:
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// serverServices maps wired components onto the server's action table, leaving unset
// interfaces nil so the server can report them as unavailable.
func serverServices(c *Components) server.Services {
	s := server.Services{Unavailable: c.MissingKeys}
	if c.Indexer != nil {
		s.Embedder = c.Indexer
	}
	if c.Batch != nil {
		s.Batch = c.Batch
	}
	if c.Status != nil {
		s.Status = c.Status
	}
	if c.Engine != nil {
		s.Search = c.Engine
	}
	return s
}
