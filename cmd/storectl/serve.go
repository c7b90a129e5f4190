package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/storectl/internal/accesstoken"
	"github.com/cuemby/storectl/internal/core"
	"github.com/cuemby/storectl/internal/davcache"
	"github.com/cuemby/storectl/internal/searchindex"
	"github.com/cuemby/storectl/internal/taskqueue"
	"github.com/cuemby/storectl/pkg/log"
	"github.com/cuemby/storectl/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storage core's background loops and metrics endpoint",
	Long: `serve starts a storage-core node standalone: the task queue
dispatcher, the search index worker, the blob sweeper, and the state
manager, plus a /metrics endpoint.

It wires every external collaborator (access-token permission
resolution, groupware resource sources, search document sources, task
handlers, push delivery) with inert placeholders, since those belong to
the protocol front-end that would normally link this core in as a
library. Run this command to exercise or operate the core on its own;
a real deployment supplies its own Dependencies through the core
package directly instead of through this CLI.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := log.WithComponent("storectl-serve")

	c, err := core.New(cfg, standaloneDependencies())
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Stop(); err != nil {
			logger.Error().Err(err).Msg("stop error")
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics endpoint listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// standaloneDependencies wires every external-collaborator interface
// with an inert implementation so the core's own background loops can
// run without a protocol front-end attached.
func standaloneDependencies() core.Dependencies {
	return core.Dependencies{
		TokenBuilder: func(ctx context.Context, principal uint32) (*accesstoken.AccessToken, error) {
			return &accesstoken.AccessToken{PrincipalID: principal}, nil
		},
		DAVSource:    noopDAVSource{},
		SearchSource: noopSearchSource{},
		TaskHandlers: map[taskqueue.Kind]taskqueue.Handler{},
		PushSender:   nil,
	}
}

type noopDAVSource struct{}

func (noopDAVSource) ScanAll(ctx context.Context, account uint32, collection uint8) ([]davcache.Resource, error) {
	return nil, nil
}

func (noopDAVSource) FetchByIDs(ctx context.Context, account uint32, collection uint8, ids []uint32) ([]davcache.Resource, error) {
	return nil, nil
}

type noopSearchSource struct{}

func (noopSearchSource) Pending(ctx context.Context, limit int) ([]searchindex.Document, error) {
	return nil, nil
}

func (noopSearchSource) Ack(ctx context.Context, documents []searchindex.Document) error {
	return nil
}
