package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/desertthunder/djay/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs a local catalog API backed by a JSON file and a media directory.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if v := cmd.String("catalog"); v != "" {
		cfg.Catalog = v
	}
	if v := cmd.String("media"); v != "" {
		cfg.MediaDir = v
	}
	if v := cmd.String("host"); v != "" {
		cfg.Host = v
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := server.NewCatalogHandler(cfg.Catalog, r.logger)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if !cmd.Bool("no-watch") {
		go func() {
			if err := catalog.Watch(ctx); err != nil {
				r.logger.Error("catalog watcher stopped", "err", err)
			}
		}()
	}

	var media *server.MediaHandler
	if cfg.MediaDir != "" {
		media = server.NewMediaHandler(cfg.MediaDir)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	ready := make(chan string, 1)
	go func() {
		select {
		case bound := <-ready:
			r.writePlain("Serving %s on http://%s\n", cfg.Catalog, bound)
		case <-ctx.Done():
		}
	}()

	return server.ListenAndServe(ctx, addr, server.NewFixtureRouter(catalog, media, r.logger), r.logger, ready)
}
