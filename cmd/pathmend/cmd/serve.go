package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pathmend/pathmend/internal/config"
	"github.com/pathmend/pathmend/internal/hallog"
	"github.com/pathmend/pathmend/internal/logging"
	"github.com/pathmend/pathmend/internal/router"
	"github.com/pathmend/pathmend/internal/server"
	"github.com/pathmend/pathmend/internal/similarity"
	"github.com/pathmend/pathmend/internal/sitemap"
	"github.com/pathmend/pathmend/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var watchManifest bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the resolution server",
		Long: `Ingest the configured sitemap(s) and serve the resolution API over
HTTP. With --watch, a local manifest file is re-ingested whenever it
changes on disk.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), watchManifest)
		},
	}

	cmd.Flags().BoolVar(&watchManifest, "watch", false, "Re-ingest the local manifest on change")
	return cmd
}

func runServe(ctx context.Context, watchManifest bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	resolver, sink, err := buildResolver(cfg, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	fetcher := sitemap.NewFetcher(nil, logger, cfg.FetchConfig())
	if err := ingestRoutes(ctx, cfg, fetcher, resolver, logger); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, resolver, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})

	if watchManifest {
		if cfg.Sitemap.Manifest == "" {
			return fmt.Errorf("--watch requires sitemap.manifest in the configuration")
		}
		w, err := watcher.NewManifestWatcher(cfg.Sitemap.Manifest, 0, func() {
			if err := ingestRoutes(ctx, cfg, fetcher, resolver, logger); err != nil {
				logger.Error("manifest re-ingest failed", "error", err)
			}
		}, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			err := w.Start(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	if interval := cfg.RefreshInterval(); interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := ingestRoutes(ctx, cfg, fetcher, resolver, logger); err != nil {
						logger.Error("scheduled refresh failed", "error", err)
					}
				}
			}
		})
	}

	return g.Wait()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	return logging.Setup(logging.Config{
		Level:         cfg.Log.Level,
		FilePath:      cfg.Log.FilePath,
		MaxSizeMB:     cfg.Log.MaxSizeMB,
		MaxFiles:      cfg.Log.MaxFiles,
		WriteToStderr: cfg.Log.Stderr || cfg.Log.FilePath == "",
	})
}

// buildResolver wires dictionary, matcher, log sink and router from cfg.
func buildResolver(cfg *config.Config, logger *slog.Logger) (*router.Router, hallog.Sink, error) {
	matcher := similarity.NewPathMatcher(cfg.Dictionary(), cfg.MatcherOptions())

	var sink hallog.Sink
	if cfg.Storage.LogDB != "" {
		s, err := hallog.NewSQLiteSink(cfg.Storage.LogDB)
		if err != nil {
			return nil, nil, err
		}
		sink = s
	} else {
		sink = hallog.NewMemorySink(0)
	}

	return router.New(cfg.RouterConfig(), matcher, sink, logger), sink, nil
}

// ingestRoutes loads routes from the configured manifest and/or sitemap
// URLs and swaps them into the resolver. Per-URL fetch failures are
// logged and tolerated; having no routes at all is an error.
func ingestRoutes(ctx context.Context, cfg *config.Config, fetcher *sitemap.Fetcher, resolver *router.Router, logger *slog.Logger) error {
	var entries []sitemap.Entry

	if cfg.Sitemap.Manifest != "" {
		data, err := os.ReadFile(cfg.Sitemap.Manifest)
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
		doc, err := sitemap.Parse(data)
		if err != nil {
			return fmt.Errorf("parse manifest: %w", err)
		}
		if doc.IsIndex {
			for _, u := range doc.SitemapURLs {
				res, err := fetcher.Fetch(ctx, u)
				if err != nil {
					return err
				}
				logFetchErrors(logger, res)
				entries = append(entries, res.Entries...)
			}
		} else {
			entries = append(entries, doc.Entries...)
		}
	}

	for _, u := range cfg.Sitemap.URLs {
		res, err := fetcher.Fetch(ctx, u)
		if err != nil {
			return err
		}
		logFetchErrors(logger, res)
		entries = append(entries, res.Entries...)
	}

	if len(entries) == 0 {
		return fmt.Errorf("no routes ingested: configure sitemap.urls or sitemap.manifest")
	}

	resolver.SetIndex(sitemap.FromEntries(entries, sitemap.DefaultIndexTTL))
	logger.Info("routes ingested", "entries", len(entries), "routes", resolver.Index().Len())
	return nil
}

func logFetchErrors(logger *slog.Logger, res *sitemap.Result) {
	for _, msg := range res.Errors {
		logger.Warn("sitemap fetch problem", "detail", msg)
	}
}
