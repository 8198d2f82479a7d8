package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pathmend/pathmend/internal/sitemap"
)

func newResolveCmd() *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a single path against the configured routes",
		Long: `Ingest routes from the configured sitemap(s) or manifest, resolve
one path, and print the decision as JSON. Useful for testing thresholds
and synonym groups without running the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args[0], agent)
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "Agent tag recorded in the hallucination log")
	return cmd
}

func runResolve(cmd *cobra.Command, path, agent string) error {
	ctx := cmd.Context()

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

	decision := resolver.Resolve(ctx, path, agent)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(decision); err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	return nil
}
