package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pathmend/pathmend/internal/sitemap"
)

func newIngestCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch and validate the configured sitemap(s)",
		Long: `Run ingestion once and report what it produced: route count,
dropped-field statistics and per-URL fetch errors. Nothing is served;
this is a dry run of what serve would load.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every ingested route")
	return cmd
}

func runIngest(cmd *cobra.Command, verbose bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

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

	idx := resolver.Index()
	fmt.Fprintf(out, "ingested %d routes\n", idx.Len())
	if verbose {
		for _, route := range idx.Routes() {
			fmt.Fprintln(out, "  "+route)
		}
	}
	return nil
}
