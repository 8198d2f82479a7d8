// Package cmd provides the CLI commands for pathmend.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pathmend/pathmend/pkg/version"
)

var (
	configDir string
	debugMode bool
)

// NewRootCmd creates the root command for the pathmend CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pathmend",
		Short: "Resolve hallucinated URLs to real routes",
		Long: `pathmend keeps AI agents on your site. It ingests your sitemap,
and when an agent requests a path that does not exist it finds the
closest real route by token similarity and redirects, or answers with
a structured not-found response the agent can act on.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("pathmend version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing pathmend.yaml")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
