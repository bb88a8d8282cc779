// Command openalex4ml builds a multi-label document corpus from OpenAlex:
// retrieval, hierarchy correction, stratified splitting, vectorization,
// statistics and SKOS export, one subcommand per stage.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts appOptions

	cmd := &cobra.Command{
		Use:   "openalex4ml",
		Short: "Build a hierarchical multi-label corpus from OpenAlex",
		Long: `openalex4ml retrieves journal-article abstracts for every subject of a
taxonomy, closes each document's labels under the subject hierarchy and
splits the result into stratified train and test sets.

Stages read the previous stage's shard directory and write a new one:

  fetch -> correct -> split -> vectorize
                   \-> stats`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (overrides --env)")
	cmd.PersistentFlags().StringVar(&opts.env, "env", "", "Environment: local, dev, docker, prod (default: $ENV or local)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(
		fetchCmd(&opts),
		correctCmd(&opts),
		splitCmd(&opts),
		vectorizeCmd(&opts),
		vectorsCmd(&opts),
		statsCmd(&opts),
		skosCmd(&opts),
		checkCmd(&opts),
		versionCmd(),
	)
	return cmd
}
