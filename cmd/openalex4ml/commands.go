package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/config"
	"github.com/kailas-cloud/openalex4ml/internal/export/skos"
	"github.com/kailas-cloud/openalex4ml/internal/nlp"
	"github.com/kailas-cloud/openalex4ml/internal/repository/catalog"
	"github.com/kailas-cloud/openalex4ml/internal/repository/shard"
	"github.com/kailas-cloud/openalex4ml/internal/repository/vectors"
	"github.com/kailas-cloud/openalex4ml/internal/transport/openalex"
	"github.com/kailas-cloud/openalex4ml/internal/usecase/batch"
	"github.com/kailas-cloud/openalex4ml/internal/usecase/correct"
	"github.com/kailas-cloud/openalex4ml/internal/usecase/health"
	"github.com/kailas-cloud/openalex4ml/internal/usecase/normalize"
	"github.com/kailas-cloud/openalex4ml/internal/usecase/retrieve"
	"github.com/kailas-cloud/openalex4ml/internal/usecase/split"
	"github.com/kailas-cloud/openalex4ml/internal/usecase/stats"
	"github.com/kailas-cloud/openalex4ml/internal/usecase/vectorize"
	"github.com/kailas-cloud/openalex4ml/internal/version"
)

// withApp runs fn with a fully wired app and always releases it.
func withApp(opts *appOptions, stage string, fn func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(opts, stage)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := fn(cmd, a); err != nil {
			a.logger.Error("Stage failed", zap.Error(err))
			return err
		}
		return nil
	}
}

func fetchCmd(opts *appOptions) *cobra.Command {
	var (
		quota int
		raw   bool
		out   string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Retrieve journal-article abstracts for every catalog subject",
		RunE: withApp(opts, "fetch", func(cmd *cobra.Command, a *app) error {
			cat, err := catalog.Load(a.cfg.Paths.Subjects)
			if err != nil {
				return err
			}
			dir, err := shard.Create(pick(out, a.cfg.Paths.Docs))
			if err != nil {
				return err
			}

			// nil interface keeps raw text
			var normalizer retrieve.Normalizer
			if !raw && !a.cfg.Retrieval.Raw {
				lem, err := nlp.NewLemmatizer()
				if err != nil {
					return fmt.Errorf("load lemmatizer: %w", err)
				}
				normalizer = normalize.New(nlp.NewTagger(), lem, nlp.EnglishStopwords())
			}

			client := openalex.NewClient(openalex.Config{
				Mailto:            a.cfg.OpenAlex.Mailto,
				RequestsPerSecond: a.cfg.OpenAlex.RequestsPerSecond,
				Timeout:           a.cfg.OpenAlex.Timeout(),
				Logger:            a.logger,
			})
			if !cmd.Flags().Changed("quota") {
				quota = a.cfg.Retrieval.Quota
			}
			writer := batch.New(dir, a.logger).WithThreshold(a.cfg.Batch.Threshold)

			a.logger.Info("Retrieval started",
				zap.Int("subjects", cat.Len()),
				zap.Int("quota", quota),
				zap.Bool("normalize", normalizer != nil),
				zap.String("output", dir.Path()),
			)
			if err := retrieve.New(cat, client, normalizer, a.logger).WithQuota(quota).Run(cmd.Context(), writer); err != nil {
				return err
			}
			a.logger.Info("Shards written", zap.Int("shards", writer.Shards()), zap.String("output", dir.Path()))
			return nil
		}),
	}
	cmd.Flags().IntVar(&quota, "quota", 0, "Documents per subject (default: retrieval.quota)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Store title+abstract text without normalization")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output shard directory (default: paths.docs)")
	return cmd
}

func correctCmd(opts *appOptions) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Add every ancestor of every assigned subject to each document",
		RunE: withApp(opts, "correct", func(cmd *cobra.Command, a *app) error {
			cat, err := catalog.Load(a.cfg.Paths.Subjects)
			if err != nil {
				return err
			}
			src, err := shard.Open(pick(in, a.cfg.Paths.Docs))
			if err != nil {
				return err
			}
			dst, err := createOutput(src, pick(out, a.cfg.Paths.Corrected))
			if err != nil {
				return err
			}
			return correct.New(cat, a.logger).Run(cmd.Context(), src, dst)
		}),
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "Input shard directory (default: paths.docs)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output shard directory (default: paths.corrected)")
	return cmd
}

func splitCmd(opts *appOptions) *cobra.Command {
	var (
		in, out  string
		fraction float64
		seed     uint64
	)
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split shards into training lists and a stratified global test set",
		RunE: withApp(opts, "split", func(cmd *cobra.Command, a *app) error {
			src, err := shard.Open(pick(in, a.cfg.Paths.Corrected))
			if err != nil {
				return err
			}
			dst, err := createOutput(src, pick(out, a.cfg.Paths.Split))
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("fraction") {
				fraction = a.cfg.Split.TestFraction
			}
			var svc *split.Service
			switch {
			case cmd.Flags().Changed("seed"):
				svc, err = split.NewSeeded(fraction, seed, a.logger)
			case a.cfg.Split.Seed != nil:
				svc, err = split.NewSeeded(fraction, *a.cfg.Split.Seed, a.logger)
			default:
				svc, err = split.New(fraction, nil, a.logger)
			}
			if err != nil {
				return err
			}
			return svc.Run(cmd.Context(), src, dst)
		}),
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "Input shard directory (default: paths.corrected)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output shard directory (default: paths.split)")
	cmd.Flags().Float64Var(&fraction, "fraction", 0, "Test fraction per subject in [0, 1] (default: split.test_fraction)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed for reproducible splits (default: split.seed)")
	return cmd
}

func vectorizeCmd(opts *appOptions) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "vectorize",
		Short: "Replace document tokens with embedding vectors",
		RunE: withApp(opts, "vectorize", func(cmd *cobra.Command, a *app) error {
			table, err := a.VectorTable(cmd.Context())
			if err != nil {
				return err
			}
			src, err := shard.Open(pick(in, a.cfg.Paths.Split))
			if err != nil {
				return err
			}
			dst, err := createOutput(src, pick(out, a.cfg.Paths.Vectorized))
			if err != nil {
				return err
			}
			return vectorize.New(table, a.logger).Run(cmd.Context(), src, dst)
		}),
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "Input shard directory (default: paths.split)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output shard directory (default: paths.vectorized)")
	return cmd
}

func vectorsCmd(opts *appOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectors",
		Short: "Manage the Valkey vector store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "load [file]",
		Short: "Import an embedding vectors file into Valkey",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return withApp(opts, "vectors-load", func(cmd *cobra.Command, a *app) error {
				path = pick(path, a.cfg.Vectors.File)
				f, err := os.Open(filepath.Clean(path))
				if err != nil {
					return fmt.Errorf("open vectors file: %w", err)
				}
				defer f.Close()

				store, err := a.Store(cmd.Context())
				if err != nil {
					return err
				}
				n, err := vectors.NewImporter(store, a.cfg.Vectors.KeyPrefix, a.cfg.Vectors.ImportBatch, a.logger).
					Import(cmd.Context(), f)
				if err != nil {
					return err
				}
				a.logger.Info("Vectors imported", zap.String("file", path), zap.Int("vectors", n))
				return nil
			})(cmd, args)
		},
	})
	return cmd
}

func statsCmd(opts *appOptions) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute subject statistics over pre-split shards",
		RunE: withApp(opts, "stats", func(cmd *cobra.Command, a *app) error {
			cat, err := catalog.Load(a.cfg.Paths.Subjects)
			if err != nil {
				return err
			}
			src, err := shard.Open(pick(in, a.cfg.Paths.Corrected))
			if err != nil {
				return err
			}
			dst, err := createOutput(src, pick(out, a.cfg.Paths.Stats))
			if err != nil {
				return err
			}
			svc := stats.New(cat, a.logger)
			rep, err := svc.Compute(cmd.Context(), src)
			if err != nil {
				return err
			}
			return svc.Write(rep, dst)
		}),
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "Input shard directory (default: paths.corrected)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Report directory (default: paths.stats)")
	return cmd
}

func skosCmd(opts *appOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "skos",
		Short: "Export the subject catalog as SKOS Turtle",
		RunE: withApp(opts, "skos", func(cmd *cobra.Command, a *app) error {
			cat, err := catalog.Load(a.cfg.Paths.Subjects)
			if err != nil {
				return err
			}
			path := pick(out, a.cfg.Paths.SKOS)
			if path == "-" {
				return skos.Write(cmd.OutOrStdout(), cat)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			f, err := os.Create(filepath.Clean(path))
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := skos.Write(f, cat); err != nil {
				_ = f.Close()
				return fmt.Errorf("write %s: %w", path, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", path, err)
			}
			a.logger.Info("SKOS written", zap.String("file", path), zap.Int("subjects", cat.Len()))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Turtle file, or - for stdout (default: paths.skos)")
	return cmd
}

func checkCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the catalog, the works API and the configured vector source",
		RunE: withApp(opts, "check", func(cmd *cobra.Command, a *app) error {
			ctx := cmd.Context()
			cat, err := catalog.Load(a.cfg.Paths.Subjects)
			if err != nil {
				return err
			}
			if cat.Len() == 0 {
				return fmt.Errorf("catalog %s is empty", a.cfg.Paths.Subjects)
			}

			client := openalex.NewClient(openalex.Config{
				Mailto:  a.cfg.OpenAlex.Mailto,
				Timeout: a.cfg.OpenAlex.Timeout(),
				Logger:  a.logger,
			})
			first := cat.Subjects()[0]
			svc := health.New(a.logger).Add("source", func(ctx context.Context) error {
				_, err := client.FetchPage(ctx, first.WorksURL(), 1)
				return err
			})

			if a.cfg.UsesValkey() {
				svc.Add("database", func(ctx context.Context) error {
					store, err := a.Store(ctx)
					if err != nil {
						return err
					}
					return store.Ping(ctx)
				})
			}
			switch a.cfg.Vectors.Source {
			case config.VectorSourceFile:
				svc.Add("vectors", func(context.Context) error {
					_, err := os.Stat(a.cfg.Vectors.File)
					return err
				})
			case config.VectorSourceOpenAI:
				svc.Add("embedding", func(ctx context.Context) error {
					emb, err := a.Embedder(ctx)
					if err != nil {
						return err
					}
					_, err = emb.Embed(ctx, []string{"health"})
					return err
				})
			}

			rep := svc.Check(ctx)
			w := cmd.OutOrStdout()
			for _, r := range rep.Checks {
				if r.OK() {
					fmt.Fprintf(w, "%-10s ok\n", r.Name)
				} else {
					fmt.Fprintf(w, "%-10s error: %v\n", r.Name, r.Err)
				}
			}
			fmt.Fprintf(w, "status: %s\n", rep.Status)
			if rep.Status != health.Healthy {
				return fmt.Errorf("health check %s", rep.Status)
			}
			return nil
		}),
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "openalex4ml %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}

// createOutput prepares a stage output directory. Create clears stale
// shards, so writing back into the input directory is refused.
func createOutput(src *shard.Dir, path string) (*shard.Dir, error) {
	in, err := filepath.Abs(src.Path())
	if err != nil {
		return nil, fmt.Errorf("resolve input dir: %w", err)
	}
	out, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	if in == out {
		return nil, fmt.Errorf("output dir %s is the input dir", path)
	}
	return shard.Create(path)
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
