package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hdrtoc/internal/config"
	"hdrtoc/internal/extractor"
	"hdrtoc/internal/generator"
	"hdrtoc/internal/pipeline"
	"hdrtoc/internal/storage"
	"hdrtoc/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var (
	rootCmd = &cobra.Command{
		Use:           "hdrtoc",
		Short:         "Regenerate the license, table of contents and docs preamble of a C header",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	configPath string
	verbose    bool
	logger     *zap.Logger

	dryRun       bool
	settle       bool
	requireClean bool
	indexFormat  string
)

// errStale is returned by check when the preamble needs regenerating.
var errStale = errors.New("preamble is out of date")

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "hdrtoc.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the regenerated header instead of writing it")
	for _, cmd := range []*cobra.Command{syncCmd, checkCmd, watchCmd} {
		cmd.Flags().BoolVar(&settle, "settle", false, "Compute offsets against the regenerated file")
	}
	syncCmd.Flags().BoolVar(&requireClean, "require-clean", false, "Refuse to rewrite a header with uncommitted git changes")
	indexCmd.Flags().StringVarP(&indexFormat, "format", "f", "text", "Output format: text or yaml")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadConfig loads the config file and applies the target argument and flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if len(args) > 0 {
		cfg.Target = args[0]
	}
	if f := cmd.Flags().Lookup("settle"); f != nil && f.Changed {
		cfg.Settle = settle
	}
	if f := cmd.Flags().Lookup("require-clean"); f != nil && f.Changed {
		cfg.RequireClean = requireClean
	}
	return cfg, nil
}

func newSynchronizer(cmd *cobra.Command, args []string) (*config.Config, *pipeline.Synchronizer, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	s, err := pipeline.NewSynchronizer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

var syncCmd = &cobra.Command{
	Use:   "sync [file]",
	Short: "Rewrite the header's preamble in place",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := newSynchronizer(cmd, args)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if dryRun {
			res, err := s.Plan(ctx)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(res.After)
			return err
		}

		res, err := s.Run(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrDirty) {
				return fmt.Errorf("%w (commit or stash first, or drop --require-clean)", err)
			}
			return err
		}
		if !res.Written {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is up to date (%d sections).\n", res.Path, res.Index.Len())
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📝 Rewrote %s with %d sections.\n", res.Path, res.Index.Len())
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Exit non-zero and print a diff if the preamble is out of date",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := newSynchronizer(cmd, args)
		if err != nil {
			return err
		}
		res, err := s.Plan(cmd.Context())
		if err != nil {
			return err
		}
		if !res.Changed() {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is up to date.\n", res.Path)
			return nil
		}

		diff, err := generator.UnifiedDiff(res.Path, string(res.Before), string(res.After))
		if err != nil {
			return fmt.Errorf("failed to diff %s: %w", res.Path, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), diff)
		return fmt.Errorf("%s: %w", res.Path, errStale)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Print the sections found in the header",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		store := storage.NewFileStore(cfg.Target)
		snap, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		idx, err := extractor.NewIndexer(cfg.Convention()).IndexSource(snap.Content)
		if err != nil {
			return fmt.Errorf("%s: %w", snap.Path, err)
		}
		return printIndex(cmd, idx, indexFormat)
	},
}

func printIndex(cmd *cobra.Command, idx *extractor.Index, format string) error {
	w := cmd.OutOrStdout()
	switch format {
	case "yaml":
		sections := idx.Sections()
		if sections == nil {
			sections = []*extractor.Section{}
		}
		out, err := yaml.Marshal(sections)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "text":
		for i, sec := range idx.Sections() {
			fmt.Fprintf(w, "%d. %s\n", i+1, sec.Name)
			fmt.Fprintf(w, "   declarations: line %d\n", sec.Declaration())
			if def, ok := sec.Definition(); ok {
				fmt.Fprintf(w, "   definitions:  line %d\n", def)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Regenerate the preamble whenever the header changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, s, err := newSynchronizer(cmd, args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "👀 Watching %s (Ctrl+C to stop)...\n", cfg.Target)
		w := watch.NewWatcher(cfg.Target, s, cfg.Watch.Debounce, logger)
		w.OnResult = func(res *pipeline.Result, err error) {
			switch {
			case err != nil:
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v\n", err)
			case res.Written:
				fmt.Fprintf(cmd.OutOrStdout(), "📝 Rewrote %s with %d sections.\n", res.Path, res.Index.Len())
			}
		}
		return w.Run(ctx)
	},
}

// executeContext runs the root command with ctx; used by tests.
func executeContext(ctx context.Context, args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
