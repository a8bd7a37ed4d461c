// Package main provides the spritegen CLI, which turns creature sprite
// folders into Godot SpriteFrames resources.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spritegen/internal/config"
	"github.com/cory-johannsen/spritegen/internal/generator"
	"github.com/cory-johannsen/spritegen/internal/observability"
	"github.com/cory-johannsen/spritegen/internal/roster"
)

// Set by release ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs once flags are parsed.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	// roster is the full table, whatever folders were named.
	roster *roster.Roster
	gen    *generator.Generator
}

// rootFlags maps persistent flags onto configuration keys.
var rootFlags = map[string]string{
	"base-dir":   "paths.base_dir",
	"output-dir": "paths.output_dir",
	"roster":     "paths.roster_file",
	"log-level":  "logging.level",
	"log-format": "logging.format",
}

func rootCmd() *cobra.Command {
	v := config.New()
	root := &cobra.Command{
		Use:           "spritegen",
		Short:         "Generate Godot SpriteFrames resources from creature sprite folders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to configuration file")
	pf.String("base-dir", "", "creature sprite root directory")
	pf.String("output-dir", "", "directory for generated .tres files")
	pf.String("roster", "", "creature roster YAML; empty uses the built-in table")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	mustBind(v, pf, rootFlags)

	root.AddCommand(
		listCmd(v),
		generateCmd(v),
		enumsCmd(v),
		previewCmd(v),
		watchCmd(v),
		versionCmd(),
	)
	return root
}

func mustBind(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding --%s: %v", flag, err))
		}
	}
}

// setup reads the config file named by --config, then builds the logger,
// the roster and a generator whose planning is restricted to folders when
// any are given.
func setup(cmd *cobra.Command, v *viper.Viper, folders []string) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	if err := config.ReadFile(v, path); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	r, err := roster.Load(cfg.Paths.RosterFile)
	if err != nil {
		return nil, err
	}
	gen := generator.New(r, generator.OptionsFromConfig(cfg), logger)
	if err := gen.Select(folders); err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded",
		zap.String("config", path),
		zap.String("base_dir", cfg.Paths.BaseDir),
		zap.String("output_dir", cfg.Paths.OutputDir),
		zap.Int("creatures", len(r.Creatures)),
		zap.Strings("selected", folders),
	)
	return &env{cfg: cfg, logger: logger, roster: r, gen: gen}, nil
}

// close flushes the logger.
func (e *env) close() {
	_ = observability.Sync(e.logger)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spritegen %s (commit: %s)\n", version, commit)
		},
	}
}
