package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bracetpl/brace"
	"github.com/bracetpl/brace/internal/config"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brace",
	Short: "Render brace templates and manage the render cache",
	Long: `brace compiles and renders brace template files: {name} output
expressions with filters, {% if %} conditionals, {% foreach %} and
{% for %} loops. Rendered output is cached on disk keyed by template
path, source modification time and a hash of the render data.

Quick start:
  brace render page.html -d data.yaml
  brace cache clear`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./brace.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	// Accept underscore spellings of flag names.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// newEngine builds an engine from the loaded configuration.
func newEngine(noCache bool) (*brace.Engine, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cacheCfg := cfg.EngineCache()
	if noCache {
		cacheCfg.Enabled = false
	}
	eng, err := brace.New(
		brace.WithCache(cacheCfg),
		brace.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, nil, err
	}
	return eng, cfg, nil
}
