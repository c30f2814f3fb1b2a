package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bracetpl/brace"
	"github.com/bracetpl/brace/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the render cache",
}

// cacheClearCmd removes every cached render.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all render cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cacheCfg := cfg.EngineCache()
		cacheCfg.Enabled = true
		cacheCfg.DevMode = false

		cache, err := brace.NewRenderCache(cacheCfg, slog.Default())
		if err != nil {
			return err
		}
		if err := cache.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared render cache in %s\n", cacheCfg.Dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
