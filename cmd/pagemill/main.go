// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pagemill CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pagemill/internal/logging"
	"github.com/pdiddy/pagemill/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd builds the project named by its single argument, so the bare
// `pagemill book.yaml` form keeps working alongside the subcommands.
var rootCmd = &cobra.Command{
	Use:   "pagemill <project.yaml>",
	Short: "Build a print-ready PDF from a page list of artwork files",
	Long: `pagemill reads a YAML project that lists the pages of a book in order,
renders each page onto a fixed-size monochrome canvas in a staging
directory, and assembles the staged pages into a single PDF.

Pages whose staged file is newer than their source are not re-rendered,
so rebuilding after editing one drawing only touches that page.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	RunE:          runBuild,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging(cmd)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pagemill.yaml or ~/.config/pagemill/pagemill.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log freshness decisions and journal events")
	addBuildFlags(rootCmd)
	setDefaults()
}

// setDefaults registers every tool-config key so that Unmarshal sees
// PAGEMILL_* overrides for all of them.
func setDefaults() {
	viper.SetDefault("font", "")
	viper.SetDefault("font_size", types.DefaultFontSize)
	viper.SetDefault("stamp_margin", types.DefaultStampMargin)
	viper.SetDefault("journal", true)
	viper.SetDefault("log_format", "text")
	viper.SetDefault("log_level", "warn")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pagemill")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pagemill"))
		}
	}

	viper.SetEnvPrefix("PAGEMILL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// toolConfig returns the merged tool settings from file, environment, and
// defaults.
func toolConfig() (types.ToolConfig, error) {
	var cfg types.ToolConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading tool config: %w", err)
	}
	return cfg, nil
}

func initLogging(cmd *cobra.Command) error {
	cfg, err := toolConfig()
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	logging.Init(cmd.ErrOrStderr(), level, format)
	return nil
}

// execute runs the CLI with args. Cancelling ctx stops a build between
// pages.
func execute(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}
