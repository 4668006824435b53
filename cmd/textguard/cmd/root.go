// Package cmd provides the CLI commands for the content guardrail engine.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/textguard/textguard/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "textguard",
	Short: "textguard - content guardrail engine",
	Long: `textguard evaluates submitted text against a compiled rule document
through a cascade of matcher stages: regex pattern, exact keyword, lemma,
stem, fuzzy edit-distance, and semantic similarity. Rules that don't
fire fall through to a remote toxicity classifier, optionally gated by
CEL expressions that rules declare per toxicity category.

Quick start:
  1. Create a config file: textguard.yaml
  2. Run: textguard serve

Configuration:
  Config is loaded from textguard.yaml in the current directory,
  $HOME/.textguard/, or /etc/textguard/.

  Environment variables override config values directly, e.g.
  RULES_PATH, MAX_WORKERS, REDIS_HOST, API_TIMEOUT.

Commands:
  serve       Start the HTTP server
  reload      Force the running server to recompile its rule document
  rules       List the rules currently loaded by a running server
  hash-key    Generate a SHA-256 hash for an admin API key
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./textguard.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
