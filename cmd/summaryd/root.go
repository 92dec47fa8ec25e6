package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "summaryd",
	Short: "Streaming text-summarization proxy",
	Long: `Summaryd proxies summarization requests to LLM providers and streams the
summary back over server-sent events.

It provides:
  - Provider failover (OpenAI primary, Anthropic fallback)
  - Token usage and cost accounting on every stream
  - Durable request records with retention
  - Prometheus metrics and structured logging`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}
