// Package cli wires the llmgen command tree: `run` for offline batch
// generation, `plan` to inspect the device memory plan, `serve` for the
// HTTP API, and `version`.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	root := buildRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "llmgen",
		Short:         "Batched text generation against a pretrained causal language model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Config file (.yaml/.json/.toml); flags override file values")
	root.PersistentFlags().String("log-level", envOr("LLMGEN_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")

	root.AddCommand(buildRunCmd())
	root.AddCommand(buildPlanCmd())
	root.AddCommand(buildServeCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the llmgen version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "llmgen", Version)
		},
	})
	return root
}

// envOr returns the environment value for key, or def when unset/empty.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// setupLogger builds the process logger writing console lines to stderr.
func setupLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}
