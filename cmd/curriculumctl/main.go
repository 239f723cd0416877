package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/curriculum-atlas/internal/platform/config"
	"github.com/p-n-ai/curriculum-atlas/internal/platform/logging"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	// stdout carries command output; logs go to stderr.
	slog.SetDefault(logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format))

	if err := newRootCommand(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "curriculumctl",
		Short: "Curriculum atlas operator CLI",
		Long: `curriculumctl converts curriculum spreadsheets into the dataset files,
queries the CCC content API, and batch-grades CCC questions.
Flags default to the LEARN_* environment used by the server.`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.CCC.BaseURL, "ccc-url", cfg.CCC.BaseURL, "CCC API base URL")
	rootCmd.PersistentFlags().DurationVar(&cfg.CCC.Timeout, "ccc-timeout", cfg.CCC.Timeout, "timeout per CCC API call")

	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newFetchCommand(cfg))
	rootCmd.AddCommand(newGradeCommand(cfg))
	rootCmd.AddCommand(newGraphCommand(cfg))

	return rootCmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
