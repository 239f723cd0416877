package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/curriculum-atlas/internal/curriculum"
	"github.com/p-n-ai/curriculum-atlas/internal/platform/config"
)

func newGraphCommand(cfg *config.Config) *cobra.Command {
	curriculumPath := cfg.Data.CurriculumPath
	contentPath := cfg.Data.ContentPath
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the standard/lesson/content graph as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := curriculum.NewDataset(curriculumPath, contentPath).Snapshot()
			for _, d := range snap.Diagnostics {
				slog.Warn("dataset diagnostic", "source", d.Source, "message", d.Message)
			}
			return printJSON(cmd.OutOrStdout(), curriculum.BuildGraph(snap.Standards, snap.Lessons, snap.Items))
		},
	}
	cmd.Flags().StringVar(&curriculumPath, "curriculum", curriculumPath, "curriculum JSON file")
	cmd.Flags().StringVar(&contentPath, "content", contentPath, "content JSON file")
	return cmd
}
