package main

import (
	"github.com/spf13/cobra"

	"github.com/p-n-ai/curriculum-atlas/internal/ccc"
	"github.com/p-n-ai/curriculum-atlas/internal/curriculum"
	"github.com/p-n-ai/curriculum-atlas/internal/platform/config"
)

type fetchOutput struct {
	Standard string                   `json:"standard"`
	Outcome  string                   `json:"outcome"`
	Items    []curriculum.ContentItem `json:"items"`
}

func newFetchCommand(cfg *config.Config) *cobra.Command {
	var standard string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Print the CCC content items for a standard code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := ccc.NewEnricher(ccc.NewClient(cfg.CCC.BaseURL, cfg.CCC.Timeout))
			res := e.Enrich(cmd.Context(), standard)
			if err := printJSON(cmd.OutOrStdout(), fetchOutput{
				Standard: standard,
				Outcome:  res.Outcome.String(),
				Items:    res.Items,
			}); err != nil {
				return err
			}
			return res.Err
		},
	}
	cmd.Flags().StringVar(&standard, "standard", "", "standard code, e.g. MS-PS2-2")
	_ = cmd.MarkFlagRequired("standard")
	return cmd
}
