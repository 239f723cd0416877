package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/curriculum-atlas/internal/convert"
)

func newConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert CSV or XLSX sheets into dataset files",
	}

	cmd.AddCommand(newConvertCurriculumCommand())
	cmd.AddCommand(newConvertContentCommand())

	return cmd
}

func newConvertCurriculumCommand() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "curriculum",
		Short: "Convert an IXL skills sheet into curriculum_structure.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := convert.ReadFile(in)
			if err != nil {
				return err
			}
			doc := convert.Curriculum(rows)
			if err := convert.WriteJSON(out, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d lessons across %d grades to %s\n", doc.LessonCount(), len(doc.Grades), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input .csv or .xlsx file")
	cmd.Flags().StringVar(&out, "out", "curriculum_structure.json", "output JSON file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newConvertContentCommand() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Convert a CCC content sheet into ccc_structure.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := convert.ReadFile(in)
			if err != nil {
				return err
			}
			doc := convert.Content(rows)
			if err := convert.WriteJSON(out, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d content records to %s\n", len(doc.Content), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input .csv or .xlsx file")
	cmd.Flags().StringVar(&out, "out", "ccc_structure.json", "output JSON file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
