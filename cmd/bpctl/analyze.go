package main

import (
	"fmt"
	"strconv"
	"strings"

	"blueprint/internal/engine"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE",
		Short: "Validate a blueprint and print its execution order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := loadBlueprint(cmd, args[0])
			if err != nil {
				return err
			}

			analysis := engine.AnalyzeBlueprint(bp)
			if opts.asJSON {
				if err := printJSON(cmd, analysis); err != nil {
					return err
				}
			} else if err := renderAnalysis(cmd, analysis); err != nil {
				return err
			}

			if !analysis.Success {
				return fmt.Errorf("blueprint rejected: %s", analysis.Error.Code)
			}
			return nil
		},
	}
}

func renderAnalysis(cmd *cobra.Command, a engine.Analysis) error {
	out := cmd.OutOrStdout()
	if !a.Success {
		fmt.Fprintln(out, pterm.Error.Sprint(a.Error.Message))
		if len(a.Error.NodeIDs) > 0 {
			fmt.Fprintln(out, pterm.Info.Sprint("Nodes: "+strings.Join(a.Error.NodeIDs, ", ")))
		}
		return nil
	}

	data := pterm.TableData{{"#", "Node", "Kind"}}
	for i, n := range a.Order {
		data = append(data, []string{strconv.Itoa(i + 1), n.ID, n.Kind})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, pterm.Success.Sprintf("Blueprint is valid (%d nodes)", len(a.Order)))
	fmt.Fprintln(out, table)
	return nil
}
