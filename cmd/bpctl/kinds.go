package main

import (
	"fmt"
	"strconv"

	"blueprint/internal/game"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type kindInfo struct {
	Kind    string `json:"kind"`
	GasCost int64  `json:"gasCost"`
}

func newKindsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the node kinds known to the local engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := game.NewEngine()

			var kinds []kindInfo
			for _, k := range e.Registry().Kinds() {
				kinds = append(kinds, kindInfo{Kind: k, GasCost: e.GasCost(k)})
			}
			if opts.asJSON {
				return printJSON(cmd, kinds)
			}

			data := pterm.TableData{{"Kind", "Gas"}}
			for _, k := range kinds {
				data = append(data, []string{k.Kind, strconv.FormatInt(k.GasCost, 10)})
			}
			table, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
