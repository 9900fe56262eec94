package cmd

import (
	"fmt"
	"strings"

	"github.com/spigell/careercraft/internal/flow"
	"github.com/spigell/careercraft/internal/flows"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List the available flows and their inputs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry := flow.NewRegistry()
		// Listing never calls the model.
		if err := flows.Register(registry, offlineCompleter{}); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderFlows(registry.List()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flowsCmd)
}

func renderFlows(infos []flow.Info) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Flow", "Title", "Inputs"})

	for _, info := range infos {
		inputs := make([]string, 0, len(info.Fields))
		for _, f := range info.Fields {
			name := f.Name
			if !f.Required {
				name += "?"
			}
			inputs = append(inputs, name)
		}
		tw.AppendRow(table.Row{info.Name, info.Title, strings.Join(inputs, ", ")})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 60},
	})

	return tw.Render()
}
