package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-flexcell/export"
	"github.com/goliatone/go-flexcell/query"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newDescribeCmd(opts *options) *cobra.Command {
	var formatters bool
	cmd := &cobra.Command{
		Use:   "describe [data.json]",
		Short: "Show the resolved columns and merges of a layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if formatters {
				names, err := query.NewFormatterNamesHandler(nil).Query(cmd.Context(), query.FormatterNames{})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
				return nil
			}

			cfg, err := opts.loadLayout()
			if err != nil {
				return err
			}
			msg := query.DescribeLayout{Layout: cfg}
			if len(cfg.Mapping) == 0 {
				data, cleanup, err := opts.dataset(cmd.Context(), args)
				if err != nil {
					return err
				}
				defer cleanup()
				msg.Sample = data
			}
			info, err := query.NewDescribeLayoutHandler(nil).Query(cmd.Context(), msg)
			if err != nil {
				return err
			}
			renderLayout(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&formatters, "formatters", false, "List the named formatter types instead")
	return cmd
}

func renderLayout(w io.Writer, info export.LayoutInfo) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Column", "Key", "Label", "Sub-header", "Formatter"})
	for _, col := range info.Columns {
		table.Append([]string{col.Letter, col.Key, col.Label, col.SubHeader, col.Formatter})
	}
	table.Render()

	fmt.Fprintf(w, "sheet %s, %d header row(s), chunk size %d\n", info.SheetName, info.HeaderRows, info.ChunkSize)
	for _, m := range info.ColumnMerges {
		mode := "in place"
		if m.ShiftDown {
			mode = "shift down"
		}
		fmt.Fprintf(w, "group %s %q (%s)\n", m.Range, m.Label, mode)
	}
	if len(info.RowMergeColumns) > 0 {
		fmt.Fprintf(w, "row merges on %s\n", strings.Join(info.RowMergeColumns, ", "))
	}
}
