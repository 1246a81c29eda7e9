package main

import (
	"fmt"
	"io"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-flexcell/command"
	"github.com/goliatone/go-flexcell/export"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newPreviewCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "preview [data.json]",
		Short: "Print the laid out sheet as a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadLayout()
			if err != nil {
				return err
			}
			cfg.AppendMode = false
			data, cleanup, err := opts.dataset(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer cleanup()

			result := gcmd.NewResult[*export.Grid]()
			ctx := gcmd.ContextWithResult(cmd.Context(), result)
			handler := command.NewPreviewSheetHandler(command.NewExportSheetHandler(opts.logger(cmd.ErrOrStderr())))
			if err := handler.Execute(ctx, command.PreviewSheet{Layout: cfg, Data: data}); err != nil {
				return err
			}
			grid, _ := result.Load()
			renderGrid(cmd.OutOrStdout(), grid, limit)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to print (0 for all)")
	return cmd
}

func renderGrid(w io.Writer, grid *export.Grid, limit int) {
	if grid == nil {
		return
	}
	rows := grid.Rows()
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	if len(rows) > 0 {
		header := make([]string, len(rows[0]))
		for i := range header {
			letter, _ := export.ColumnLetter(i + 1)
			header[i] = letter
		}
		table.SetHeader(append([]string{"#"}, header...))
	}
	for i, row := range rows {
		line := make([]string, 0, len(row)+1)
		line = append(line, fmt.Sprint(i+1))
		for _, value := range row {
			if value == nil {
				line = append(line, "")
				continue
			}
			line = append(line, fmt.Sprint(value))
		}
		table.Append(line)
	}
	table.Render()

	for _, m := range grid.Merges() {
		fmt.Fprintf(w, "merged %s\n", m)
	}
}
