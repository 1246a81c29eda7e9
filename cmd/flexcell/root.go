package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-flexcell/command"
	"github.com/goliatone/go-flexcell/export"
	"github.com/goliatone/go-flexcell/layout"
	exportsql "github.com/goliatone/go-flexcell/sources/sql"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

type options struct {
	layoutPath string
	envFiles   []string
	sqlitePath string
	query      string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "flexcell",
		Short:         "Lay out JSON or SQL datasets as spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.layoutPath, "layout", "l", "", "Layout file (YAML or JSON)")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env", nil, "Env files to load (default .env when present)")
	root.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite", "", "Read the dataset from this SQLite database")
	root.PersistentFlags().StringVar(&opts.query, "query", "", "SQL query used with --sqlite")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newExportCmd(opts), newPreviewCmd(opts), newDescribeCmd(opts), newBatchCmd(opts), newServeCmd(opts))
	return root
}

func (o *options) logger(w io.Writer) *SimpleLogger {
	return NewSimpleLogger(w, "flexcell", o.verbose)
}

func (o *options) loadLayout() (layout.Config, error) {
	cfg := layout.Defaults()
	if o.layoutPath != "" {
		loaded, err := layout.Load(o.layoutPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	return layout.FromEnv(cfg, o.envFiles...)
}

// dataset returns the items to export and a cleanup func.
func (o *options) dataset(ctx context.Context, args []string) (any, func(), error) {
	noop := func() {}
	if o.sqlitePath != "" {
		if strings.TrimSpace(o.query) == "" {
			return nil, noop, fmt.Errorf("--query is required with --sqlite")
		}
		db, err := sql.Open("sqlite", o.sqlitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite: %w", err)
		}
		reg := exportsql.NewRegistry()
		if err := reg.Register(exportsql.Definition{Name: "cli", Query: o.query}); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		it, err := exportsql.NewSource(reg, db, "cli").Open(ctx)
		if err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return it, func() { _ = db.Close() }, nil
	}

	if len(args) == 0 {
		return nil, noop, fmt.Errorf("a data file (or - for stdin) is required")
	}
	items, err := command.LoadData(args[0])
	if err != nil {
		return nil, noop, err
	}
	return items, noop, nil
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		output     string
		appendMode bool
	)
	cmd := &cobra.Command{
		Use:   "export [data.json]",
		Short: "Write a dataset to an .xlsx workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadLayout()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("append") {
				cfg.AppendMode = appendMode
			}
			data, cleanup, err := opts.dataset(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer cleanup()

			var result export.Result
			handler := command.NewExportSheetHandler(opts.logger(cmd.ErrOrStderr()))
			if err := handler.Execute(cmd.Context(), command.ExportSheet{
				Filename: output,
				Layout:   cfg,
				Data:     data,
				Result:   &result,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s in %s\n", result.State.RowsWritten, result.Filename, result.Duration)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "out.xlsx", "Output workbook path")
	cmd.Flags().BoolVar(&appendMode, "append", false, "Append below existing rows")
	return cmd
}

func newBatchCmd(opts *options) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the sheet exports listed in a JSON batch file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := command.NewExportSheetHandler(opts.logger(cmd.ErrOrStderr()))
			count, err := command.NewBatchCommand(handler, nil).Run(cmd.Context(), from)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "completed %d exports\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Path to JSON batch sheet requests")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
