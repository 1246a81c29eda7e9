package main

import (
	"github.com/gofiber/fiber/v2"
	exporthttp "github.com/goliatone/go-flexcell/adapters/http"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		addr     string
		basePath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sheet export HTTP endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd.ErrOrStderr())
			app := newServer(exporthttp.Config{BasePath: basePath, Logger: logger})
			logger.Infof("listening on %s%s", addr, basePath)
			return app.Listen(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/sheets", "Route prefix")
	return cmd
}

func newServer(cfg exporthttp.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "flexcell",
		DisableStartupMessage: true,
		BodyLimit:             32 << 20,
	})
	exporthttp.NewHandler(cfg).RegisterFiber(app)
	return app
}
