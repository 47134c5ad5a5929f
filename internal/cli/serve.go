package cli

import (
	"github.com/spf13/cobra"

	"github.com/chaos-io/nobg/config"
	"github.com/chaos-io/nobg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		threshold   int
		feather     bool
		addr        string
		maxUploadMB int
		maxSize     int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the background remover over HTTP",
		Long: `Start an HTTP server.

  POST /v1/remove   multipart "image" file or "url" field; optional
                    "threshold", "feather" and "trim". Returns image/png.
  GET  /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, &processFlags{threshold: threshold, feather: feather, maxSize: maxSize})
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("max-upload-mb") {
				cfg.Server.MaxUploadMB = maxUploadMB
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			srv := server.New(server.Options{
				Addr:           cfg.Server.Addr,
				Matte:          cfg.Matte(),
				MaxSize:        cfg.Output.MaxSize,
				Workers:        cfg.Workers,
				MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
			}, c.Logger)
			return srv.ListenAndServe(cmd.Context())
		},
	}

	addMatteFlags(cmd, &threshold, &feather)
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().IntVar(&maxUploadMB, "max-upload-mb", config.DefaultUploadMB, "largest accepted upload in MiB")
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "scale images down so the longest side is at most this many pixels (0 = off)")
	return cmd
}
