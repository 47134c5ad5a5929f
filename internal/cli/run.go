package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaos-io/nobg/batch"
	"github.com/chaos-io/nobg/config"
)

func (c *CLI) runCommand() *cobra.Command {
	var (
		flags       processFlags
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "run [dir|file|url...]",
		Short: "Remove white backgrounds from images",
		Long: `Remove white backgrounds from every matching image in the given directories,
plus any files or http(s) URLs listed. With no arguments the configured input
directory (default ".") is scanned. Results are written as PNG files named after
their input into the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, &flags)
			if err != nil {
				return err
			}

			if interactive {
				m, err := promptConfig(c.in, c.out)
				if err != nil {
					return err
				}
				cfg.Threshold, cfg.Feather = m.Threshold, m.Feather
			}

			return c.runBatch(cmd, cfg, args)
		},
	}

	addProcessFlags(cmd, &flags)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask for threshold and feathering before processing")
	return cmd
}

func (c *CLI) runBatch(cmd *cobra.Command, cfg config.Config, args []string) error {
	if len(args) == 0 {
		args = []string{cfg.Input.Dir}
	}

	inputs, err := batch.Collect(args, cfg.Input.Extensions, cfg.Output.Dir)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		printWarning(c.out, fmt.Sprintf("No images matching %v found", cfg.Input.Extensions))
		return nil
	}

	c.Logger.Debug("settings", "matte", cfg.Matte(), "workers", cfg.Workers, "out", cfg.Output.Dir)
	_, _ = fmt.Fprintf(c.out, "Processing %d images...\n", len(inputs))

	prog := newProgress(c.Logger)
	proc := c.newProcessor(cfg)
	proc.OnResult = func(r batch.Result) {
		printResult(c.out, r)
	}

	sum := proc.Run(cmd.Context(), inputs)
	printSummary(c.out, sum, cfg.Output.Dir)
	prog.done(fmt.Sprintf("Processed %d images", sum.Total()))

	return cmd.Context().Err()
}

func (c *CLI) newProcessor(cfg config.Config) *batch.Processor {
	proc := batch.NewProcessor(cfg.Preprocessor(), cfg.Output.Dir, c.Logger)
	proc.Workers = cfg.Workers
	return proc
}
