package cli

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/chaos-io/nobg/batch"
	"github.com/chaos-io/nobg/config"
	"github.com/chaos-io/nobg/util"
)

func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags    processFlags
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "watch [dir|file|url...]",
		Short: "Process new and changed images on a schedule",
		Long: `Run the background remover now and then again on every tick of a cron
schedule (e.g. "@every 30s" or "*/5 * * * *"). Local images whose output is
already newer than the input are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("schedule") {
				cfg.Watch.Schedule = schedule
			}
			if len(args) == 0 {
				args = []string{cfg.Input.Dir}
			}
			return c.watch(cmd.Context(), cfg, args)
		},
	}

	addProcessFlags(cmd, &flags)
	cmd.Flags().StringVar(&schedule, "schedule", config.DefaultSchedule, "cron schedule between scans")
	return cmd
}

func (c *CLI) watch(ctx context.Context, cfg config.Config, args []string) error {
	proc := c.newProcessor(cfg)
	proc.SkipUpToDate = true
	proc.OnResult = func(r batch.Result) {
		if r.Skipped && r.Note == "up to date" {
			return
		}
		printResult(c.out, r)
	}

	logger := cronLogger{l: c.Logger}
	sched := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	tick := func() {
		defer util.Trace("watch scan")()
		c.scanOnce(ctx, proc, cfg, args)
	}
	if _, err := sched.AddFunc(cfg.Watch.Schedule, tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Watch.Schedule, err)
	}

	c.Logger.Info("watching", "inputs", args, "out", cfg.Output.Dir, "schedule", cfg.Watch.Schedule)
	tick()
	sched.Start()

	<-ctx.Done()
	<-sched.Stop().Done()
	c.Logger.Info("stopped watching")
	return nil
}

// scanOnce collects inputs and processes the ones that changed. It reports
// only when something was actually done.
func (c *CLI) scanOnce(ctx context.Context, proc *batch.Processor, cfg config.Config, args []string) batch.Summary {
	inputs, err := batch.Collect(args, cfg.Input.Extensions, cfg.Output.Dir)
	if err != nil {
		c.Logger.Error("scan failed", "err", err)
		return batch.Summary{}
	}

	sum := proc.Run(ctx, inputs)
	if done := sum.Total() - sum.Skipped; done > 0 {
		c.Logger.Info("scan complete", "processed", sum.Succeeded-sum.Skipped, "failed", sum.Failed, "total", sum.Total())
	}
	return sum
}
