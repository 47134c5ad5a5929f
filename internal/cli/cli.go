// Package cli implements the nobg command-line interface.
//
// # Commands
//
//   - run: remove the background from every image in a directory (or from the
//     given files and URLs) once
//   - watch: like run, repeated on a cron schedule, skipping images whose
//     output is already up to date
//   - serve: HTTP API around the same pipeline
//
// Settings come from flags, then the --config TOML file, then defaults.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chaos-io/nobg/config"
	"github.com/chaos-io/nobg/matte"
)

// Version is set via -ldflags "-X github.com/chaos-io/nobg/internal/cli.Version=...".
var Version = "dev"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	in         io.Reader
	out        io.Writer
	configPath string
}

// New creates a CLI that reads prompts from in, writes reports to out and
// logs to logw.
func New(in io.Reader, out, logw io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(logw, level),
		in:     in,
		out:    out,
	}
}

func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "nobg",
		Short:        "nobg removes white backgrounds from images",
		Long:         `nobg turns images shot on a white or near-white background into PNGs with a transparent background, optionally feathering the edges.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to a TOML config file")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())

	return root
}

// processFlags are shared by run and watch.
type processFlags struct {
	threshold       int
	feather         bool
	outDir          string
	workers         int
	exts            []string
	maxSize         int
	trim            bool
	skipTransparent bool
}

func addMatteFlags(cmd *cobra.Command, threshold *int, feather *bool) {
	cmd.Flags().IntVarP(threshold, "threshold", "t", matte.DefaultThreshold,
		fmt.Sprintf("white threshold, clamped to %d-%d", matte.MinThreshold, matte.MaxThreshold))
	cmd.Flags().BoolVarP(feather, "feather", "f", false, "feather edge pixels for smoother cutouts")
}

func addProcessFlags(cmd *cobra.Command, f *processFlags) {
	addMatteFlags(cmd, &f.threshold, &f.feather)
	cmd.Flags().StringVarP(&f.outDir, "out", "o", config.DefaultOutputDir, "output directory")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "images processed at once (0 = one per CPU)")
	cmd.Flags().StringSliceVar(&f.exts, "ext", []string{".png"}, "file extensions picked up when scanning a directory")
	cmd.Flags().IntVar(&f.maxSize, "max-size", 0, "scale images down so the longest side is at most this many pixels (0 = off)")
	cmd.Flags().BoolVar(&f.trim, "trim", false, "crop output to the visible subject")
	cmd.Flags().BoolVar(&f.skipTransparent, "skip-transparent", false, "copy images that already have transparency unchanged")
}

// loadConfig reads the config file and lays explicitly set flags over it.
func (c *CLI) loadConfig(cmd *cobra.Command, f *processFlags) (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.Threshold = f.threshold
	}
	if flags.Changed("feather") {
		cfg.Feather = f.feather
	}
	if flags.Changed("out") {
		cfg.Output.Dir = f.outDir
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("ext") {
		cfg.Input.Extensions = f.exts
	}
	if flags.Changed("max-size") {
		cfg.Output.MaxSize = f.maxSize
	}
	if flags.Changed("trim") {
		cfg.Output.Trim = f.trim
	}
	if flags.Changed("skip-transparent") {
		cfg.Output.SkipTransparent = f.skipTransparent
	}

	cfg.Normalize()
	return cfg, cfg.Validate()
}
