// Package batch runs the background remover over many images. Each image is
// decoded, matted and written on its own; a failure is recorded in that
// image's Result and never stops the rest of the batch.
package batch

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/chaos-io/nobg/matte"
	"github.com/chaos-io/nobg/util"
	nhttp "github.com/chaos-io/nobg/util/http"
)

// Result is the outcome of one image.
type Result struct {
	Input   Input
	Output  string
	Err     error
	Skipped bool
	Note    string // why it was skipped
	Elapsed time.Duration
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Summary struct {
	Results   []Result
	Succeeded int
	Skipped   int
	Failed    int
}

func (s Summary) Total() int {
	return len(s.Results)
}

func summarize(results []Result) Summary {
	s := Summary{Results: results}
	for _, r := range results {
		switch {
		case !r.OK():
			s.Failed++
		case r.Skipped:
			s.Succeeded++
			s.Skipped++
		default:
			s.Succeeded++
		}
	}
	return s
}

type Processor struct {
	Pre    *matte.Preprocessor
	OutDir string
	Client nhttp.IClient
	Logger *log.Logger

	// Workers bounds concurrent images; <= 0 means GOMAXPROCS.
	Workers int

	// SkipUpToDate skips local inputs whose output is at least as new.
	SkipUpToDate bool

	// OnResult, if set, is called once per image as it finishes. Calls are
	// serialized.
	OnResult func(Result)
}

func NewProcessor(pre *matte.Preprocessor, outDir string, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{
		Pre:    pre,
		OutDir: outDir,
		Client: nhttp.NewHTTPClient(),
		Logger: logger,
	}
}

// Run processes inputs and returns results in input order.
func (p *Processor) Run(ctx context.Context, inputs []Input) Summary {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(inputs))
	var (
		g    errgroup.Group
		mu   sync.Mutex
		seen = make(map[string]string, len(inputs))
	)
	g.SetLimit(workers)

	report := func(i int, r Result) {
		results[i] = r
		if p.OnResult != nil {
			mu.Lock()
			defer mu.Unlock()
			p.OnResult(r)
		}
	}

	for i, in := range inputs {
		if prev, dup := seen[in.Name]; dup {
			report(i, Result{
				Input:  in,
				Output: p.outputPath(in),
				Err:    fmt.Errorf("output name %q already used by %s", in.Name, prev),
			})
			continue
		}
		seen[in.Name] = in.Location

		g.Go(func() error {
			report(i, p.Process(ctx, in))
			return nil
		})
	}
	_ = g.Wait()

	return summarize(results)
}

func (p *Processor) outputPath(in Input) string {
	return filepath.Join(p.OutDir, in.Name+".png")
}

// Process handles a single input.
func (p *Processor) Process(ctx context.Context, in Input) (res Result) {
	start := time.Now()
	res = Result{Input: in, Output: p.outputPath(in)}
	defer func() {
		res.Elapsed = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	if p.SkipUpToDate && !in.Remote() && upToDate(in.Location, res.Output) {
		res.Skipped = true
		res.Note = "up to date"
		return res
	}

	img, err := p.load(ctx, in)
	if err != nil {
		res.Err = err
		return res
	}

	outcome, err := p.Pre.Process(ctx, img)
	if err != nil {
		res.Err = fmt.Errorf("remove background: %w", err)
		return res
	}
	if outcome.Skipped {
		res.Skipped = true
		res.Note = "already transparent"
	}

	if err := util.WritePNG(res.Output, outcome.Image); err != nil {
		res.Err = fmt.Errorf("write output: %w", err)
		return res
	}

	p.Logger.Debug("processed", "input", in.Location, "output", res.Output, "size", outcome.Image.Bounds().Size(), "elapsed", time.Since(start).Round(time.Millisecond))
	return res
}

func (p *Processor) load(ctx context.Context, in Input) (image.Image, error) {
	if in.Remote() {
		return util.DownloadImage(ctx, p.Client, in.Location, 0)
	}
	return util.OpenImage(in.Location)
}

func upToDate(input, output string) bool {
	in, err := os.Stat(input)
	if err != nil {
		return false
	}
	out, err := os.Stat(output)
	if err != nil {
		return false
	}
	return !out.ModTime().Before(in.ModTime())
}
