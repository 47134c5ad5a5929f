package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/chaos-io/nobg/batch"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
)

func printResult(w io.Writer, r batch.Result) {
	name := r.Input.Name
	switch {
	case !r.OK():
		_, _ = fmt.Fprintf(w, "%s %s %s\n", styleError.Render(iconError), name, styleDim.Render(r.Err.Error()))
	case r.Skipped:
		_, _ = fmt.Fprintf(w, "%s %s %s\n", styleSuccess.Render(iconSuccess), name, styleDim.Render("("+r.Note+")"))
	default:
		_, _ = fmt.Fprintf(w, "%s %s\n", styleSuccess.Render(iconSuccess), name)
	}
}

func printSummary(w io.Writer, s batch.Summary, outDir string) {
	counts := fmt.Sprintf("%d/%d", s.Succeeded, s.Total())
	line := fmt.Sprintf("Successfully processed %s images", styleNumber.Render(counts))
	if s.Skipped > 0 {
		line += styleDim.Render(fmt.Sprintf(" (%d skipped)", s.Skipped))
	}

	style := styleSuccess
	if s.Failed > 0 {
		style = styleWarning
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", style.Render(line))
	_, _ = fmt.Fprintf(w, "Output folder: %s\n", outDir)
}

func printWarning(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", styleWarning.Render(iconWarning), msg)
}
