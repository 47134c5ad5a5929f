package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaos-io/nobg/matte"
)

var errPromptAborted = errors.New("prompt aborted")

type promptStep int

const (
	stepThreshold promptStep = iota
	stepFeather
	stepDone
)

// promptModel asks for the threshold and the feather flag, one line each.
type promptModel struct {
	step      promptStep
	input     []rune
	threshold int
	feather   bool
	notice    string
	aborted   bool
}

func newPromptModel() promptModel {
	return promptModel{threshold: matte.DefaultThreshold}
}

func (m promptModel) Init() tea.Cmd {
	return nil
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.aborted = true
		return m, tea.Quit
	case tea.KeyEnter, tea.KeyCtrlJ:
		return m.submit()
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input = append(m.input, key.Runes...)
	}
	return m, nil
}

func (m promptModel) submit() (tea.Model, tea.Cmd) {
	line := string(m.input)
	m.input = nil

	switch m.step {
	case stepThreshold:
		m.threshold, m.notice = parseThreshold(line)
		m.step = stepFeather
		return m, nil
	case stepFeather:
		m.feather = parseFeather(line)
		m.step = stepDone
		return m, tea.Quit
	}
	return m, nil
}

func (m promptModel) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("=== nobg: white background remover ===") + "\n\n")

	thresholdPrompt := fmt.Sprintf("White threshold (%d-%d, default %d): ", matte.MinThreshold, matte.MaxThreshold, matte.DefaultThreshold)
	if m.step == stepThreshold {
		b.WriteString(thresholdPrompt + string(m.input) + "█\n")
		return b.String()
	}
	b.WriteString(thresholdPrompt + styleNumber.Render(strconv.Itoa(m.threshold)) + "\n")
	if m.notice != "" {
		b.WriteString(styleDim.Render(m.notice) + "\n")
	}

	featherPrompt := "Enable edge feathering for smoother edges? (y/n, default n): "
	if m.step == stepFeather {
		b.WriteString(featherPrompt + string(m.input) + "█\n")
		return b.String()
	}
	answer := "n"
	if m.feather {
		answer = "y"
	}
	b.WriteString(featherPrompt + answer + "\n")
	return b.String()
}

// parseThreshold turns the typed line into a threshold. Empty or invalid
// input falls back to the default; out-of-range values are clamped.
func parseThreshold(s string) (int, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return matte.DefaultThreshold, ""
	}
	t, err := strconv.Atoi(s)
	if err != nil {
		return matte.DefaultThreshold, fmt.Sprintf("Using default threshold: %d", matte.DefaultThreshold)
	}
	if c := matte.ClampThreshold(t); c != t {
		return c, fmt.Sprintf("Threshold clamped to %d", c)
	}
	return t, ""
}

func parseFeather(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

// promptConfig runs the interactive prompt on in/out.
func promptConfig(in io.Reader, out io.Writer) (matte.Config, error) {
	p := tea.NewProgram(newPromptModel(), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return matte.Config{}, fmt.Errorf("prompt: %w", err)
	}

	m := final.(promptModel)
	if m.aborted {
		return matte.Config{}, errPromptAborted
	}
	return matte.Config{Threshold: m.threshold, Feather: m.feather}, nil
}
