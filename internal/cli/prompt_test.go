package cli

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in         string
		want       int
		wantNotice string
	}{
		{in: "", want: 240},
		{in: "  ", want: 240},
		{in: "230", want: 230},
		{in: " 205 ", want: 205},
		{in: "150", want: 200, wantNotice: "Threshold clamped to 200"},
		{in: "300", want: 250, wantNotice: "Threshold clamped to 250"},
		{in: "abc", want: 240, wantNotice: "Using default threshold: 240"},
		{in: "23.5", want: 240, wantNotice: "Using default threshold: 240"},
	}

	for _, tt := range tests {
		got, notice := parseThreshold(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, tt.wantNotice, notice, "input %q", tt.in)
	}
}

func TestParseFeather(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"y", "Y", " yes "} {
		assert.True(t, parseFeather(s), s)
	}
	for _, s := range []string{"", "n", "no", "sure"} {
		assert.False(t, parseFeather(s), s)
	}
}

func typeLine(t *testing.T, m tea.Model, line string) (tea.Model, tea.Cmd) {
	t.Helper()
	for _, r := range line {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestPromptModel(t *testing.T) {
	t.Parallel()

	var m tea.Model = newPromptModel()
	assert.Contains(t, m.View(), "White threshold (200-250, default 240)")

	m, cmd := typeLine(t, m, "2300")
	assert.Nil(t, cmd)
	pm := m.(promptModel)
	assert.Equal(t, stepFeather, pm.step)
	assert.Equal(t, 250, pm.threshold)
	assert.Contains(t, m.View(), "Threshold clamped to 250")
	assert.Contains(t, m.View(), "Enable edge feathering")

	m, cmd = typeLine(t, m, "y")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	pm = m.(promptModel)
	assert.Equal(t, stepDone, pm.step)
	assert.True(t, pm.feather)
	assert.False(t, pm.aborted)
}

func TestPromptModel_Backspace(t *testing.T) {
	t.Parallel()

	var m tea.Model = newPromptModel()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("239")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("5")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 235, m.(promptModel).threshold)

	// backspace on empty input is a no-op
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.(promptModel).feather)
}

func TestPromptModel_Abort(t *testing.T) {
	t.Parallel()

	var m tea.Model = newPromptModel()
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.(promptModel).aborted)
}
