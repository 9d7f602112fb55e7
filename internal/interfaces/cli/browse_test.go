package cli

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fetcher.dev/cli/internal/core/ports"
	"fetcher.dev/cli/internal/plugins/pluginkit"
)

func press(t *testing.T, m browseModel, keys ...tea.KeyMsg) browseModel {
	t.Helper()
	for _, key := range keys {
		next, _ := m.Update(key)
		m = next.(browseModel)
	}
	return m
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace}
)

func browsePlugins(t *testing.T) []ports.Plugin {
	t.Helper()
	echo, err := echoFactory(pluginkit.Deps{})
	require.NoError(t, err)
	return []ports.Plugin{echo}
}

func TestBrowseModel_SelectsCommandWithArgs(t *testing.T) {
	m := newBrowseModel(browsePlugins(t))

	m = press(t, m, enter, down, enter)
	assert.Equal(t, stageArgs, m.stage)
	assert.Contains(t, m.View(), "Arguments for echo say")

	m = press(t, m, typed("hello"), space, typed(`"big world"`), enter)

	inv, ok := m.Invocation()
	require.True(t, ok)
	assert.Equal(t, "echo", inv.Plugin)
	assert.Equal(t, "say", inv.Command)
	assert.Equal(t, []string{"hello", "big world"}, inv.Args)
}

func TestBrowseModel_CommandWithoutArgsRunsImmediately(t *testing.T) {
	m := press(t, newBrowseModel(browsePlugins(t)), enter, enter)

	inv, ok := m.Invocation()
	require.True(t, ok)
	assert.Equal(t, "test", inv.Command)
	assert.Empty(t, inv.Args)
}

func TestBrowseModel_EscapeGoesBackThenQuits(t *testing.T) {
	m := press(t, newBrowseModel(browsePlugins(t)), enter, esc)
	assert.Equal(t, stagePlugin, m.stage)

	m = press(t, m, esc)
	_, ok := m.Invocation()
	assert.False(t, ok)
	assert.True(t, m.cancelled)
}

func TestBrowseModel_CursorStaysInRange(t *testing.T) {
	m := press(t, newBrowseModel(browsePlugins(t)), down, down, down)
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, enter, down, down, down)
	assert.Equal(t, 1, m.cursor)
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a b  c", []string{"a", "b", "c"}},
		{`owner/repo "fix the bug" 3`, []string{"owner/repo", "fix the bug", "3"}},
		{`""`, []string{""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitArgs(tt.in), tt.in)
	}
}
