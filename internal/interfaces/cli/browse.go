package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
)

// newBrowseCommand opens an interactive picker and runs the chosen command
func newBrowseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Pick a plugin command interactively and run it",
		Long: `Browse the loaded plugins and their commands in the terminal, enter the
arguments and run the command. The picker draws on stderr; command output goes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.container(false)
			if err != nil {
				return err
			}
			defer c.Close()

			plugins := c.Registry.Plugins()
			if len(plugins) == 0 {
				c.Dispatcher.PrintAvailable(cmd.OutOrStdout())
				return nil
			}

			program := tea.NewProgram(newBrowseModel(plugins),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.ErrOrStderr()),
				tea.WithContext(cmd.Context()),
			)
			final, err := program.Run()
			if err != nil {
				return fmt.Errorf("browser failed: %w", err)
			}

			m := final.(browseModel)
			inv, ok := m.Invocation()
			if !ok {
				return nil
			}
			return reported(c.Dispatcher.Dispatch(cmd.Context(), inv, cmd.OutOrStdout()))
		},
	}
}

type browseStage int

const (
	stagePlugin browseStage = iota
	stageCommand
	stageArgs
)

// browseModel walks plugin, then command, then argument entry
type browseModel struct {
	plugins   []ports.Plugin
	stage     browseStage
	cursor    int
	plugin    ports.Plugin
	command   domain.Command
	input     []rune
	done      bool
	cancelled bool
}

func newBrowseModel(plugins []ports.Plugin) browseModel {
	return browseModel{plugins: plugins}
}

// Invocation returns the chosen command once the user confirmed it
func (m browseModel) Invocation() (domain.Invocation, bool) {
	if !m.done || m.cancelled {
		return domain.Invocation{}, false
	}
	return domain.Invocation{
		Plugin:  m.plugin.Name(),
		Command: m.command.Name,
		Args:    splitArgs(string(m.input)),
	}, true
}

// Init implements tea.Model
func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) options() int {
	switch m.stage {
	case stagePlugin:
		return len(m.plugins)
	case stageCommand:
		return m.plugin.Commands().Len()
	}
	return 0
}

// Update implements tea.Model
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyEsc:
		if m.stage == stagePlugin {
			m.cancelled = true
			return m, tea.Quit
		}
		m.stage--
		m.cursor = 0
		m.input = nil
		return m, nil
	case tea.KeyEnter:
		return m.choose()
	}

	if m.stage == stageArgs {
		switch key.Type {
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case tea.KeySpace:
			m.input = append(m.input, ' ')
		case tea.KeyRunes:
			m.input = append(m.input, key.Runes...)
		}
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.options()-1 {
			m.cursor++
		}
	case "q":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m browseModel) choose() (tea.Model, tea.Cmd) {
	switch m.stage {
	case stagePlugin:
		m.plugin = m.plugins[m.cursor]
		m.stage = stageCommand
		m.cursor = 0
		return m, nil
	case stageCommand:
		m.command = m.plugin.Commands().Commands()[m.cursor]
		if len(m.command.Params) == 0 && m.command.MinArgs == 0 {
			m.done = true
			return m, tea.Quit
		}
		m.stage = stageArgs
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

// View implements tea.Model
func (m browseModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var rows []string
	switch m.stage {
	case stagePlugin:
		rows = append(rows, titleStyle.Render("Choose a plugin"))
		for i, plugin := range m.plugins {
			rows = append(rows, m.row(i, fmt.Sprintf("%-10s %s", plugin.Name(), mutedStyle.Render(plugin.Description()))))
		}
	case stageCommand:
		rows = append(rows, titleStyle.Render("Choose a "+m.plugin.Name()+" command"))
		for i, cmd := range m.plugin.Commands().Commands() {
			rows = append(rows, m.row(i, fmt.Sprintf("%-16s %s", cmd.Name, mutedStyle.Render(cmd.Description))))
		}
	case stageArgs:
		usage := m.command.Usage
		if usage == "" {
			usage = m.command.Name
		}
		rows = append(rows,
			titleStyle.Render(fmt.Sprintf("Arguments for %s %s", m.plugin.Name(), m.command.Name)),
			mutedStyle.Render("usage: "+usage),
		)
		for _, param := range m.command.Params {
			line := fmt.Sprintf("  %s  %s", param.Name, param.Description)
			if param.Default != "" {
				line += fmt.Sprintf(" (default %s)", param.Default)
			}
			rows = append(rows, mutedStyle.Render(line))
		}
		rows = append(rows, "> "+string(m.input)+"█")
	}

	rows = append(rows, "", mutedStyle.Render("[↑↓] Navigate | [Enter] Select | [Esc] Back | [Ctrl+C] Quit"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}

func (m browseModel) row(i int, text string) string {
	if i == m.cursor {
		return selectedStyle.Render("› " + text)
	}
	return "  " + text
}

// splitArgs splits on spaces, keeping double-quoted runs together
func splitArgs(s string) []string {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case r == ' ' && !quoted:
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, current.String())
	}
	return args
}
