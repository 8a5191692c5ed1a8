package browse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/resumeforge/internal/model"
)

// ErrCancelled is returned by RunLoader when the user presses ctrl+c.
var ErrCancelled = errors.New("cancelled")

// LoadFunc fetches the records to browse.
type LoadFunc func(ctx context.Context) ([]model.Record, error)

type loadedMsg struct {
	records []model.Record
	err     error
}

type loaderModel struct {
	label   string
	load    LoadFunc
	timeout time.Duration
	spinner spinner.Model
	records []model.Record
	err     error
	done    bool
}

func newLoader(label string, load LoadFunc, timeout time.Duration) loaderModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	return loaderModel{label: label, load: load, timeout: timeout, spinner: s}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.spinner.Tick)
}

func (m loaderModel) fetch() tea.Cmd {
	load, timeout := m.load, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		records, err := load(ctx)
		return loadedMsg{records: records, err: err}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.records, m.err, m.done = msg.records, msg.err, true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err, m.done = ErrCancelled, true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s...\n", m.spinner.View(), m.label)
}

// RunLoader shows an inline spinner while load runs.
func RunLoader(label string, load LoadFunc, timeout time.Duration) ([]model.Record, error) {
	result, err := tea.NewProgram(newLoader(label, load, timeout)).Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.records, final.err
}
