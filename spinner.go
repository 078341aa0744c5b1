package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const spinnerFPS = time.Second / 10

type doneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newSpinnerModel(label string) spinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Spinner{
			Frames: strings.Split("⣾⣽⣻⢿⡿⣟⣯⣷", ""),
			FPS:    spinnerFPS,
		}),
		spinner.WithStyle(stderrRenderer().NewStyle().Foreground(lipgloss.Color("212"))),
	)
	return spinnerModel{spinner: s, label: label}
}

// Init initializes the animation.
func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

// View renders the animation.
func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + stderrStyles().Comment.Render(m.label+"...")
}

// withSpinner runs fn while showing a spinner on stderr. The spinner is
// skipped in quiet mode and when stderr is not a terminal.
func withSpinner[T any](ctx context.Context, quiet bool, label string, fn func(context.Context) (T, error)) (T, error) {
	if quiet || !isErrTTY() {
		return fn(ctx)
	}

	p := tea.NewProgram(
		newSpinnerModel(label),
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	var (
		v    T
		err  error
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		v, err = fn(ctx)
		p.Send(doneMsg{})
	}()

	_, _ = p.Run()
	<-done
	return v, err
}
