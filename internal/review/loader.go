package review

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nejcm/job-scanner/internal/pipeline"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type scanDoneMsg struct {
	result pipeline.Result
	err    error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	scanFn func(ctx context.Context) (pipeline.Result, error)
	frame  int
	result pipeline.Result
	err    error
	done   bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doScan(), m.tick())
}

func (m loaderModel) doScan() tea.Cmd {
	scanFn := m.scanFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		result, err := scanFn(ctx)
		return scanDoneMsg{result: result, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scanDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s Scanning sources...\n", spinner)
}

// RunLoader shows a spinner while the scan runs. It renders inline (no alt
// screen).
func RunLoader(scanFn func(ctx context.Context) (pipeline.Result, error)) (pipeline.Result, error) {
	p := tea.NewProgram(loaderModel{scanFn: scanFn})
	result, err := p.Run()
	if err != nil {
		return pipeline.Result{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
