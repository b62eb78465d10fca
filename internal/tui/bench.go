// Package tui shows bench progress in a Bubble Tea program.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/pointmass/internal/bench"
	"github.com/san-kum/pointmass/internal/viz"
)

const recentRows = 8

type progressMsg bench.Progress

type doneMsg struct {
	report *bench.Report
	err    error
}

type model struct {
	progress <-chan bench.Progress
	done     <-chan doneMsg
	cancel   context.CancelFunc

	total    int
	results  []bench.Result
	report   *bench.Report
	err      error
	start    time.Time
	width    int
	quitting bool
}

func newModel(total int, progress <-chan bench.Progress, done <-chan doneMsg, cancel context.CancelFunc) model {
	return model{
		progress: progress,
		done:     done,
		cancel:   cancel,
		total:    total,
		start:    time.Now(),
		width:    60,
	}
}

// RunBench runs the bench in the background and renders its progress until
// it finishes. q or ctrl+c cancels between cases; the partial report is
// returned with the cancellation error.
func RunBench(ctx context.Context, runner *bench.Runner) (*bench.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := make(chan bench.Progress)
	done := make(chan doneMsg, 1)
	go func() {
		report, err := runner.Run(ctx, progress)
		done <- doneMsg{report: report, err: err}
	}()

	m := newModel(len(runner.Sizes)*len(runner.Strategies), progress, done, cancel)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		cancel()
		<-done
		return nil, err
	}

	fm := final.(model)
	return fm.report, fm.err
}

func (m model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		if p, ok := <-m.progress; ok {
			return progressMsg(p)
		}
		return <-m.done
	}
}

func (m model) Init() tea.Cmd { return m.waitForEvent() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case progressMsg:
		m.total = msg.Total
		m.results = append(m.results, msg.Result)
		return m, m.waitForEvent()

	case doneMsg:
		m.report, m.err = msg.report, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(viz.Title.Render("pointmass bench") + "\n\n")

	pct := 0.0
	if m.total > 0 {
		pct = float64(len(m.results)) / float64(m.total)
	}
	barWidth := max(min(m.width-20, 50), 10)
	fmt.Fprintf(&b, "%s %d/%d  %s\n\n",
		viz.ProgressBar(pct, barWidth),
		len(m.results), m.total,
		viz.Subtle.Render(time.Since(m.start).Round(time.Millisecond).String()),
	)

	first := max(len(m.results)-recentRows, 0)
	for _, r := range m.results[first:] {
		fmt.Fprintf(&b, "%s %s %s\n",
			viz.MetricLabel.Render(fmt.Sprintf("%-10s n=%-6d", r.Strategy, r.Bodies)),
			viz.MetricValue.Render(fmt.Sprintf("%12.0f ns/op", r.MeanNs)),
			viz.Subtle.Render(fmt.Sprintf("± %.0f", r.StdDevNs)),
		)
	}

	if spark := m.sparklines(); spark != "" {
		b.WriteString("\n" + spark)
	}

	if m.quitting {
		b.WriteString("\n" + viz.StatusFail.Render("cancelling after current case...") + "\n")
	} else {
		b.WriteString("\n" + viz.KeyHint.Render("q to cancel") + "\n")
	}
	return b.String()
}

// sparklines draws ns/op growth per strategy across the finished sizes.
func (m model) sparklines() string {
	report := bench.Report{Results: m.results}
	var b strings.Builder
	for _, s := range report.Strategies() {
		_, mean := report.Series(s)
		if len(mean) < 2 {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", viz.MetricLabel.Render(fmt.Sprintf("%-10s", s)), viz.Sparkline(mean))
	}
	return b.String()
}
