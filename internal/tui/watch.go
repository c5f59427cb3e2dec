// internal/tui/watch.go
//
// Live view for a generation run. It uses bubbletea, which follows The Elm
// Architecture: the model holds all state, Update reacts to messages, View
// renders the state to a string.
//
// The run itself executes on its own goroutine; this view only polls the
// progress tracker and waits for the final outcome on a channel.

package tui

import (
	"fmt"
	"strings"
	"time"

	pbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/protoloom/protoloom/internal/orchestrator"
	"github.com/protoloom/protoloom/internal/progress"
)

const boardRefreshInterval = 200 * time.Millisecond

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	labelPending   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	labelRunning   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	labelCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	labelFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

// RunOutcome carries the finished run back into the view.
type RunOutcome struct {
	Report orchestrator.Report
	Err    error
}

type boardRefreshMsg struct {
	snapshot progress.Snapshot
}

type runFinishedMsg struct {
	outcome RunOutcome
}

// Model is the watch-mode application model. It holds ALL view state.
type Model struct {
	tracker *progress.Tracker
	outcome <-chan RunOutcome
	cancel  func()

	spin     spinner.Model
	bar      pbar.Model
	snapshot progress.Snapshot
	result   *RunOutcome
	width    int
	quitting bool
}

// NewModel builds a watch model over a running orchestration. cancel is
// invoked when the user asks to stop the run; it may be nil.
func NewModel(tracker *progress.Tracker, outcome <-chan RunOutcome, cancel func()) *Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = labelRunning
	return &Model{
		tracker: tracker,
		outcome: outcome,
		cancel:  cancel,
		spin:    spin,
		bar:     pbar.New(pbar.WithDefaultGradient()),
	}
}

// Init kicks off the refresh loop and the outcome wait.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.refreshBoard(), m.waitForOutcome())
}

// Update is called when a message is received.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = clampWidth(msg.Width-12, 10, 60)
		return m, nil

	case boardRefreshMsg:
		m.snapshot = msg.snapshot
		if m.result != nil {
			return m, nil
		}
		return m, m.scheduleRefresh()

	case runFinishedMsg:
		m.result = &msg.outcome
		m.snapshot = m.tracker.Snapshot()
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.result != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil && m.result == nil {
				m.cancel()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the batch board.
func (m *Model) View() string {
	header := headerStyle.Render("⬡ PROTOLOOM")
	lines := []string{m.renderPhaseLine(), m.renderProgressLine(), ""}
	for _, batch := range m.snapshot.Batches {
		lines = append(lines, m.renderBatchLine(batch))
	}
	body := boxStyle.Render(strings.Join(lines, "\n"))
	sections := []string{header, body}
	if m.result != nil {
		sections = append(sections, renderOutcome(*m.result))
	}
	sections = append(sections, footerStyle.Render("q → stop run    ctrl+c → quit"))
	return strings.Join(sections, "\n")
}

func (m *Model) renderPhaseLine() string {
	phase := friendlyPhase(m.snapshot.Phase)
	if m.result != nil || m.snapshot.Phase == progress.PhaseDone {
		return fmt.Sprintf("Phase: %s", phase)
	}
	return fmt.Sprintf("%sPhase: %s", m.spin.View(), phase)
}

func (m *Model) renderProgressLine() string {
	total := len(m.snapshot.Batches)
	if total == 0 {
		return detailStyle.Render("Waiting for the batch plan…")
	}
	done := m.snapshot.CompletedBatches()
	pct := float64(done) / float64(total)
	return fmt.Sprintf("%s  %d/%d batches", m.bar.ViewAs(pct), done, total)
}

func (m *Model) renderBatchLine(batch progress.BatchStatus) string {
	label := batchLabel(batch.State)
	tasks := strings.Join(batch.TaskIDs, ", ")
	if tasks == "" {
		tasks = "(empty)"
	}
	return fmt.Sprintf("Batch %d/%d · [%s] · %s", batch.Index, batch.Total, label, detailStyle.Render(tasks))
}

func batchLabel(state progress.BatchState) string {
	switch state {
	case progress.BatchInProgress:
		return labelRunning.Render("Running")
	case progress.BatchCompleted:
		return labelCompleted.Render("Completed")
	default:
		return labelPending.Render("Pending")
	}
}

func renderOutcome(outcome RunOutcome) string {
	if outcome.Err != nil {
		return labelFailed.Render(fmt.Sprintf("Run aborted: %v", outcome.Err))
	}
	report := outcome.Report
	line := fmt.Sprintf("Run %s finished: %s", report.Record.RunID, report.Record.Status)
	style := labelCompleted
	if report.Cancelled || len(report.FailedTasks) > 0 {
		style = labelFailed
	}
	if len(report.FailedTasks) > 0 {
		line += fmt.Sprintf(" · failed: %s", strings.Join(report.FailedTasks, ", "))
	}
	return style.Render(line)
}

func friendlyPhase(phase progress.Phase) string {
	switch phase {
	case progress.PhaseResolving:
		return "Resolving token sources"
	case progress.PhaseGenerating:
		return "Generating prototypes"
	case progress.PhaseVerifying:
		return "Verifying artifacts"
	case progress.PhaseDone:
		return "Done"
	default:
		return string(phase)
	}
}

func (m *Model) refreshBoard() tea.Cmd {
	return func() tea.Msg {
		return boardRefreshMsg{snapshot: m.tracker.Snapshot()}
	}
}

func (m *Model) scheduleRefresh() tea.Cmd {
	return tea.Tick(boardRefreshInterval, func(time.Time) tea.Msg {
		return boardRefreshMsg{snapshot: m.tracker.Snapshot()}
	})
}

func (m *Model) waitForOutcome() tea.Cmd {
	if m.outcome == nil {
		return nil
	}
	return func() tea.Msg {
		return runFinishedMsg{outcome: <-m.outcome}
	}
}

func clampWidth(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
