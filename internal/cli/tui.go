package cli

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/netgraph/pkg/pipeline"
)

const (
	progressTick     = 100 * time.Millisecond
	progressBarWidth = 40
)

var (
	styleBarFull  = lipgloss.NewStyle().Foreground(colorCyan)
	styleBarEmpty = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ProgressModel - Live metric run progress
// =============================================================================

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(progressTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ProgressModel is the bubbletea model that polls a running metric pipeline.
// ctrl+c, q and esc cancel the run; the model quits once the run is done.
type ProgressModel struct {
	Handle    *pipeline.Handle
	Title     string
	Fraction  float64
	Label     string
	Cancelled bool
	Done      bool
	Width     int
}

// NewProgressModel creates a progress model for h.
func NewProgressModel(h *pipeline.Handle, title string) ProgressModel {
	return ProgressModel{Handle: h, Title: title, Width: progressBarWidth}
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.Cancelled {
				m.Handle.Cancel()
				m.Cancelled = true
			}
		}
	case tea.WindowSizeMsg:
		m.Width = min(progressBarWidth, max(10, msg.Width-20))
	case tickMsg:
		m.Fraction = m.Handle.Progress()
		m.Label = m.Handle.Label()
		if m.Handle.IsDone() {
			m.Done = true
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.Done {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(progressBar(m.Fraction, m.Width))
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%3.0f%%", m.Fraction*100)))
	if m.Label != "" {
		b.WriteString(" ")
		b.WriteString(StyleDim.Render(m.Label))
	}
	b.WriteString("\n")
	if m.Cancelled {
		b.WriteString(StyleWarning.Render("cancelling after the current calculator..."))
	} else {
		b.WriteString(StyleDim.Render("ctrl+c cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// progressBar draws fraction (clamped to [0, 1]) as a bar of width cells.
func progressBar(fraction float64, width int) string {
	fraction = math.Max(0, math.Min(1, fraction))
	filled := int(math.Round(fraction * float64(width)))
	return styleBarFull.Render(strings.Repeat("█", filled)) +
		styleBarEmpty.Render(strings.Repeat("░", width-filled))
}

// =============================================================================
// Helpers
// =============================================================================

// isTerminal reports whether stderr is an interactive terminal.
func isTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// waitWithProgress shows the progress model until h finishes, then returns
// the run's outcome.
func waitWithProgress(h *pipeline.Handle, title string) (*pipeline.Report, error) {
	p := tea.NewProgram(NewProgressModel(h, title), tea.WithOutput(os.Stderr))
	if _, err := p.Run(); err != nil {
		h.Cancel()
		return nil, fmt.Errorf("progress display: %w", err)
	}
	return h.Wait()
}
