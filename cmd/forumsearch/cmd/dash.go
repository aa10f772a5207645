package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/forumsearch/core/internal/store"
)

const dashRefreshInterval = 2 * time.Second

var (
	dashTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dashDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dashErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dashBorder     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func newDashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Live dashboard of index versions, queue depth, and job failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(cmd)
		},
	}
	return cmd
}

type dashTickMsg time.Time

func dashTickCmd() tea.Cmd {
	return tea.Tick(dashRefreshInterval, func(t time.Time) tea.Msg { return dashTickMsg(t) })
}

type dashModel struct {
	st       *store.DB
	spinner  spinner.Model
	report   statusReport
	err      error
	quitting bool
}

func newDashModel(st *store.DB) *dashModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	return &dashModel{st: st, spinner: s}
}

func (m *dashModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, dashTickCmd(), m.refresh())
}

func (m *dashModel) refresh() tea.Cmd {
	return func() tea.Msg {
		report, err := collectStatus(m.st)
		if err != nil {
			return dashErrMsg{err}
		}
		return dashReportMsg{report}
	}
}

type dashReportMsg struct{ report statusReport }
type dashErrMsg struct{ err error }

func (m *dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case dashTickMsg:
		return m, tea.Batch(dashTickCmd(), m.refresh())
	case dashReportMsg:
		m.report = msg.report
		m.err = nil
	case dashErrMsg:
		m.err = msg.err
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *dashModel) View() string {
	if m.quitting {
		return "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), dashTitleStyle.Render("forumsearch dashboard"))

	if m.err != nil {
		fmt.Fprintf(&b, "%s\n", dashErrorStyle.Render(m.err.Error()))
		return dashBorder.Render(b.String())
	}

	fmt.Fprintf(&b, "shards: %d\n\n", m.report.ShardCount)

	b.WriteString(dashTitleStyle.Render("active versions") + "\n")
	if len(m.report.ActiveVersions) == 0 {
		b.WriteString(dashDimStyle.Render("  (none)") + "\n")
	}
	for _, v := range m.report.ActiveVersions {
		fmt.Fprintf(&b, "  %-12s %-16s v%-3d %d docs\n", v.IndexType, v.ShardID, v.Version, v.DocCount)
	}

	b.WriteString("\n" + dashTitleStyle.Render("pending jobs") + "\n")
	for _, jobType := range []string{"crawl", "preprocess", "build_index", "rebuild"} {
		fmt.Fprintf(&b, "  %-12s %d\n", jobType, m.report.PendingByType[jobType])
	}
	fmt.Fprintf(&b, "\nrunning: %d\n", len(m.report.RunningJobs))

	if len(m.report.FailedJobs) > 0 {
		b.WriteString("\n" + dashErrorStyle.Render("recent failures") + "\n")
		for _, j := range m.report.FailedJobs {
			errMsg := ""
			if j.Error != nil {
				errMsg = *j.Error
			}
			fmt.Fprintf(&b, "  #%d %-12s %s\n", j.ID, j.JobType, errMsg)
		}
	}

	b.WriteString("\n" + dashDimStyle.Render("press q to quit"))
	return dashBorder.Render(b.String())
}

func runDash(cmd *cobra.Command) error {
	if !isTerminalWriter(os.Stdout) {
		return fmt.Errorf("dash requires an interactive terminal; use 'forumsearch status' in scripts and pipelines")
	}

	_, st, err := openStoreAndSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	model := newDashModel(st)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// isTerminalWriter reports whether w is a terminal (and not, say, a
// pipe into a log file or CI collector), cygwin terminals included.
func isTerminalWriter(w *os.File) bool {
	return isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
}
