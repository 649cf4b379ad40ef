package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragcore/internal/audit"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const refreshInterval = time.Second

type refreshMsg struct {
	files     int
	articles  int
	vectors   int64
	running   bool
	lastFile  string
	errCount  int64
	recentOps []audit.Record
	err       error
}

func pollCmd(ctx context.Context, src Source) tea.Cmd {
	return func() tea.Msg {
		ops, err := src.RecentOperations(ctx, 5)
		stats := src.Stats()
		return refreshMsg{
			files:     len(src.Files()),
			articles:  len(src.Articles()),
			vectors:   src.VectorCount(),
			running:   stats.Running,
			lastFile:  stats.LastFileID,
			errCount:  stats.Errors,
			recentOps: ops,
			err:       err,
		}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return t })
}

// model is the bubbletea Model for `ragcore status`. It never mutates
// anything; every tick it re-polls Source and redraws.
type model struct {
	ctx context.Context
	src Source

	spinner spinner.Model
	table   table.Model

	files, articles int
	vectors         int64
	running         bool
	lastFile        string
	errCount        int64
	pollErr         error

	quitting bool
}

func newModel(ctx context.Context, src Source) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Kind", Width: 8},
			{Title: "File", Width: 16},
			{Title: "Status", Width: 8},
		}),
		table.WithFocused(false),
		table.WithHeight(5),
	)

	return model{ctx: ctx, src: src, spinner: s, table: t}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, pollCmd(m.ctx, m.src), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case time.Time:
		return m, tea.Batch(pollCmd(m.ctx, m.src), tickCmd())
	case refreshMsg:
		m.files, m.articles, m.vectors = msg.files, msg.articles, msg.vectors
		m.running, m.lastFile, m.errCount = msg.running, msg.lastFile, msg.errCount
		m.pollErr = msg.err
		m.table.SetRows(rowsFromOperations(msg.recentOps))
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func rowsFromOperations(ops []audit.Record) []table.Row {
	rows := make([]table.Row, 0, len(ops))
	for _, op := range ops {
		rows = append(rows, table.Row{string(op.Kind), op.Filename, string(op.Status)})
	}
	return rows
}

func (m model) View() string {
	if m.quitting {
		return "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("ragcore status") + "\n\n")

	indicator := dimStyle.Render("idle")
	if m.running {
		indicator = m.spinner.View() + " indexing"
	}
	fmt.Fprintf(&b, "%s  %s\n", dimStyle.Render("state:"), indicator)
	fmt.Fprintf(&b, "%s  %d\n", dimStyle.Render("files:"), m.files)
	fmt.Fprintf(&b, "%s  %d\n", dimStyle.Render("articles:"), m.articles)
	fmt.Fprintf(&b, "%s  %d\n", dimStyle.Render("vectors:"), m.vectors)
	if m.errCount > 0 {
		fmt.Fprintf(&b, "%s  %s\n", dimStyle.Render("errors:"), errStyle.Render(fmt.Sprintf("%d", m.errCount)))
	} else {
		fmt.Fprintf(&b, "%s  %s\n", dimStyle.Render("errors:"), okStyle.Render("0"))
	}
	if m.lastFile != "" {
		fmt.Fprintf(&b, "%s  %s\n", dimStyle.Render("last file:"), m.lastFile)
	}

	b.WriteString("\n" + headerStyle.Render("recent operations") + "\n")
	b.WriteString(m.table.View() + "\n")

	if m.pollErr != nil {
		b.WriteString(errStyle.Render("status poll error: "+m.pollErr.Error()) + "\n")
	}

	b.WriteString(dimStyle.Render("\nq to quit"))
	return b.String()
}
