package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Run renders the status dashboard to w. When w is a terminal, it runs
// the interactive bubbletea program until the user quits; otherwise it
// falls back to a single plain-text summary for non-TTY/CI output.
func Run(ctx context.Context, src Source, w io.Writer) error {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p := tea.NewProgram(newModel(ctx, src), tea.WithContext(ctx), tea.WithOutput(f))
		_, err := p.Run()
		return err
	}
	return printSummary(ctx, src, w)
}

func printSummary(ctx context.Context, src Source, w io.Writer) error {
	stats := src.Stats()
	fmt.Fprintln(w, "Files:", len(src.Files()))
	fmt.Fprintln(w, "Articles:", len(src.Articles()))
	fmt.Fprintln(w, "Vectors:", src.VectorCount())
	fmt.Fprintln(w, "Running:", stats.Running)
	fmt.Fprintln(w, "Errors:", stats.Errors)
	if stats.LastFileID != "" {
		fmt.Fprintln(w, "Last file:", stats.LastFileID)
	}

	ops, err := src.RecentOperations(ctx, 5)
	if err != nil {
		fmt.Fprintln(w, "Recent operations: unavailable:", err)
		return nil
	}
	fmt.Fprintln(w, "Recent operations:")
	for _, op := range ops {
		fmt.Fprintf(w, "  %s %s %s\n", op.Kind, op.Filename, op.Status)
	}
	return nil
}
