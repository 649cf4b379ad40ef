package cli

import (
	"os"

	"github.com/spf13/cobra"

	"ragcore/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus size and recent ingest/delete activity",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(configPath)
	if err != nil {
		exitWith(ExitConfigInvalid, err)
	}
	defer func() { _ = a.Close() }()

	src := tui.CorpusSource{
		Meta:  a.meta,
		Index: a.index,
		Stat:  a.corpus.Stats(),
		Audit: a.audit,
	}
	return tui.Run(cmd.Context(), src, os.Stdout)
}
