package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ragcore/internal/audit"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a file into the corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	a, err := buildApp(configPath)
	if err != nil {
		exitWith(ExitConfigInvalid, err)
	}
	defer func() { _ = a.Close() }()

	filename := filepath.Base(path)
	fm, ingestErr := a.corpus.AddFile(cmd.Context(), filename, string(content))

	status := audit.StatusOK
	detail := ""
	if ingestErr != nil {
		status, detail = audit.StatusError, ingestErr.Error()
	}
	_ = a.audit.Record(cmd.Context(), audit.KindIngest, fm.FileID, filename, status, detail)

	if ingestErr != nil {
		return ingestErr
	}
	fmt.Printf("ingested %s as %s (%d chunks, %d articles)\n", filename, fm.FileID, fm.ChunkCount, len(fm.ArticleIDs))
	return nil
}
