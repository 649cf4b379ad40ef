package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragcore/internal/audit"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <file_id>",
	Short: "Delete a file and rebuild affected indexes",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	fileID := args[0]

	a, err := buildApp(configPath)
	if err != nil {
		exitWith(ExitConfigInvalid, err)
	}
	defer func() { _ = a.Close() }()

	deleteErr := a.corpus.DeleteFile(cmd.Context(), fileID)

	status := audit.StatusOK
	detail := ""
	if deleteErr != nil {
		status, detail = audit.StatusError, deleteErr.Error()
	}
	_ = a.audit.Record(cmd.Context(), audit.KindDelete, fileID, "", status, detail)

	if deleteErr != nil {
		return deleteErr
	}
	fmt.Printf("deleted %s\n", fileID)
	return nil
}
