package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes: a small fixed set of documented process exit statuses
// rather than bare 1/0.
const (
	ExitSuccess       = 0
	ExitGenericError  = 1
	ExitConfigInvalid = 2
	ExitBackendError  = 3
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Content-addressed retrieval core for RAG applications",
	Long:  "ragcore indexes files into a dual chunk/article vector store and serves retrieval-augmented chat over HTTP.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ragcore.yaml", "config file path (YAML or TOML by extension)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func exitWith(code int, err error) {
	s := newStyles(os.Stderr, false)
	fmt.Fprintln(os.Stderr, s.errPrefix(), err)
	os.Exit(code)
}
