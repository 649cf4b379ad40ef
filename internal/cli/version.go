package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	RunE: func(_ *cobra.Command, _ []string) error {
		s := newStyles(os.Stdout, false)
		fmt.Println(s.banner(), version)
		return nil
	},
}
