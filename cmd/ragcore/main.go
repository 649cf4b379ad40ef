// Command ragcore runs the content-addressed retrieval core: ingest,
// delete, query and serve subcommands over the dual chunk/article vector
// store described in the project's design documents.
package main

import (
	"fmt"
	"os"

	"ragcore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(cli.ExitGenericError)
	}
}
