package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a question against the indexed corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := buildApp(configPath)
	if err != nil {
		exitWith(ExitConfigInvalid, err)
	}
	defer func() { _ = a.Close() }()

	answer, err := a.retrieve.AnswerQuestion(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	s := newStyles(os.Stdout, false)

	fmt.Println(answer.Text)
	if answer.Retrieval.LowConfidence {
		fmt.Println(s.warnPrefix(), "low confidence")
	}
	if len(answer.Retrieval.Articles) > 0 {
		fmt.Println(s.sectionHeader("Sources"))
		for _, hit := range answer.Retrieval.Articles {
			fmt.Println(s.kv(hit.Article.ArticleID, fmt.Sprintf("score %.3f", hit.Score)))
		}
	}
	return nil
}
