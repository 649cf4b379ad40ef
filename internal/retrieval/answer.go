package retrieval

import (
	"context"
	"fmt"
	"strings"

	"ragcore/internal/model"
)

// Answer is the result of AnswerQuestion: the synthesized response text,
// the retrieval result it was built from, and whether the generator step
// ran at all (it is skipped when retrieval finds nothing to ground on).
type Answer struct {
	Text      string
	Retrieval model.RetrievalResult
	Generated bool
}

const noArticlesText = "No relevant documents were found for this question."

const lowConfidenceText = "The most relevant document found has low similarity to this question; " +
	"treat this answer with caution or escalate to a human reviewer."

const answerPromptTemplate = "Answer the user's question using only the context below. " +
	"Respond with a single JSON object of the form " +
	"{\"conclusion\": \"...\", \"reasoning\": \"...\", \"caveats\": [\"...\"]}.\n\n" +
	"Context:\n%s\n\nQuestion: %s"

// AnswerQuestion runs the retrieval pipeline (C6, including the C7
// rewrite) and then synthesizes a final answer from the retrieved
// articles, mirroring the source's RAGService.call_rag_flow /
// generate_answer: retrieve, bail out early on no hits or low
// confidence, otherwise prompt the generator for a structured analysis
// of the retrieved context and fall back to its raw text if that
// analysis isn't itself valid JSON.
func (s *Service) AnswerQuestion(ctx context.Context, question string) (Answer, error) {
	result, err := s.Retrieve(ctx, question)
	if err != nil {
		return Answer{}, err
	}

	if len(result.Articles) == 0 {
		return Answer{Text: noArticlesText, Retrieval: result}, nil
	}
	if result.LowConfidence {
		return Answer{Text: lowConfidenceText, Retrieval: result}, nil
	}

	contextText := buildContext(result.Articles)
	raw, err := s.gen.Generate(ctx, fmt.Sprintf(answerPromptTemplate, contextText, question))
	if err != nil {
		return Answer{}, model.NewError(model.KindBackendError, "generate answer", err)
	}

	text := raw
	if parsed := RobustJSONParse(raw); parsed != nil {
		text = formatAnalysis(parsed, raw)
	}

	return Answer{Text: text, Retrieval: result, Generated: true}, nil
}

func buildContext(hits []model.ArticleHit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Article.Text
	}
	return strings.Join(parts, "\n\n")
}

// formatAnalysis renders the generator's structured analysis into plain
// text. Any missing field falls back to a neutral placeholder rather than
// failing the whole answer, since the analysis is a best-effort layer on
// top of an already-valid retrieval result.
func formatAnalysis(parsed map[string]any, raw string) string {
	conclusion, _ := parsed["conclusion"].(string)
	reasoning, _ := parsed["reasoning"].(string)
	if conclusion == "" && reasoning == "" {
		return raw
	}
	if conclusion == "" {
		conclusion = "no conclusion returned"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Conclusion: %s\n", conclusion)
	if reasoning != "" {
		fmt.Fprintf(&b, "Reasoning: %s\n", reasoning)
	}
	if caveats, ok := parsed["caveats"].([]any); ok && len(caveats) > 0 {
		b.WriteString("Caveats:\n")
		for _, c := range caveats {
			if s, ok := c.(string); ok && s != "" {
				fmt.Fprintf(&b, "- %s\n", s)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
