// Package retrieval implements the retrieval pipeline (C6) and the query
// rewriter (C7), grounded in the source's RAGService.rewrite_query /
// retrieve / generate_answer and core.parser.robust_json_parser.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ragcore/internal/model"
)

// ChatParams groups the LLM sampling parameters. RewriteQuery and
// AnswerQuestion do not read it: their generator calls run with whatever
// sampling settings the model.Generator itself was configured with.
type ChatParams struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

const rewritePromptTemplate = "Extract the core search intent from the following user question. " +
	"Respond with a single JSON object of the form {\"search_words\": \"...\"}.\n\nQuestion: %s"

// RewriteQuery invokes the generator with a low-temperature prompt and
// robustly extracts a JSON object from its free-form response. On any
// failure (generator error, unrecoverable JSON) it falls back to the
// original text as search_words.
func RewriteQuery(ctx context.Context, gen model.Generator, userText string) model.RewriteResult {
	fallback := model.RewriteResult{SearchWords: userText}
	if gen == nil {
		return fallback
	}

	raw, err := gen.Generate(ctx, fmt.Sprintf(rewritePromptTemplate, userText))
	if err != nil {
		return fallback
	}

	parsed := RobustJSONParse(raw)
	if parsed == nil {
		return fallback
	}

	words, ok := parsed["search_words"].(string)
	if !ok || strings.TrimSpace(words) == "" {
		words = userText
	}
	return model.RewriteResult{SearchWords: words, Raw: parsed}
}

// RobustJSONParse implements JSON recovery:
//  1. strip whitespace and fenced-code-block markers (wherever they occur,
//     not only at the string's extreme ends);
//  2. try a strict parse of the cleaned text, prepending '{' first if the
//     text doesn't already start with one;
//  3. on failure, scan the *cleaned, pre-prepend* text for the first '{'
//     and last '}' and retry with literal newlines escaped as \n;
//  4. on all failures, return nil; the caller treats this as "no rewrite".
func RobustJSONParse(raw string) map[string]any {
	if raw == "" {
		return nil
	}

	clean := strings.TrimSpace(stripCodeFences(raw))
	if clean == "" {
		return nil
	}

	candidate := clean
	if !strings.HasPrefix(candidate, "{") {
		candidate = "{" + candidate
	}
	if obj, ok := tryParseObject(candidate); ok {
		return obj
	}

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start == -1 || end == -1 || end < start {
		return nil
	}
	scanned := strings.ReplaceAll(clean[start:end+1], "\n", "\\n")
	if obj, ok := tryParseObject(scanned); ok {
		return obj
	}

	return nil
}

func tryParseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// stripCodeFences removes ```json and ``` fence markers wherever they
// occur in the text, leaving any surrounding prose in place.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return s
}
