package retrieval

import (
	"context"
	"errors"
	"testing"

	"ragcore/internal/model"
)

type stubGenerator struct {
	out string
	err error
}

func (s stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	return s.out, s.err
}

func TestRobustJSONParsePlainObject(t *testing.T) {
	got := RobustJSONParse(`{"search_words": "contract formation"}`)
	if got == nil || got["search_words"] != "contract formation" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestRobustJSONParseMissingLeadingBrace(t *testing.T) {
	got := RobustJSONParse(`"search_words": "contract formation"}`)
	if got == nil || got["search_words"] != "contract formation" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestRobustJSONParseFencedWithSurroundingProse(t *testing.T) {
	raw := "foo ```json\n{\"a\":1}\n``` bar"
	got := RobustJSONParse(raw)
	if got == nil {
		t.Fatalf("expected a parsed object, got nil")
	}
	if v, ok := got["a"].(float64); !ok || v != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestRobustJSONParseNoJSONReturnsNil(t *testing.T) {
	if got := RobustJSONParse("no json here"); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestRobustJSONParseEmptyReturnsNil(t *testing.T) {
	if got := RobustJSONParse(""); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestRewriteQueryFallsBackOnGeneratorError(t *testing.T) {
	result := RewriteQuery(context.Background(), stubGenerator{err: errors.New("boom")}, "original text")
	if result.SearchWords != "original text" {
		t.Fatalf("expected fallback to original text, got %q", result.SearchWords)
	}
}

func TestRewriteQueryFallsBackOnNilGenerator(t *testing.T) {
	result := RewriteQuery(context.Background(), nil, "original text")
	if result.SearchWords != "original text" {
		t.Fatalf("expected fallback to original text, got %q", result.SearchWords)
	}
}

func TestRewriteQueryUsesParsedSearchWords(t *testing.T) {
	gen := stubGenerator{out: `{"search_words": "rewritten intent"}`}
	result := RewriteQuery(context.Background(), gen, "original text")
	if result.SearchWords != "rewritten intent" {
		t.Fatalf("expected rewritten search words, got %q", result.SearchWords)
	}
	if result.Raw["search_words"] != "rewritten intent" {
		t.Fatalf("expected Raw to retain the parsed object, got %+v", result.Raw)
	}
}

func TestRewriteQueryFallsBackOnUnparsableOutput(t *testing.T) {
	result := RewriteQuery(context.Background(), stubGenerator{out: "no json here"}, "original text")
	if result.SearchWords != "original text" {
		t.Fatalf("expected fallback to original text, got %q", result.SearchWords)
	}
}

var _ model.Generator = stubGenerator{}
