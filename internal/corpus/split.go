package corpus

import "regexp"

// articleTitlePattern matches the Chinese ordinal enumerator "第...条"
// used to extract a best-effort article title.
var articleTitlePattern = regexp.MustCompile(`第[一二三四五六七八九十百千万零]+条`)

const unknownTitle = "unknown"

// splitChunk is one sliding-window chunk: its window start index into the
// source text and its raw text.
type splitChunk struct {
	Offset int
	Text   string
}

// splitArticle is one line-delimited article: its byte interval into the
// source text (line separators included, so article intervals are
// contiguous and cover [0, len(content))) and its best-effort title.
type splitArticle struct {
	Offset int
	Length int
	Title  string
	Text   string
}

// splitChunks implements step 2: a sliding window of
// chunkSize advancing by chunkSize-chunkOverlap, offsets as the window
// start index, trailing empty windows dropped.
func splitChunks(content string, chunkSize, chunkOverlap int) []splitChunk {
	if len(content) == 0 {
		return nil
	}

	step := chunkSize - chunkOverlap
	var chunks []splitChunk
	for start := 0; start < len(content); start += step {
		end := start + chunkSize
		if end > len(content) {
			end = len(content)
		}
		if end <= start {
			break
		}
		chunks = append(chunks, splitChunk{Offset: start, Text: content[start:end]})
		if end == len(content) {
			break
		}
	}
	return chunks
}

// splitArticles implements step 3: one article per line,
// offsets contiguous across the whole content including the line
// separator, so the union of article intervals equals [0, len(content)).
func splitArticles(content string) []splitArticle {
	var articles []splitArticle
	offset := 0
	for offset < len(content) {
		nl := indexByte(content, offset, '\n')
		var lineEnd int
		if nl == -1 {
			lineEnd = len(content)
		} else {
			lineEnd = nl + 1
		}
		line := content[offset:lineEnd]
		trimmed := trimRightNewline(line)
		if len(trimmed) > 0 {
			title := unknownTitle
			if m := articleTitlePattern.FindString(trimmed); m != "" {
				title = m
			}
			articles = append(articles, splitArticle{
				Offset: offset,
				Length: lineEnd - offset,
				Title:  title,
				Text:   line,
			})
		}
		offset = lineEnd
		if nl == -1 {
			break
		}
	}
	return articles
}

func indexByte(s string, from int, b byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func trimRightNewline(s string) string {
	n := len(s)
	for n > 0 && (s[n-1] == '\n' || s[n-1] == '\r') {
		n--
	}
	return s[:n]
}

// overlaps reports whether interval [cs, ce) intersects [as, ae), per the
// alignment rule in step 6.
func overlaps(cs, ce, as, ae int) bool {
	return !(ce <= as || cs >= ae)
}
