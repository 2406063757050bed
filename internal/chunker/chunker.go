package chunker

import (
	"strings"
)

// separators is the ordered break-point fallback: paragraph break, line break,
// sentence end, word boundary, then a raw character cut.
var separators = []string{"\n\n", "\n", ".", " ", ""}

// Span is one chunk of text with its approximate character range in the input.
type Span struct {
	Text  string
	Start int
	End   int
}

// Split cuts content into overlapping chunks of at most maxChars characters.
// Each chunk prefers to end at the last occurrence of the highest-priority
// separator found inside the window; the next chunk starts overlapChars before
// the previous one ended. Content shorter than maxChars comes back as a single
// chunk. The returned slice is fully materialized.
func Split(content string, maxChars, overlapChars int) []Span {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	contentLen := len(content)

	if contentLen <= maxChars {
		return []Span{{Text: content, Start: 0, End: contentLen}}
	}

	var spans []Span
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		if end < contentLen {
			end = breakPoint(content, start, end)
		}

		text := strings.TrimSpace(content[start:end])
		if text != "" {
			spans = append(spans, Span{Text: text, Start: start, End: end})
		}

		if end >= contentLen {
			break
		}
		next := end - overlapChars
		if next <= start {
			// overlap would stall the window, step forward instead
			next = start + 1
		}
		start = next
	}

	return spans
}

// breakPoint returns the cut position for the window [start, end), preferring
// the last occurrence of the earliest separator in the fallback order. The
// empty separator means cut at end as-is.
func breakPoint(content string, start, end int) int {
	window := content[start:end]
	for _, sep := range separators {
		if sep == "" {
			return end
		}
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return start + idx + len(sep)
		}
	}
	return end
}
