package tokenize

import (
	"sort"
	"unicode/utf8"

	"doc-retriever/port"
)

// spansFromOffsets turns token end offsets into contiguous spans covering text.
// Offsets outside (0, len(text)) are ignored, duplicates collapse, and a boundary
// that falls inside a UTF-8 sequence is merged into the following token.
func spansFromOffsets(text string, offsets []int) []port.Span {
	if text == "" {
		return nil
	}

	cuts := make([]int, 0, len(offsets))
	for _, off := range offsets {
		if off <= 0 || off >= len(text) {
			continue
		}
		if !utf8.RuneStart(text[off]) {
			continue
		}
		cuts = append(cuts, off)
	}
	sort.Ints(cuts)

	spans := make([]port.Span, 0, len(cuts)+1)
	start := 0
	for _, cut := range cuts {
		if cut == start {
			continue
		}
		spans = append(spans, port.Span{Start: start, End: cut})
		start = cut
	}
	spans = append(spans, port.Span{Start: start, End: len(text)})
	return spans
}
