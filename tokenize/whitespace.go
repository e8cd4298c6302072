package tokenize

import (
	"unicode"

	"doc-retriever/port"
)

// Whitespace treats every run of non-space characters as one token. Whitespace
// after a word belongs to that word; leading whitespace belongs to the first one.
type Whitespace struct{}

func NewWhitespace() *Whitespace {
	return &Whitespace{}
}

func (w *Whitespace) Name() string {
	return "whitespace"
}

func (w *Whitespace) Spans(text string) []port.Span {
	var starts []int
	inSpace := true
	for i, r := range text {
		space := unicode.IsSpace(r)
		if inSpace && !space {
			starts = append(starts, i)
		}
		inSpace = space
	}
	return spansFromOffsets(text, starts)
}
