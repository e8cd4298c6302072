package port

// Span is a half-open byte range [Start, End) of one token in a text.
type Span struct {
	Start int
	End   int
}

// Tokenizer splits text into contiguous spans. The spans of a non-empty text
// start at 0, end at len(text), and leave no gaps: span[i].End == span[i+1].Start.
type Tokenizer interface {
	Name() string
	Spans(text string) []Span
}
