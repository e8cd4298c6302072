package tokenize

import (
	"fmt"
	"strings"

	"doc-retriever/port"
)

// Tokenizer kinds accepted by New.
const (
	KindTiktoken   = "tiktoken"
	KindKagome     = "kagome"
	KindWhitespace = "whitespace"
	KindAuto       = "auto"
)

// New builds the tokenizer named by kind. encoding only applies to tiktoken-backed kinds.
func New(kind, encoding string) (port.Tokenizer, error) {
	switch strings.ToLower(kind) {
	case "", KindTiktoken:
		return NewTiktoken(encoding)
	case KindKagome:
		return NewKagome()
	case KindWhitespace:
		return NewWhitespace(), nil
	case KindAuto:
		ja, err := NewKagome()
		if err != nil {
			return nil, err
		}
		fallback, err := NewTiktoken(encoding)
		if err != nil {
			return nil, err
		}
		return NewLanguageAware(ja, fallback), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer kind: %q", kind)
	}
}
