package tokenize

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"doc-retriever/port"
)

// DefaultEncoding is the GPT-2 byte-pair encoding.
const DefaultEncoding = "r50k_base"

var loaderOnce sync.Once

// Tiktoken tokenizes with an OpenAI byte-pair encoding. Encodings are loaded
// from the embedded offline loader, never from the network.
type Tiktoken struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{encoding: encoding, enc: enc}, nil
}

func (t *Tiktoken) Name() string {
	return "tiktoken/" + t.encoding
}

func (t *Tiktoken) Spans(text string) []port.Span {
	ids := t.enc.Encode(text, nil, nil)
	offsets := make([]int, 0, len(ids))
	pos := 0
	for _, id := range ids {
		pos += len(t.enc.Decode([]int{id}))
		offsets = append(offsets, pos)
	}
	return spansFromOffsets(text, offsets)
}
