package tokenize

import (
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"doc-retriever/port"
)

// Kagome splits text into Japanese morphemes using the IPA dictionary.
type Kagome struct {
	t *tokenizer.Tokenizer
}

func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Kagome{t: t}, nil
}

func (k *Kagome) Name() string {
	return "kagome/ipa"
}

func (k *Kagome) Spans(text string) []port.Span {
	tokens := k.t.Tokenize(text)
	offsets := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		offsets = append(offsets, tok.Position)
	}
	return spansFromOffsets(text, offsets)
}

// ContainsJapanese reports whether text has any hiragana, katakana or kanji.
func ContainsJapanese(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}

// LanguageAware routes Japanese text to a morphological tokenizer and
// everything else to the default one.
type LanguageAware struct {
	japanese port.Tokenizer
	fallback port.Tokenizer
}

func NewLanguageAware(japanese, fallback port.Tokenizer) *LanguageAware {
	return &LanguageAware{japanese: japanese, fallback: fallback}
}

func (l *LanguageAware) Name() string {
	return "auto(" + l.japanese.Name() + "," + l.fallback.Name() + ")"
}

func (l *LanguageAware) Spans(text string) []port.Span {
	if ContainsJapanese(text) {
		return l.japanese.Spans(text)
	}
	return l.fallback.Spans(text)
}
