// Package lemma reduces inflected Japanese search queries to the
// dictionary form jisho.org indexes.
package lemma

import (
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token is one analyzed unit of a query.
type Token struct {
	Surface  string // as written, e.g. "行っ"
	BaseForm string // dictionary form, e.g. "行く"
	Reading  string // katakana, e.g. "イッ"
	// POS holds the IPA part-of-speech labels, e.g. ["動詞", "自立", "*", "*"].
	POS []string
}

func (t Token) pos(i int) string {
	if i < len(t.POS) {
		return t.POS[i]
	}
	return ""
}

// Normalizer wraps a kagome tokenizer with the IPA dictionary.
type Normalizer struct {
	t *tokenizer.Tokenizer
}

// New loads the dictionary and creates a Normalizer.
func New() (*Normalizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Normalizer{t: t}, nil
}

// Analyze splits text into tokens, skipping whitespace and unknown padding.
func (n *Normalizer) Analyze(text string) []Token {
	var out []Token
	for _, tok := range n.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY || strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		// IPA features: 0-3 POS, 4 conjugation type, 5 conjugation form,
		// 6 base form, 7 reading, 8 pronunciation.
		features := tok.Features()
		base := tok.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		pos := features
		if len(pos) > 4 {
			pos = pos[:4]
		}
		out = append(out, Token{Surface: tok.Surface, BaseForm: base, Reading: reading, POS: pos})
	}
	return out
}

// Normalize returns the dictionary form of query when it is one
// conjugated verb or adjective (行った, 食べている, 高かった). Any other
// query, including plain nouns, phrases and romaji, is returned trimmed
// but otherwise unchanged.
func (n *Normalizer) Normalize(query string) string {
	q := strings.TrimSpace(query)
	if !hasJapanese(q) {
		return q
	}
	tokens := n.Analyze(q)
	if len(tokens) < 2 {
		return q
	}
	head := tokens[0]
	if head.pos(0) != "動詞" && head.pos(0) != "形容詞" {
		return q
	}
	for _, tok := range tokens[1:] {
		if !isInflection(tok) {
			return q
		}
	}
	return head.BaseForm
}

// isInflection reports whether tok only adds conjugation to the word
// before it: auxiliaries, conjunctive particles and dependent verbs such
// as いる or しまう.
func isInflection(tok Token) bool {
	switch tok.pos(0) {
	case "助動詞":
		return true
	case "助詞":
		return tok.pos(1) == "接続助詞"
	case "動詞":
		return tok.pos(1) == "非自立"
	}
	return false
}

// Reading returns the hiragana reading of text, or "" when any part of it
// has no known reading.
func (n *Normalizer) Reading(text string) string {
	var b strings.Builder
	for _, tok := range n.Analyze(text) {
		if tok.Reading == "" {
			return ""
		}
		b.WriteString(ToHiragana(tok.Reading))
	}
	return b.String()
}

// ToHiragana converts katakana to hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

func hasJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
