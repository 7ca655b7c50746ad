// Package textnorm turns Romanized, code-mixed Indian-language text into
// normalized native script. Every function here is pure: no I/O, no logging,
// no shared mutable state.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind distinguishes word runs from single symbols.
type TokenKind int

const (
	// KindWord is a maximal run of word characters.
	KindWord TokenKind = iota
	// KindSymbol is one non-word, non-space rune.
	KindSymbol
)

func (k TokenKind) String() string {
	if k == KindSymbol {
		return "symbol"
	}
	return "word"
}

// Token is one unit of tokenized input.
type Token struct {
	Text string
	Kind TokenKind
}

const (
	zwnj = '\u200c'
	zwj  = '\u200d'
)

// isWordRune reports whether r belongs inside a word token. Combining marks
// and the zero-width joiners count so that native-script words are never
// split.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) ||
		unicode.IsMark(r) ||
		unicode.IsDigit(r) ||
		unicode.Is(unicode.Pc, r) ||
		r == zwnj || r == zwj
}

// Tokenize splits text into word and symbol tokens. Whitespace separates
// tokens and is never itself a token.
func Tokenize(text string) []Token {
	tokens := make([]Token, 0, len(text)/4+1)

	start := -1
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, Token{Text: text[start:end], Kind: KindWord})
			start = -1
		}
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case isWordRune(r):
			if start < 0 {
				start = i
			}
		case unicode.IsSpace(r):
			flush(i)
		default:
			flush(i)
			tokens = append(tokens, Token{Text: text[i : i+size], Kind: KindSymbol})
		}
		i += size
	}
	flush(len(text))

	return tokens
}

// Texts returns the text of each token.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

// Join concatenates token texts with single spaces.
func Join(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, " "))
}
