package textnorm

import (
	"fmt"

	"github.com/dasmlab/lingosense/pkg/profile"
	"github.com/dasmlab/lingosense/pkg/sanscript"
)

// SchemeTransliterator converts text from a Roman input scheme to a native
// script. Implementations may fail or return partial Latin output; both
// are treated as passthrough.
type SchemeTransliterator interface {
	Transliterate(text, fromScheme, toScript string) (string, error)
}

// Outcome records how a token was resolved.
type Outcome int

const (
	// OutcomeLexicon means the token was found in the language's code-mix lexicon.
	OutcomeLexicon Outcome = iota
	// OutcomeTransliterated means the generic transliterator produced native text.
	OutcomeTransliterated
	// OutcomePassthrough means the token was Latin but could not be converted.
	OutcomePassthrough
	// OutcomeNonLatin means the token was not a Latin word and was left alone.
	OutcomeNonLatin
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLexicon:
		return "lexicon"
	case OutcomeTransliterated:
		return "transliterated"
	case OutcomePassthrough:
		return "passthrough"
	case OutcomeNonLatin:
		return "non_latin"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// TokenResult is the native rendering of one input token.
type TokenResult struct {
	Source  string
	Text    string
	Outcome Outcome
	// Err is set when the generic transliterator failed and the token fell
	// back to passthrough.
	Err error
}

// Transliteration is the output of Transliterator.Transliterate.
type Transliteration struct {
	Text   string
	Tokens []TokenResult
	// Phrase is true when a curated phrase replaced word-by-word output.
	Phrase bool
}

// Transliterator renders Romanized tokens in a language's native script:
// lexicon first, then the generic scheme transliterator, then passthrough.
type Transliterator struct {
	engine SchemeTransliterator
}

// NewTransliterator returns a Transliterator backed by engine. A nil engine
// selects the built-in ITRANS engine.
func NewTransliterator(engine SchemeTransliterator) *Transliterator {
	if engine == nil {
		engine = sanscript.New()
	}
	return &Transliterator{engine: engine}
}

// IsLatinWord reports whether s is non-empty and consists only of ASCII letters.
func IsLatinWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

func hasASCIILetter(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' {
			return true
		}
	}
	return false
}

// Token resolves a single token. It never fails: any problem with the
// generic transliterator, including a panic, yields the token unchanged.
func (t *Transliterator) Token(token string, p *profile.LanguageProfile) TokenResult {
	if !IsLatinWord(token) {
		return TokenResult{Source: token, Text: token, Outcome: OutcomeNonLatin}
	}
	if native, ok := p.Lookup(token); ok {
		return TokenResult{Source: token, Text: native, Outcome: OutcomeLexicon}
	}
	if p.SourceScheme() == "" || p.TargetScript() == "" {
		return TokenResult{Source: token, Text: token, Outcome: OutcomePassthrough}
	}

	native, err := t.generic(token, p)
	if err != nil {
		return TokenResult{Source: token, Text: token, Outcome: OutcomePassthrough, Err: err}
	}
	if native == "" || hasASCIILetter(native) {
		return TokenResult{Source: token, Text: token, Outcome: OutcomePassthrough}
	}
	return TokenResult{Source: token, Text: native, Outcome: OutcomeTransliterated}
}

func (t *Transliterator) generic(token string, p *profile.LanguageProfile) (native string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transliterate %q: panic: %v", token, r)
		}
	}()
	return t.engine.Transliterate(token, p.SourceScheme(), p.TargetScript())
}

// Tokens resolves each token in order. The output always has one entry per
// input token.
func (t *Transliterator) Tokens(tokens []Token, p *profile.LanguageProfile) []TokenResult {
	out := make([]TokenResult, len(tokens))
	for i, tok := range tokens {
		out[i] = t.Token(tok.Text, p)
	}
	return out
}

// Transliterate converts a whole Romanized sentence to native script. A
// configured phrase contained in the input takes precedence over word-by-word
// conversion. The profile's cleanup substitutions are applied to the joined
// result.
func (t *Transliterator) Transliterate(text string, p *profile.LanguageProfile) Transliteration {
	if native, ok := p.MatchPhrase(text); ok {
		return Transliteration{
			Text:   CollapseWhitespace(ApplySubstitutions(native, p.Cleanup())),
			Phrase: true,
		}
	}

	results := t.Tokens(Tokenize(text), p)
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Text
	}

	joined := ApplySubstitutions(Join(parts), p.Cleanup())
	return Transliteration{
		Text:   CollapseWhitespace(joined),
		Tokens: results,
	}
}
