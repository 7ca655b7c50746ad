package textnorm

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dasmlab/lingosense/pkg/sanscript"
)

// ScriptNormalizer regularizes native-script text for a language tag.
// Implementations must be idempotent and safe for concurrent use.
type ScriptNormalizer interface {
	Normalize(text, languageTag string) string
}

// scriptByLanguage maps ISO 639-1 codes to the script the normalizer applies.
var scriptByLanguage = map[string]string{
	"hi": sanscript.Devanagari,
	"mr": sanscript.Devanagari,
	"ne": sanscript.Devanagari,
	"sa": sanscript.Devanagari,
	"bn": sanscript.Bengali,
	"as": sanscript.Bengali,
	"pa": sanscript.Gurmukhi,
	"gu": sanscript.Gujarati,
	"or": sanscript.Oriya,
	"ta": sanscript.Tamil,
	"te": sanscript.Telugu,
	"kn": sanscript.Kannada,
	"ml": sanscript.Malayalam,
}

const (
	offsetVirama = 0x4D
	danda        = "\u0964"
	doubleDanda  = "\u0965"
)

// Consonant + virama + ZWJ is the legacy encoding of a chillu or khanda ta.
var joinerForms = map[string]*strings.Replacer{
	sanscript.Malayalam: strings.NewReplacer(
		"\u0d23\u0d4d\u200d", "\u0d7a",
		"\u0d28\u0d4d\u200d", "\u0d7b",
		"\u0d30\u0d4d\u200d", "\u0d7c",
		"\u0d32\u0d4d\u200d", "\u0d7d",
		"\u0d33\u0d4d\u200d", "\u0d7e",
		"\u0d15\u0d4d\u200d", "\u0d7f",
	),
	sanscript.Bengali: strings.NewReplacer("\u09a4\u09cd\u200d", "\u09ce"),
}

var (
	pipes  = strings.NewReplacer("|", danda)
	dandas = strings.NewReplacer(danda+danda, doubleDanda)
)

// invisible runes carry no content and are dropped before composition.
func invisible(r rune) bool {
	switch r {
	case '\u200b', '\ufeff', '\u00ad':
		return true
	}
	return false
}

func spaces(r rune) rune {
	switch r {
	case '\u00a0', '\u2007', '\u202f':
		return ' '
	}
	return r
}

// transform.Chain keeps state between calls, so each goroutine borrows its own.
var unicodeChains = sync.Pool{
	New: func() any {
		return transform.Chain(
			runes.Remove(runes.Predicate(invisible)),
			runes.Map(spaces),
			norm.NFC,
		)
	},
}

// IndicNormalizer is the default ScriptNormalizer. It composes text to NFC,
// drops invisible format characters and applies per-script orthographic
// rules: legacy joiner sequences become their atomic forms, pipes and
// repeated dandas are folded, and a virama written after an independent
// vowel is removed.
type IndicNormalizer struct{}

// NewIndicNormalizer returns the default script normalizer.
func NewIndicNormalizer() *IndicNormalizer {
	return &IndicNormalizer{}
}

// ScriptFor resolves a language tag ("hi", "hin", "hi-IN", "hin_Deva") to a
// script name. Latin-script and unknown languages return "".
func ScriptFor(languageTag string) string {
	tag := strings.ToLower(strings.TrimSpace(languageTag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	if script, ok := scriptByLanguage[tag]; ok {
		return script
	}
	base, err := language.ParseBase(tag)
	if err != nil {
		return ""
	}
	return scriptByLanguage[base.String()]
}

// Normalize implements ScriptNormalizer.
func (n *IndicNormalizer) Normalize(text, languageTag string) string {
	if text == "" {
		return ""
	}

	chain := unicodeChains.Get().(transform.Transformer)
	out, _, err := transform.String(chain, text)
	unicodeChains.Put(chain)
	if err != nil {
		out = norm.NFC.String(text)
	}

	script := ScriptFor(languageTag)
	if script == "" {
		return out
	}

	if r, ok := joinerForms[script]; ok {
		out = r.Replace(out)
	}
	out = strings.ReplaceAll(out, string(zwj), "")
	out = dandas.Replace(pipes.Replace(out))

	if base, ok := sanscript.BlockStart(script); ok {
		out = dropVowelVirama(out, base)
	}
	return norm.NFC.String(out)
}

func isIndependentVowel(r, base rune) bool {
	off := r - base
	return (off >= 0x05 && off <= 0x14) || off == 0x60 || off == 0x61
}

// dropVowelVirama removes viramas that follow an independent vowel. A virama
// only ever applies to a consonant.
func dropVowelVirama(text string, base rune) string {
	virama := base + offsetVirama
	if !strings.ContainsRune(text, virama) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	var prev rune
	for _, r := range text {
		if r == virama && isIndependentVowel(prev, base) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
