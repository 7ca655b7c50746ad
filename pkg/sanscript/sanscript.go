// Package sanscript transliterates Romanized Indic text into native Brahmic
// scripts.
//
// Input is read as ITRANS and rendered to Devanagari first; other scripts are
// produced by shifting Devanagari code points into the parallel Unicode block
// of the target script, with fallbacks for letters the target lacks. Letters
// the ITRANS table does not know are copied through unchanged, so callers can
// detect incomplete conversions by looking for leftover Latin letters.
//
// The package holds no mutable state and is safe for concurrent use.
package sanscript

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Scheme and script identifiers.
const (
	ITRANS     = "itrans"
	Devanagari = "devanagari"
	Bengali    = "bengali"
	Gurmukhi   = "gurmukhi"
	Gujarati   = "gujarati"
	Oriya      = "oriya"
	Tamil      = "tamil"
	Telugu     = "telugu"
	Kannada    = "kannada"
	Malayalam  = "malayalam"
)

var (
	// ErrUnknownScheme is returned for scheme or script names the engine does not support.
	ErrUnknownScheme = errors.New("sanscript: unknown scheme")
	// ErrUnmappable is returned when a character has no rendering in the target script.
	ErrUnmappable = errors.New("sanscript: character not representable in target script")
)

type brahmic struct {
	base  rune
	table *unicode.RangeTable
}

// Every Brahmic block mirrors the Devanagari layout at a fixed offset.
var scripts = map[string]brahmic{
	Devanagari: {0x0900, unicode.Devanagari},
	Bengali:    {0x0980, unicode.Bengali},
	Gurmukhi:   {0x0A00, unicode.Gurmukhi},
	Gujarati:   {0x0A80, unicode.Gujarati},
	Oriya:      {0x0B00, unicode.Oriya},
	Tamil:      {0x0B80, unicode.Tamil},
	Telugu:     {0x0C00, unicode.Telugu},
	Kannada:    {0x0C80, unicode.Kannada},
	Malayalam:  {0x0D00, unicode.Malayalam},
}

// Engine performs scheme-to-script transliteration.
type Engine struct{}

// New returns a transliteration engine.
func New() *Engine {
	return &Engine{}
}

// Supports reports whether the engine can render into the named script.
func Supports(script string) bool {
	_, ok := scripts[strings.ToLower(script)]
	return ok
}

// BlockStart returns the first code point of the named script's Unicode
// block. Every supported block follows the Devanagari layout from there.
func BlockStart(script string) (rune, bool) {
	b, ok := scripts[strings.ToLower(script)]
	return b.base, ok
}

// Transliterate converts text from the given Roman scheme (or from
// Devanagari) into the target script.
func (e *Engine) Transliterate(text, from, to string) (string, error) {
	return Transliterate(text, from, to)
}

// Transliterate is the package-level form of Engine.Transliterate.
func Transliterate(text, from, to string) (string, error) {
	from = strings.ToLower(from)
	to = strings.ToLower(to)

	target, ok := scripts[to]
	if !ok {
		return "", fmt.Errorf("%w: target %q", ErrUnknownScheme, to)
	}

	var deva string
	switch from {
	case ITRANS:
		deva = itransToDevanagari(text)
	case Devanagari:
		deva = text
	default:
		return "", fmt.Errorf("%w: source %q", ErrUnknownScheme, from)
	}

	if to == Devanagari {
		return norm.NFC.String(deva), nil
	}
	return fromDevanagari(deva, target)
}

// fromDevanagari shifts each Devanagari rune into the target block.
func fromDevanagari(deva string, target brahmic) (string, error) {
	var b strings.Builder
	b.Grow(len(deva))

	for _, r := range norm.NFD.String(deva) {
		if err := writeShifted(&b, r, target, 0); err != nil {
			return "", err
		}
	}
	return norm.NFC.String(b.String()), nil
}

func writeShifted(b *strings.Builder, r rune, target brahmic, depth int) error {
	if !unicode.Is(unicode.Devanagari, r) || isSharedPunct(r) {
		b.WriteRune(r)
		return nil
	}

	shifted := target.base + (r - 0x0900)
	if unicode.Is(target.table, shifted) {
		b.WriteRune(shifted)
		return nil
	}

	fallback, ok := fallbacks[r]
	if !ok || depth > 2 {
		return fmt.Errorf("%w: %U", ErrUnmappable, r)
	}
	for _, fr := range fallback {
		if err := writeShifted(b, fr, target, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Danda and double danda are shared by all Indic scripts.
func isSharedPunct(r rune) bool {
	return r == 0x0964 || r == 0x0965
}

// fallbacks substitute Devanagari sequences for letters missing from a
// target block. An empty replacement drops the sign.
var fallbacks = map[rune]string{
	'ख': "क", 'ग': "क", 'घ': "क",
	'छ': "च", 'झ': "ज",
	'ठ': "ट", 'ड': "ट", 'ढ': "ट",
	'थ': "त", 'द': "त", 'ध': "त",
	'फ': "प", 'ब': "प", 'भ': "प",
	'व': "ब",
	'ळ': "ल",
	'श': "ष",
	'ऋ': "रु", 'ृ': "्रु",
	'ॠ': "रू", 'ॄ': "्रू",
	'ऌ': "लु", 'ॢ': "्लु",
	'ँ': "ं",
	'ं': "म्",
	'़': "",
	'ऽ': "",
	'ॐ': "ओम्",
}
