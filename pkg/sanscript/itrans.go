package sanscript

import "strings"

type itransKind int

const (
	kindVowel itransKind = iota
	kindConsonant
	kindMark
)

type itransEntry struct {
	kind itransKind
	// text is the independent form for vowels and the glyph for consonants and marks.
	text string
	// sign is the dependent vowel sign; empty for the inherent "a".
	sign string
}

const virama = "्"

// ITRANS is case-sensitive: "T" is retroflex, "t" dental.
var itransTable = map[string]itransEntry{
	"a":   {kindVowel, "अ", ""},
	"aa":  {kindVowel, "आ", "ा"},
	"A":   {kindVowel, "आ", "ा"},
	"i":   {kindVowel, "इ", "ि"},
	"ii":  {kindVowel, "ई", "ी"},
	"I":   {kindVowel, "ई", "ी"},
	"ee":  {kindVowel, "ई", "ी"},
	"u":   {kindVowel, "उ", "ु"},
	"uu":  {kindVowel, "ऊ", "ू"},
	"U":   {kindVowel, "ऊ", "ू"},
	"oo":  {kindVowel, "ऊ", "ू"},
	"RRi": {kindVowel, "ऋ", "ृ"},
	"R^i": {kindVowel, "ऋ", "ृ"},
	"RRI": {kindVowel, "ॠ", "ॄ"},
	"R^I": {kindVowel, "ॠ", "ॄ"},
	"LLi": {kindVowel, "ऌ", "ॢ"},
	"L^i": {kindVowel, "ऌ", "ॢ"},
	"e":   {kindVowel, "ए", "े"},
	"ai":  {kindVowel, "ऐ", "ै"},
	"o":   {kindVowel, "ओ", "ो"},
	"au":  {kindVowel, "औ", "ौ"},

	"k":   {kindConsonant, "क", ""},
	"kh":  {kindConsonant, "ख", ""},
	"g":   {kindConsonant, "ग", ""},
	"gh":  {kindConsonant, "घ", ""},
	"~N":  {kindConsonant, "ङ", ""},
	"c":   {kindConsonant, "च", ""},
	"ch":  {kindConsonant, "च", ""},
	"Ch":  {kindConsonant, "छ", ""},
	"chh": {kindConsonant, "छ", ""},
	"j":   {kindConsonant, "ज", ""},
	"jh":  {kindConsonant, "झ", ""},
	"~n":  {kindConsonant, "ञ", ""},
	"T":   {kindConsonant, "ट", ""},
	"Th":  {kindConsonant, "ठ", ""},
	"D":   {kindConsonant, "ड", ""},
	"Dh":  {kindConsonant, "ढ", ""},
	"N":   {kindConsonant, "ण", ""},
	"t":   {kindConsonant, "त", ""},
	"th":  {kindConsonant, "थ", ""},
	"d":   {kindConsonant, "द", ""},
	"dh":  {kindConsonant, "ध", ""},
	"n":   {kindConsonant, "न", ""},
	"p":   {kindConsonant, "प", ""},
	"ph":  {kindConsonant, "फ", ""},
	"b":   {kindConsonant, "ब", ""},
	"bh":  {kindConsonant, "भ", ""},
	"m":   {kindConsonant, "म", ""},
	"y":   {kindConsonant, "य", ""},
	"r":   {kindConsonant, "र", ""},
	"l":   {kindConsonant, "ल", ""},
	"v":   {kindConsonant, "व", ""},
	"w":   {kindConsonant, "व", ""},
	"sh":  {kindConsonant, "श", ""},
	"Sh":  {kindConsonant, "ष", ""},
	"shh": {kindConsonant, "ष", ""},
	"s":   {kindConsonant, "स", ""},
	"h":   {kindConsonant, "ह", ""},
	"L":   {kindConsonant, "ळ", ""},
	"x":   {kindConsonant, "क्ष", ""},
	"kSh": {kindConsonant, "क्ष", ""},
	"GY":  {kindConsonant, "ज्ञ", ""},
	"j~n": {kindConsonant, "ज्ञ", ""},
	"q":   {kindConsonant, "क़", ""},
	"K":   {kindConsonant, "ख़", ""},
	"G":   {kindConsonant, "ग़", ""},
	"z":   {kindConsonant, "ज़", ""},
	"f":   {kindConsonant, "फ़", ""},
	"Y":   {kindConsonant, "य़", ""},
	".D":  {kindConsonant, "ड़", ""},
	".Dh": {kindConsonant, "ढ़", ""},

	"M":  {kindMark, "ं", ""},
	".n": {kindMark, "ं", ""},
	".m": {kindMark, "ं", ""},
	".N": {kindMark, "ँ", ""},
	"H":  {kindMark, "ः", ""},
	".a": {kindMark, "ऽ", ""},
	"OM": {kindMark, "ॐ", ""},
}

const maxITRANSToken = 3

// itransToDevanagari parses ITRANS greedily, longest token first. A
// consonant not followed by a vowel gets an explicit virama, including at the
// end of the text. Unknown characters are copied through.
func itransToDevanagari(text string) string {
	var b strings.Builder
	b.Grow(len(text) * 3)

	pendingConsonant := false
	for i := 0; i < len(text); {
		entry, n := matchITRANS(text[i:])
		if n == 0 {
			if pendingConsonant {
				b.WriteString(virama)
				pendingConsonant = false
			}
			b.WriteByte(text[i])
			i++
			continue
		}
		i += n

		switch entry.kind {
		case kindVowel:
			if pendingConsonant {
				b.WriteString(entry.sign)
			} else {
				b.WriteString(entry.text)
			}
			pendingConsonant = false
		case kindConsonant:
			if pendingConsonant {
				b.WriteString(virama)
			}
			b.WriteString(entry.text)
			pendingConsonant = true
		case kindMark:
			b.WriteString(entry.text)
			pendingConsonant = false
		}
	}
	if pendingConsonant {
		b.WriteString(virama)
	}
	return b.String()
}

func matchITRANS(s string) (itransEntry, int) {
	for n := maxITRANSToken; n > 0; n-- {
		if n > len(s) {
			continue
		}
		if entry, ok := itransTable[s[:n]]; ok {
			return entry, n
		}
	}
	return itransEntry{}, 0
}
