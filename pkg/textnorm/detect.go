package textnorm

import "github.com/dasmlab/lingosense/pkg/profile"

// DetectCodeMix returns the tokens of text that look like embedded English:
// pure ASCII-letter words, or words the profile's lexicon knows. Order,
// duplicates and casing follow the input. The result never affects
// transliteration.
func DetectCodeMix(text string, p *profile.LanguageProfile) []string {
	found := make([]string, 0)
	for _, tok := range Tokenize(text) {
		if tok.Kind != KindWord {
			continue
		}
		if IsLatinWord(tok.Text) {
			found = append(found, tok.Text)
			continue
		}
		if _, ok := p.Lookup(tok.Text); ok {
			found = append(found, tok.Text)
		}
	}
	return found
}
