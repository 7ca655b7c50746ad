// Package profile holds the per-language configuration that drives the
// text-normalization pipeline: code-mix lexicons, script identifiers,
// translation model tags and corrective substitutions.
//
// A LanguageProfile is immutable once built. All accessors return copies or
// read-only views, so a profile can be shared across goroutines freely.
package profile

import (
	"fmt"
	"strings"
	"unicode"
)

// Substitution is a literal replacement applied to native-script text. By
// default it matches anywhere in the string; WholeWord restricts it to
// whitespace-delimited words.
type Substitution struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	WholeWord bool   `yaml:"whole_word"`
}

// Phrase maps a whole Romanized phrase to a curated native-script rendering.
type Phrase struct {
	Roman  string `yaml:"roman"`
	Native string `yaml:"native"`
}

// Config is the static, serializable description of a language.
// It is the shape used in profiles.yaml.
type Config struct {
	// Name is the human identifier, e.g. "hindi".
	Name string `yaml:"name"`
	// Code is the ISO 639-1 code, e.g. "hi".
	Code string `yaml:"code"`
	// ModelTag is the language tag understood by the translation model, e.g. "hin_Deva".
	ModelTag string `yaml:"model_tag"`
	// SourceScheme is the Roman input scheme for generic transliteration, e.g. "itrans".
	SourceScheme string `yaml:"source_scheme"`
	// TargetScript is the native script for generic transliteration, e.g. "devanagari".
	TargetScript string `yaml:"target_script"`
	// Normalizer selects the script normalization rules, e.g. "hi".
	Normalizer string `yaml:"normalizer"`
	// Lexicon maps lowercase Romanized words to native-script words.
	Lexicon map[string]string `yaml:"lexicon"`
	// Cleanup is applied to transliterator output before normalization.
	Cleanup []Substitution `yaml:"cleanup"`
	// Substitutions are applied after script normalization, in order.
	Substitutions []Substitution `yaml:"substitutions"`
	// TargetSubstitutions are applied to text translated into this language.
	TargetSubstitutions []Substitution `yaml:"target_substitutions"`
	// Phrases override word-by-word transliteration when the input contains them.
	Phrases []Phrase `yaml:"phrases"`
	// EnglishOverrides map normalized native text to a curated English rendering.
	EnglishOverrides map[string]string `yaml:"english_overrides"`
}

// LanguageProfile is the immutable, validated form of a Config.
type LanguageProfile struct {
	name                string
	code                string
	modelTag            string
	sourceScheme        string
	targetScript        string
	normalizer          string
	lexicon             map[string]string
	cleanup             []Substitution
	substitutions       []Substitution
	targetSubstitutions []Substitution
	phrases             []Phrase
	englishOverrides    map[string]string
}

// New validates cfg and builds a LanguageProfile from a private copy of it.
func New(cfg Config) (*LanguageProfile, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		return nil, fmt.Errorf("profile: name is required")
	}
	if strings.TrimSpace(cfg.ModelTag) == "" {
		return nil, fmt.Errorf("profile %s: model_tag is required", name)
	}

	lexicon := make(map[string]string, len(cfg.Lexicon))
	for roman, native := range cfg.Lexicon {
		key := strings.ToLower(strings.TrimSpace(roman))
		if key == "" || strings.IndexFunc(key, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("profile %s: lexicon key %q must be a single word", name, roman)
		}
		if native == "" {
			return nil, fmt.Errorf("profile %s: lexicon entry %q has no native form", name, roman)
		}
		if prev, dup := lexicon[key]; dup && prev != native {
			return nil, fmt.Errorf("profile %s: lexicon key %q defined twice with different values", name, key)
		}
		lexicon[key] = native
	}

	for _, list := range [][]Substitution{cfg.Cleanup, cfg.Substitutions, cfg.TargetSubstitutions} {
		for _, sub := range list {
			if sub.From == "" {
				return nil, fmt.Errorf("profile %s: substitution with empty source", name)
			}
			// A substring rule whose output contains its input would grow the
			// text on every pass.
			if !sub.WholeWord && strings.Contains(sub.To, sub.From) {
				return nil, fmt.Errorf("profile %s: substitution %q -> %q is not idempotent, mark it whole_word", name, sub.From, sub.To)
			}
		}
	}

	phrases := make([]Phrase, 0, len(cfg.Phrases))
	for _, ph := range cfg.Phrases {
		roman := strings.ToLower(strings.TrimSpace(ph.Roman))
		if roman == "" || ph.Native == "" {
			return nil, fmt.Errorf("profile %s: phrase entries need both roman and native text", name)
		}
		phrases = append(phrases, Phrase{Roman: roman, Native: ph.Native})
	}

	overrides := make(map[string]string, len(cfg.EnglishOverrides))
	for native, english := range cfg.EnglishOverrides {
		overrides[native] = english
	}

	return &LanguageProfile{
		name:                name,
		code:                strings.ToLower(strings.TrimSpace(cfg.Code)),
		modelTag:            strings.TrimSpace(cfg.ModelTag),
		sourceScheme:        strings.ToLower(strings.TrimSpace(cfg.SourceScheme)),
		targetScript:        strings.ToLower(strings.TrimSpace(cfg.TargetScript)),
		normalizer:          strings.ToLower(strings.TrimSpace(cfg.Normalizer)),
		lexicon:             lexicon,
		cleanup:             append([]Substitution(nil), cfg.Cleanup...),
		substitutions:       append([]Substitution(nil), cfg.Substitutions...),
		targetSubstitutions: append([]Substitution(nil), cfg.TargetSubstitutions...),
		phrases:             phrases,
		englishOverrides:    overrides,
	}, nil
}

// MustNew is like New but panics on invalid configuration. Intended for tests
// and package-level fixtures.
func MustNew(cfg Config) *LanguageProfile {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *LanguageProfile) Name() string         { return p.name }
func (p *LanguageProfile) Code() string         { return p.code }
func (p *LanguageProfile) ModelTag() string     { return p.modelTag }
func (p *LanguageProfile) SourceScheme() string { return p.sourceScheme }
func (p *LanguageProfile) TargetScript() string { return p.targetScript }

// NormalizerTag returns the script normalization identifier, falling back to
// the ISO code when none was configured.
func (p *LanguageProfile) NormalizerTag() string {
	if p.normalizer != "" {
		return p.normalizer
	}
	return p.code
}

// Lookup returns the native form of a Romanized word. The match is
// case-insensitive.
func (p *LanguageProfile) Lookup(word string) (string, bool) {
	native, ok := p.lexicon[strings.ToLower(word)]
	return native, ok
}

// LexiconSize reports the number of lexicon entries.
func (p *LanguageProfile) LexiconSize() int { return len(p.lexicon) }

func (p *LanguageProfile) Cleanup() []Substitution {
	return append([]Substitution(nil), p.cleanup...)
}

func (p *LanguageProfile) Substitutions() []Substitution {
	return append([]Substitution(nil), p.substitutions...)
}

func (p *LanguageProfile) TargetSubstitutions() []Substitution {
	return append([]Substitution(nil), p.targetSubstitutions...)
}

// MatchPhrase returns the native rendering of the first configured phrase
// contained in the lowercased input.
func (p *LanguageProfile) MatchPhrase(input string) (string, bool) {
	if len(p.phrases) == 0 {
		return "", false
	}
	lower := strings.ToLower(input)
	for _, ph := range p.phrases {
		if strings.Contains(lower, ph.Roman) {
			return ph.Native, true
		}
	}
	return "", false
}

// EnglishOverride returns a curated English rendering for normalized native text.
func (p *LanguageProfile) EnglishOverride(native string) (string, bool) {
	english, ok := p.englishOverrides[native]
	return english, ok
}

func (p *LanguageProfile) String() string {
	return fmt.Sprintf("%s(%s)", p.name, p.modelTag)
}
