package textnorm

import (
	"strings"

	"github.com/dasmlab/lingosense/pkg/profile"
)

// maxPasses bounds how often Normalize repeats its pass while the text is
// still changing.
const maxPasses = 8

// Normalizer applies script normalization, then a profile's corrective
// substitutions, then whitespace collapse. The pass repeats until the text
// stops changing, so a substitution that exposes a composable pair or a new
// match is settled before Normalize returns.
type Normalizer struct {
	script ScriptNormalizer
}

// NewNormalizer returns a Normalizer. A nil script normalizer selects
// IndicNormalizer.
func NewNormalizer(script ScriptNormalizer) *Normalizer {
	if script == nil {
		script = NewIndicNormalizer()
	}
	return &Normalizer{script: script}
}

// Normalize regularizes native-script text for p.
func (n *Normalizer) Normalize(text string, p *profile.LanguageProfile) string {
	out := n.pass(text, p)
	for i := 1; i < maxPasses; i++ {
		next := n.pass(out, p)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func (n *Normalizer) pass(text string, p *profile.LanguageProfile) string {
	out := n.script.Normalize(text, p.NormalizerTag())
	out = ApplySubstitutions(out, p.Substitutions())
	return CollapseWhitespace(out)
}

// ApplySubstitutions applies subs in order. Plain rules replace every
// occurrence; whole-word rules replace only whitespace-delimited words, and
// normalize the spacing between words as a side effect.
func ApplySubstitutions(text string, subs []profile.Substitution) string {
	for _, sub := range subs {
		if sub.From == "" {
			continue
		}
		if !sub.WholeWord {
			text = strings.ReplaceAll(text, sub.From, sub.To)
			continue
		}
		fields := strings.Fields(text)
		changed := false
		for i, f := range fields {
			if f == sub.From {
				fields[i] = sub.To
				changed = true
			}
		}
		if changed {
			text = strings.Join(fields, " ")
		}
	}
	return text
}

// CollapseWhitespace replaces every run of whitespace with one space and trims
// both ends.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
