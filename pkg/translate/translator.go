package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrModel marks a failure of the translation backend, including empty or
// whitespace-only output.
var ErrModel = errors.New("translation model error")

// Translator defines the interface for machine translation backends.
// Language tags are whatever the backend understands; the pipeline passes
// model tags such as "hin_Deva" and engines that speak ISO 639-1 wrap
// themselves with WithISOCodes.
type Translator interface {
	// Translate translates text from sourceTag to targetTag.
	Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error)

	// CheckHealth verifies that the translation backend is ready and operational.
	CheckHealth(ctx context.Context) error

	// SupportedLanguages returns the language tags this backend accepts.
	SupportedLanguages(ctx context.Context) ([]string, error)

	// Close releases processes, connections and other resources.
	Close() error
}

// LanguageMapper handles conversion between different language code formats.
// Model tags look like "hin_Deva" (ISO 639-3 plus script), BCP 47 tags like
// "hi-IN"; HTTP backends want ISO 639-1 codes like "hi".
type LanguageMapper struct{}

// NewLanguageMapper creates a new language mapper instance.
func NewLanguageMapper() *LanguageMapper {
	return &LanguageMapper{}
}

// ToBackendCode converts a model or BCP 47 tag to a backend code.
// Examples:
//   - "EN" -> "en"
//   - "hin_Deva" -> "hi"
//   - "mal_Mlym" -> "ml"
//   - "fr-CA" -> "fr"
func (lm *LanguageMapper) ToBackendCode(tag string) string {
	lang := strings.ToLower(strings.TrimSpace(tag))
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}
	if base, err := language.ParseBase(lang); err == nil {
		return base.String()
	}
	return lang
}

// DisplayName returns the English name of the language behind tag, e.g.
// "Hindi" for "hin_Deva". Unknown tags are returned unchanged.
func (lm *LanguageMapper) DisplayName(tag string) string {
	t, err := language.Parse(lm.ToBackendCode(tag))
	if err != nil {
		return tag
	}
	name := display.English.Languages().Name(t)
	if name == "" {
		return tag
	}
	return name
}

// Checked calls tr and normalizes its failure modes: any backend error and
// any empty result are reported as ErrModel.
func Checked(ctx context.Context, tr Translator, text, sourceTag, targetTag string) (string, error) {
	out, err := tr.Translate(ctx, text, sourceTag, targetTag)
	if err != nil {
		if errors.Is(err, ErrModel) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s->%s: %w", ErrModel, sourceTag, targetTag, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: %s->%s: empty output", ErrModel, sourceTag, targetTag)
	}
	return out, nil
}

// Bridge is an already computed pivot translation.
type Bridge struct {
	Tag  string
	Text string
}

// PreferDirect translates source to target directly and falls back to
// translating the bridge text when the direct attempt fails. The returned
// bool reports whether the direct path was used.
func PreferDirect(ctx context.Context, tr Translator, text, sourceTag, targetTag string, bridge Bridge) (string, bool, error) {
	out, directErr := Checked(ctx, tr, text, sourceTag, targetTag)
	if directErr == nil {
		return out, true, nil
	}
	if ctx.Err() != nil {
		return "", false, directErr
	}

	out, err := Checked(ctx, tr, bridge.Text, bridge.Tag, targetTag)
	if err != nil {
		return "", false, fmt.Errorf("direct failed (%v), bridge failed: %w", directErr, err)
	}
	return out, false, nil
}
