package translate

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// StaticTranslator is a dictionary-backed Translator for offline runs and
// tests. Entries are keyed by target tag, then by exact source text.
type StaticTranslator struct {
	dictionary map[string]map[string]string
	// strict makes a dictionary miss an error instead of a tagged echo.
	strict bool
}

// NewStaticTranslator copies dictionary. In non-strict mode a miss returns
// "[target] text".
func NewStaticTranslator(dictionary map[string]map[string]string, strict bool) *StaticTranslator {
	dict := make(map[string]map[string]string, len(dictionary))
	for target, entries := range dictionary {
		m := make(map[string]string, len(entries))
		for src, dst := range entries {
			m[src] = dst
		}
		dict[strings.ToLower(target)] = m
	}
	return &StaticTranslator{dictionary: dict, strict: strict}
}

func (s *StaticTranslator) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if out, ok := s.dictionary[strings.ToLower(targetTag)][text]; ok {
		return out, nil
	}
	if s.strict {
		return "", fmt.Errorf("no static translation %s->%s for %q", sourceTag, targetTag, text)
	}
	return fmt.Sprintf("[%s] %s", targetTag, text), nil
}

func (s *StaticTranslator) CheckHealth(ctx context.Context) error { return nil }

// SupportedLanguages returns the target tags present in the dictionary.
func (s *StaticTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	tags := make([]string, 0, len(s.dictionary))
	for tag := range s.dictionary {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *StaticTranslator) Close() error { return nil }
