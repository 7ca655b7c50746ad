package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedLanguage is returned when a tag does not resolve to any
// registered profile.
var ErrUnsupportedLanguage = errors.New("unsupported language")

//go:embed profiles.yaml
var defaultProfiles []byte

// file is the top-level shape of a profiles document.
type file struct {
	Languages []Config `yaml:"languages"`
}

// Registry resolves language tags to profiles. It is built once and is
// read-only afterwards.
type Registry struct {
	ordered []*LanguageProfile
	byKey   map[string]*LanguageProfile
}

// NewRegistry indexes the given profiles by name, ISO code and model tag.
// Keys are matched case-insensitively and must not collide.
func NewRegistry(profiles ...*LanguageProfile) (*Registry, error) {
	r := &Registry{
		ordered: make([]*LanguageProfile, 0, len(profiles)),
		byKey:   make(map[string]*LanguageProfile, len(profiles)*3),
	}
	for _, p := range profiles {
		if p == nil {
			continue
		}
		for _, key := range []string{p.name, p.code, p.modelTag} {
			key = strings.ToLower(key)
			if key == "" {
				continue
			}
			if other, exists := r.byKey[key]; exists && other != p {
				return nil, fmt.Errorf("profile %s: key %q already used by %s", p.name, key, other.name)
			}
			r.byKey[key] = p
		}
		r.ordered = append(r.ordered, p)
	}
	return r, nil
}

// Parse builds a registry from a YAML profiles document.
func Parse(data []byte) (*Registry, error) {
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(doc.Languages) == 0 {
		return nil, fmt.Errorf("decode profiles: no languages defined")
	}

	profiles := make([]*LanguageProfile, 0, len(doc.Languages))
	for _, cfg := range doc.Languages {
		p, err := New(cfg)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return NewRegistry(profiles...)
}

// Load reads a YAML profiles document from disk.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return Parse(data)
}

// Default returns the registry built from the embedded profiles.
func Default() (*Registry, error) {
	return Parse(defaultProfiles)
}

// Lookup resolves a tag to a profile. Accepted forms are the profile name
// ("hindi"), its ISO code ("hi"), its model tag ("hin_Deva") and any BCP 47
// tag whose base language is registered ("hi-IN", "hin").
func (r *Registry) Lookup(tag string) (*LanguageProfile, error) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if key == "" {
		return nil, fmt.Errorf("%w: empty language tag", ErrUnsupportedLanguage)
	}
	if p, ok := r.byKey[key]; ok {
		return p, nil
	}

	if parsed, err := language.Parse(strings.ReplaceAll(key, "_", "-")); err == nil {
		base, _ := parsed.Base()
		if p, ok := r.byKey[base.String()]; ok {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, tag)
}

// Profiles returns the registered profiles in configuration order.
func (r *Registry) Profiles() []*LanguageProfile {
	return append([]*LanguageProfile(nil), r.ordered...)
}
