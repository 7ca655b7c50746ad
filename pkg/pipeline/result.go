package pipeline

import (
	"errors"
	"fmt"

	"github.com/dasmlab/lingosense/pkg/textnorm"
)

// Entry is one rendering of the input, keyed by model tag.
type Entry struct {
	Tag      string `json:"tag"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Result holds every intermediate and final output of a run. Entries are
// ordered: the normalized source first, then English, then targets in
// request order.
type Result struct {
	Input      string                 `json:"input"`
	Source     string                 `json:"source"`
	Native     string                 `json:"native"`
	Normalized string                 `json:"normalized"`
	English    string                 `json:"english"`
	CodeMixed  []string               `json:"code_mixed"`
	Tokens     []textnorm.TokenResult `json:"-"`
	Entries    []Entry                `json:"entries"`
	Failures   []*TargetError         `json:"-"`
}

func (r *Result) add(tag, language, text string) {
	r.Entries = append(r.Entries, Entry{Tag: tag, Language: language, Text: text})
}

// Get returns the text recorded for a model tag.
func (r *Result) Get(tag string) (string, bool) {
	for _, e := range r.Entries {
		if e.Tag == tag {
			return e.Text, true
		}
	}
	return "", false
}

// Map returns the entries keyed by model tag.
func (r *Result) Map() map[string]string {
	m := make(map[string]string, len(r.Entries))
	for _, e := range r.Entries {
		m[e.Tag] = e.Text
	}
	return m
}

// Err joins the target failures, or returns nil when every target succeeded.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// TargetError records a failed target translation.
type TargetError struct {
	Tag      string
	Language string
	Err      error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("target %s (%s): %v", e.Language, e.Tag, e.Err)
}

func (e *TargetError) Unwrap() error { return e.Err }
