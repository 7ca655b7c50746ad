package service

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dasmlab/lingosense/pkg/pipeline"
	"github.com/dasmlab/lingosense/pkg/profile"
)

// ResultView renders a pipeline result as a JSON-compatible document. The
// same shape is returned over gRPC, HTTP and in job status.
func ResultView(res *pipeline.Result) map[string]interface{} {
	entries := make([]interface{}, 0, len(res.Entries))
	translations := make(map[string]interface{}, len(res.Entries))
	for _, e := range res.Entries {
		entries = append(entries, map[string]interface{}{
			"tag":      e.Tag,
			"language": e.Language,
			"text":     e.Text,
		})
		translations[e.Tag] = e.Text
	}

	failures := make([]interface{}, 0, len(res.Failures))
	for _, f := range res.Failures {
		failures = append(failures, map[string]interface{}{
			"tag":      f.Tag,
			"language": f.Language,
			"error":    f.Err.Error(),
		})
	}

	outcomes := make(map[string]interface{})
	for _, tok := range res.Tokens {
		key := tok.Outcome.String()
		n, _ := outcomes[key].(float64)
		outcomes[key] = n + 1
	}

	return map[string]interface{}{
		"input":          res.Input,
		"source":         res.Source,
		"native":         res.Native,
		"normalized":     res.Normalized,
		"english":        res.English,
		"code_mixed":     stringList(res.CodeMixed),
		"entries":        entries,
		"translations":   translations,
		"failures":       failures,
		"token_outcomes": outcomes,
	}
}

// LanguageView describes a registered language.
func LanguageView(p *profile.LanguageProfile) map[string]interface{} {
	return map[string]interface{}{
		"name":          p.Name(),
		"code":          p.Code(),
		"model_tag":     p.ModelTag(),
		"source_scheme": p.SourceScheme(),
		"target_script": p.TargetScript(),
		"lexicon_size":  float64(p.LexiconSize()),
	}
}

// LanguagesView lists every language in the registry.
func LanguagesView(reg *profile.Registry) map[string]interface{} {
	profiles := reg.Profiles()
	langs := make([]interface{}, 0, len(profiles))
	for _, p := range profiles {
		langs = append(langs, LanguageView(p))
	}
	return map[string]interface{}{"languages": langs}
}

func stringList(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func toStruct(m map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return s, nil
}

// stringField returns a string field of req; a missing field yields "".
func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %q must be a string", name)
	}
	return s.StringValue, nil
}

// stringListField returns a list-of-strings field. A single string is
// accepted as a one-element list.
func stringListField(req *structpb.Struct, name string) ([]string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		return []string{kind.StringValue}, nil
	case *structpb.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]string, 0, len(values))
		for i, item := range values {
			s, ok := item.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return nil, fmt.Errorf("field %q item %d must be a string", name, i)
			}
			out = append(out, s.StringValue)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q must be a list of strings", name)
	}
}
