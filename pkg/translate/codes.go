package translate

import "context"

// isoCodes adapts a backend that speaks ISO 639-1 to model tags.
type isoCodes struct {
	Translator
	mapper *LanguageMapper
}

// WithISOCodes converts tags like "hin_Deva" to "hi" before calling tr.
func WithISOCodes(tr Translator) Translator {
	return &isoCodes{Translator: tr, mapper: NewLanguageMapper()}
}

func (t *isoCodes) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error) {
	return t.Translator.Translate(ctx, text, t.mapper.ToBackendCode(sourceTag), t.mapper.ToBackendCode(targetTag))
}
