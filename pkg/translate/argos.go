package translate

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultArgosURL is the default base URL for an Argos Translate HTTP wrapper.
	DefaultArgosURL = "http://127.0.0.1:5000"
	// DefaultArgosTimeout is the default timeout for HTTP requests.
	DefaultArgosTimeout = 30 * time.Second
)

// argosLanguages are the Indic and bridge codes covered by the published
// Argos language packages.
var argosLanguages = []string{"en", "hi", "bn", "ta", "te", "mr", "ml", "ur", "gu", "kn", "pa"}

// ArgosClient implements the Translator interface against an HTTP wrapper
// around Argos Translate. Like LibreTranslate it speaks ISO 639-1 codes.
type ArgosClient struct {
	jsonClient
}

// NewArgosClient creates a new Argos Translate client.
func NewArgosClient(baseURL string, logger *logrus.Logger) *ArgosClient {
	if baseURL == "" {
		baseURL = DefaultArgosURL
	}
	return &ArgosClient{
		jsonClient: newJSONClient(EngineArgos, baseURL, DefaultArgosTimeout, logger),
	}
}

type argosTranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type argosTranslateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate calls POST /translate.
func (c *ArgosClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Argos")

	var resp argosTranslateResponse
	err := c.do(ctx, http.MethodPost, "/translate", argosTranslateRequest{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

// CheckHealth probes /health. Wrappers without that endpoint are treated as
// healthy as long as they answer at all.
func (c *ArgosClient) CheckHealth(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		c.logger.WithError(err).Warn("Argos health endpoint unavailable")
	}
	return nil
}

// SupportedLanguages returns the static Argos language list.
func (c *ArgosClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	return append([]string(nil), argosLanguages...), nil
}

// Close is a no-op.
func (c *ArgosClient) Close() error { return nil }
