package translate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLibreTranslateURL is the default base URL for LibreTranslate API.
	DefaultLibreTranslateURL = "http://localhost:5000"
	// DefaultLibreTranslateTimeout bounds a single HTTP request.
	DefaultLibreTranslateTimeout = 2 * time.Minute
)

// LibreTranslateClient implements the Translator interface using LibreTranslate.
// It speaks ISO 639-1 codes; NewTranslator wraps it with WithISOCodes.
type LibreTranslateClient struct {
	jsonClient
}

// NewLibreTranslateClient creates a new LibreTranslate client.
func NewLibreTranslateClient(baseURL string, logger *logrus.Logger) *LibreTranslateClient {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	return &LibreTranslateClient{
		jsonClient: newJSONClient(EngineLibreTranslate, baseURL, DefaultLibreTranslateTimeout, logger),
	}
}

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type libreTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

type libreLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Translate calls POST /translate.
func (c *LibreTranslateClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with LibreTranslate")

	var resp libreTranslateResponse
	err := c.do(ctx, http.MethodPost, "/translate", libreTranslateRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

// CheckHealth uses the /languages endpoint as a readiness probe.
func (c *LibreTranslateClient) CheckHealth(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/languages", nil, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// SupportedLanguages returns the codes listed by GET /languages.
func (c *LibreTranslateClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	var languages []libreLanguage
	if err := c.do(ctx, http.MethodGet, "/languages", nil, &languages); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(languages))
	for _, lang := range languages {
		codes = append(codes, lang.Code)
	}
	return codes, nil
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (c *LibreTranslateClient) Close() error { return nil }
