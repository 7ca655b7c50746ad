package translate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLibreTranslateClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/translate":
			require.Equal(t, http.MethodPost, r.Method)
			var req libreTranslateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "hi", req.Source)
			require.Equal(t, "en", req.Target)
			require.Equal(t, "text", req.Format)
			_ = json.NewEncoder(w).Encode(libreTranslateResponse{TranslatedText: "I have to come"})
		case "/languages":
			_ = json.NewEncoder(w).Encode([]libreLanguage{{Code: "en", Name: "English"}, {Code: "hi", Name: "Hindi"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	client := NewLibreTranslateClient(srv.URL, quietLogger())
	tr := WithISOCodes(client)

	out, err := tr.Translate(ctx, "मुझे आना है", "hin_Deva", "eng_Latn")
	require.NoError(t, err)
	require.Equal(t, "I have to come", out)

	require.NoError(t, tr.CheckHealth(ctx))

	langs, err := tr.SupportedLanguages(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"en", "hi"}, langs)
	require.NoError(t, tr.Close())
}

func TestLibreTranslateClientErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewLibreTranslateClient(srv.URL, quietLogger())
	_, err := client.Translate(context.Background(), "x", "hi", "en")
	require.ErrorContains(t, err, "unexpected status 503")
	require.Error(t, client.CheckHealth(context.Background()))
}

func TestArgosClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			http.NotFound(w, r)
			return
		}
		var req argosTranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(argosTranslateResponse{TranslatedText: req.TargetLang + ":" + req.Text})
	}))
	defer srv.Close()

	ctx := context.Background()
	client := NewArgosClient(srv.URL, quietLogger())

	out, err := client.Translate(ctx, "hello", "en", "ta")
	require.NoError(t, err)
	require.Equal(t, "ta:hello", out)

	// A missing /health endpoint is tolerated.
	require.NoError(t, client.CheckHealth(ctx))

	langs, err := client.SupportedLanguages(ctx)
	require.NoError(t, err)
	require.Contains(t, langs, "ml")
}

func TestOpenAITranslator(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		require.Contains(t, req.Messages[0].Content, "Hindi")
		require.Contains(t, req.Messages[0].Content, "English")
		require.Equal(t, "मुझे आना है", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "`+req.Model+`",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  I have to come\n"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 4, "total_tokens": 24}
		}`)
	}))
	defer srv.Close()

	tr, err := NewOpenAITranslator(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, quietLogger())
	require.NoError(t, err)

	out, err := tr.Translate(context.Background(), "मुझे आना है", "hin_Deva", "eng_Latn")
	require.NoError(t, err)
	require.Equal(t, "I have to come", out)

	_, err = NewOpenAITranslator(OpenAIConfig{}, nil)
	require.Error(t, err)
}
