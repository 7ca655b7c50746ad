package translate

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// EngineType represents the type of translation engine to use.
type EngineType string

const (
	// EngineLibreTranslate uses LibreTranslate as the backend.
	EngineLibreTranslate EngineType = "libretranslate"
	// EngineArgos uses an HTTP wrapper around Argos Translate.
	EngineArgos EngineType = "argos"
	// EngineNLLB runs a pool of Python NLLB workers over Unix sockets.
	EngineNLLB EngineType = "nllb"
	// EngineSubprocess runs one JSON-lines subprocess.
	EngineSubprocess EngineType = "subprocess"
	// EngineOpenAI uses a chat-completion model.
	EngineOpenAI EngineType = "openai"
	// EngineStatic echoes input tagged with the target language.
	EngineStatic EngineType = "static"
)

var engines = []EngineType{
	EngineLibreTranslate, EngineArgos, EngineNLLB, EngineSubprocess, EngineOpenAI, EngineStatic,
}

// Config holds configuration for creating a Translator instance.
type Config struct {
	// Engine specifies which translation engine to use.
	Engine EngineType
	// BaseURL is the HTTP endpoint for libretranslate, argos and openai.
	BaseURL string
	// Model is the NLLB checkpoint or the chat model name.
	Model string
	// APIKey authenticates against OpenAI.
	APIKey string
	// Workers is the NLLB pool size.
	Workers int
	// PythonPath and WorkerScript locate the NLLB worker.
	PythonPath   string
	WorkerScript string
	// Command is the program and arguments for the subprocess engine.
	Command []string
	// Languages are the model tags the NLLB pool reports as supported.
	Languages []string
	// ChunkSize splits longer requests; zero disables chunking.
	ChunkSize int
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewTranslator builds the configured engine and wraps it with tag
// conversion (for ISO-code engines), chunking and metrics.
func NewTranslator(cfg Config) (Translator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":   cfg.Engine,
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	}).Info("Creating translator instance")

	var tr Translator
	switch cfg.Engine {
	case EngineLibreTranslate:
		tr = WithISOCodes(NewLibreTranslateClient(cfg.BaseURL, cfg.Logger))
	case EngineArgos:
		tr = WithISOCodes(NewArgosClient(cfg.BaseURL, cfg.Logger))
	case EngineNLLB:
		pool, err := NewWorkerPool(PoolConfig{
			Engine:     EngineNLLB,
			PythonPath: cfg.PythonPath,
			ScriptPath: cfg.WorkerScript,
			Model:      cfg.Model,
			Workers:    cfg.Workers,
			Languages:  cfg.Languages,
		}, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("create worker pool: %w", err)
		}
		tr = pool
	case EngineSubprocess:
		sub, err := NewSubprocessTranslator(cfg.Command, cfg.Logger)
		if err != nil {
			return nil, err
		}
		tr = sub
	case EngineOpenAI:
		oa, err := NewOpenAITranslator(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}, cfg.Logger)
		if err != nil {
			return nil, err
		}
		tr = oa
	case EngineStatic:
		tr = NewStaticTranslator(nil, false)
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"engine": cfg.Engine,
		}).Error("Unknown translation engine")
		return nil, fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}

	if cfg.ChunkSize > 0 {
		tr = Chunked(tr, cfg.ChunkSize)
	}
	return Instrumented(tr, cfg.Engine), nil
}

// ParseEngineType parses a string into an EngineType, ignoring case.
func ParseEngineType(s string) (EngineType, error) {
	want := EngineType(strings.ToLower(strings.TrimSpace(s)))
	for _, e := range engines {
		if e == want {
			return e, nil
		}
	}
	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = string(e)
	}
	return "", fmt.Errorf("unknown engine type: %s (supported: %s)", s, strings.Join(names, ", "))
}
