package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dasmlab/lingosense/pkg/pipeline"
	"github.com/dasmlab/lingosense/pkg/profile"
	"github.com/dasmlab/lingosense/pkg/translate"
)

// PipelineService implements PipelineServiceServer on top of a Pipeline.
//
// Request fields:
//   - Run: text, source, targets (list of tags)
//   - Transliterate, Normalize, DetectCodeMix: text, source
//   - ListLanguages: none
type PipelineService struct {
	UnimplementedPipelineServiceServer

	// Pipeline executes the stages.
	Pipeline *pipeline.Pipeline

	// Logger for service operations.
	Logger *logrus.Logger
}

// NewPipelineService creates a new PipelineService instance.
func NewPipelineService(p *pipeline.Pipeline, logger *logrus.Logger) *PipelineService {
	if logger == nil {
		logger = logrus.New()
	}
	return &PipelineService{Pipeline: p, Logger: logger}
}

// Code maps a pipeline error to a gRPC status code.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, profile.ErrUnsupportedLanguage):
		return codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, translate.ErrModel):
		return codes.Unavailable
	case errors.Is(err, ErrJobNotFound):
		return codes.NotFound
	default:
		return codes.Internal
	}
}

func (s *PipelineService) fail(method string, err error) error {
	code := Code(err)
	entry := s.Logger.WithError(err).WithField("method", method)
	if code == codes.InvalidArgument {
		entry.Warn("[gRPC] Rejected request")
	} else {
		entry.Error("[gRPC] Request failed")
	}
	return status.Error(code, err.Error())
}

func invalid(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

// textRequest extracts the text and source fields shared by the single-stage methods.
func textRequest(req *structpb.Struct) (string, string, error) {
	text, err := stringField(req, "text")
	if err != nil {
		return "", "", invalid(err)
	}
	source, err := stringField(req, "source")
	if err != nil {
		return "", "", invalid(err)
	}
	if source == "" {
		return "", "", status.Error(codes.InvalidArgument, "source is required")
	}
	return text, source, nil
}

// Run executes the full pipeline.
func (s *PipelineService) Run(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text, source, err := textRequest(req)
	if err != nil {
		return nil, err
	}
	targets, err := stringListField(req, "targets")
	if err != nil {
		return nil, invalid(err)
	}

	s.Logger.WithFields(logrus.Fields{
		"source_lang": source,
		"targets":     targets,
		"text_length": len(text),
	}).Info("[gRPC] Run request received")

	startTime := time.Now()
	res, err := s.Pipeline.Run(ctx, text, source, targets)
	if err != nil {
		return nil, s.fail("Run", err)
	}

	view := ResultView(res)
	view["duration_seconds"] = time.Since(startTime).Seconds()
	return toStruct(view)
}

// Transliterate converts Romanized text to the source language's native script.
func (s *PipelineService) Transliterate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text, source, err := textRequest(req)
	if err != nil {
		return nil, err
	}
	native, err := s.Pipeline.TransliterateToNative(text, source)
	if err != nil {
		return nil, s.fail("Transliterate", err)
	}
	return toStruct(map[string]interface{}{"native": native})
}

// Normalize regularizes native-script text.
func (s *PipelineService) Normalize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text, source, err := textRequest(req)
	if err != nil {
		return nil, err
	}
	normalized, err := s.Pipeline.Normalize(text, source)
	if err != nil {
		return nil, s.fail("Normalize", err)
	}
	return toStruct(map[string]interface{}{"normalized": normalized})
}

// DetectCodeMix lists the embedded English tokens of the input.
func (s *PipelineService) DetectCodeMix(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text, source, err := textRequest(req)
	if err != nil {
		return nil, err
	}
	tokens, err := s.Pipeline.DetectCodeMix(text, source)
	if err != nil {
		return nil, s.fail("DetectCodeMix", err)
	}
	return toStruct(map[string]interface{}{"tokens": stringList(tokens)})
}

// ListLanguages describes every registered language.
func (s *PipelineService) ListLanguages(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(LanguagesView(s.Pipeline.Registry()))
}
