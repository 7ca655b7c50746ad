// Package pipeline runs Romanized code-mixed text through transliteration,
// normalization and translation, one stage after another, for one source
// language and any number of target languages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dasmlab/lingosense/pkg/profile"
	"github.com/dasmlab/lingosense/pkg/textnorm"
	"github.com/dasmlab/lingosense/pkg/translate"
)

// EnglishName is the profile used as the translation bridge.
const EnglishName = "english"

var tracer = otel.Tracer("github.com/dasmlab/lingosense/pkg/pipeline")

// Strategy selects how targets are translated.
type Strategy string

const (
	// StrategyBridge translates every target from the English bridge text.
	StrategyBridge Strategy = "bridge"
	// StrategyDirect translates source to target directly and falls back to
	// the English bridge when that fails.
	StrategyDirect Strategy = "direct"
)

// ParseStrategy parses a strategy name; the empty string selects StrategyBridge.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyBridge:
		return StrategyBridge, nil
	case StrategyDirect:
		return StrategyDirect, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (supported: bridge, direct)", s)
	}
}

// Config wires a Pipeline. Only Translator is required.
type Config struct {
	// Registry resolves language tags. Defaults to profile.Default().
	Registry *profile.Registry
	// Translator is the translation backend.
	Translator translate.Translator
	// Transliterator defaults to the built-in ITRANS engine.
	Transliterator *textnorm.Transliterator
	// Normalizer defaults to the Indic script normalizer.
	Normalizer *textnorm.Normalizer
	Strategy   Strategy
	// Concurrency bounds parallel target translations. Defaults to 1.
	Concurrency int
	// TranslateTimeout bounds each translation call. Zero means no limit
	// beyond the caller's context.
	TranslateTimeout time.Duration
	Logger           *logrus.Logger
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	registry    *profile.Registry
	translator  translate.Translator
	translit    *textnorm.Transliterator
	normalizer  *textnorm.Normalizer
	strategy    Strategy
	concurrency int
	timeout     time.Duration
	english     *profile.LanguageProfile
	logger      *logrus.Logger
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Translator == nil {
		return nil, errors.New("pipeline: translator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Registry == nil {
		reg, err := profile.Default()
		if err != nil {
			return nil, fmt.Errorf("load default profiles: %w", err)
		}
		cfg.Registry = reg
	}
	if cfg.Transliterator == nil {
		cfg.Transliterator = textnorm.NewTransliterator(nil)
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = textnorm.NewNormalizer(nil)
	}
	strategy, err := ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return nil, err
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	english, err := cfg.Registry.Lookup(EnglishName)
	if err != nil {
		return nil, fmt.Errorf("pipeline: bridge language: %w", err)
	}

	return &Pipeline{
		registry:    cfg.Registry,
		translator:  cfg.Translator,
		translit:    cfg.Transliterator,
		normalizer:  cfg.Normalizer,
		strategy:    strategy,
		concurrency: cfg.Concurrency,
		timeout:     cfg.TranslateTimeout,
		english:     english,
		logger:      cfg.Logger,
	}, nil
}

// Registry returns the language registry the pipeline resolves tags with.
func (p *Pipeline) Registry() *profile.Registry { return p.registry }

// TransliterateToNative converts Romanized input to the source language's
// native script. It fails only for an unsupported language.
func (p *Pipeline) TransliterateToNative(input, sourceTag string) (string, error) {
	src, err := p.registry.Lookup(sourceTag)
	if err != nil {
		return "", err
	}
	return p.transliterate(input, src).Text, nil
}

// Normalize regularizes native-script text for the source language.
func (p *Pipeline) Normalize(native, sourceTag string) (string, error) {
	src, err := p.registry.Lookup(sourceTag)
	if err != nil {
		return "", err
	}
	return p.normalizer.Normalize(native, src), nil
}

// DetectCodeMix lists the tokens of input that look like embedded English.
func (p *Pipeline) DetectCodeMix(input, sourceTag string) ([]string, error) {
	src, err := p.registry.Lookup(sourceTag)
	if err != nil {
		return nil, err
	}
	return textnorm.DetectCodeMix(input, src), nil
}

func (p *Pipeline) transliterate(input string, src *profile.LanguageProfile) textnorm.Transliteration {
	out := p.translit.Transliterate(input, src)
	for _, tok := range out.Tokens {
		tokenOutcomes.WithLabelValues(src.Name(), tok.Outcome.String()).Inc()
	}
	return out
}

// Stage names reported to a ProgressFunc.
type Stage string

const (
	StageTransliterate Stage = "transliterate"
	StageNormalize     Stage = "normalize"
	StageBridge        Stage = "bridge"
	StageTargets       Stage = "targets"
	StageDone          Stage = "done"
)

// ProgressFunc observes pipeline progress. It is called from the goroutine
// running the pipeline and from target workers, so it must be safe for
// concurrent use.
type ProgressFunc func(stage Stage, percent int32, message string)

// Run executes the full pipeline. See RunWithProgress.
func (p *Pipeline) Run(ctx context.Context, input, sourceTag string, targetTags []string) (*Result, error) {
	return p.RunWithProgress(ctx, input, sourceTag, targetTags, nil)
}

// RunWithProgress transliterates and normalizes input, translates it to
// English and then to every target. Unsupported languages and a failed
// English step fail the whole run; a failed target is recorded in
// Result.Failures and the other targets proceed. Targets that repeat the
// source, English or an earlier target are skipped.
func (p *Pipeline) RunWithProgress(ctx context.Context, input, sourceTag string, targetTags []string, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(Stage, int32, string) {}
	}
	runStart := time.Now()

	ctx, span := tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("lingosense.source", sourceTag),
		attribute.StringSlice("lingosense.targets", targetTags),
		attribute.Int("lingosense.input_bytes", len(input)),
	))
	defer span.End()

	src, err := p.registry.Lookup(sourceTag)
	if err != nil {
		runsTotal.WithLabelValues("unknown", "invalid").Inc()
		recordSpanError(span, err)
		return nil, err
	}
	targets, err := p.resolveTargets(src, targetTags)
	if err != nil {
		runsTotal.WithLabelValues(src.Name(), "invalid").Inc()
		recordSpanError(span, err)
		return nil, err
	}

	log := p.logger.WithFields(logrus.Fields{
		"source_lang": src.Name(),
		"targets":     len(targets),
		"strategy":    p.strategy,
	})

	res := &Result{Input: input, Source: src.Name()}

	progress(StageTransliterate, 5, "Transliterating input")
	stageStart := time.Now()
	translit := p.transliterate(input, src)
	res.Native = translit.Text
	res.Tokens = translit.Tokens
	res.CodeMixed = textnorm.DetectCodeMix(input, src)
	observeStage(StageTransliterate, stageStart)

	progress(StageNormalize, 15, "Normalizing script")
	stageStart = time.Now()
	res.Normalized = p.normalizer.Normalize(res.Native, src)
	res.add(src.ModelTag(), src.Name(), res.Normalized)
	observeStage(StageNormalize, stageStart)

	progress(StageBridge, 25, "Translating to English")
	stageStart = time.Now()
	english, err := p.toEnglish(ctx, res.Normalized, src)
	observeStage(StageBridge, stageStart)
	if err != nil {
		runsTotal.WithLabelValues(src.Name(), "failed").Inc()
		log.WithError(err).Error("English bridge translation failed")
		err = fmt.Errorf("translate %s to english: %w", src.Name(), err)
		recordSpanError(span, err)
		return nil, err
	}
	res.English = english
	if src != p.english {
		res.add(p.english.ModelTag(), p.english.Name(), english)
	}

	stageStart = time.Now()
	outcomes := p.translateTargets(ctx, res, src, targets, progress)
	for i, tgt := range targets {
		if outcomes[i].err != nil {
			res.Failures = append(res.Failures, &TargetError{Tag: tgt.ModelTag(), Language: tgt.Name(), Err: outcomes[i].err})
			targetFailures.WithLabelValues(src.Name(), tgt.Name()).Inc()
			continue
		}
		res.add(tgt.ModelTag(), tgt.Name(), outcomes[i].text)
	}
	observeStage(StageTargets, stageStart)

	status := "success"
	if len(res.Failures) > 0 {
		status = "partial"
	}
	runsTotal.WithLabelValues(src.Name(), status).Inc()
	span.SetAttributes(
		attribute.String("lingosense.status", status),
		attribute.Int("lingosense.failures", len(res.Failures)),
	)
	progress(StageDone, 100, "Pipeline completed")

	log.WithFields(logrus.Fields{
		"failures":    len(res.Failures),
		"code_mixed":  len(res.CodeMixed),
		"duration_ms": time.Since(runStart).Milliseconds(),
	}).Info("Pipeline run completed")

	return res, nil
}

// resolveTargets maps tags to profiles, dropping the source, the English
// bridge and repeats.
func (p *Pipeline) resolveTargets(src *profile.LanguageProfile, tags []string) ([]*profile.LanguageProfile, error) {
	seen := map[*profile.LanguageProfile]bool{src: true, p.english: true}
	targets := make([]*profile.LanguageProfile, 0, len(tags))
	for _, tag := range tags {
		tgt, err := p.registry.Lookup(tag)
		if err != nil {
			return nil, err
		}
		if seen[tgt] {
			continue
		}
		seen[tgt] = true
		targets = append(targets, tgt)
	}
	return targets, nil
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout > 0 {
		return context.WithTimeout(ctx, p.timeout)
	}
	return context.WithCancel(ctx)
}

// toEnglish produces the bridge text. English input needs no model, a
// curated override skips the model and empty input stays empty.
func (p *Pipeline) toEnglish(ctx context.Context, normalized string, src *profile.LanguageProfile) (string, error) {
	if src == p.english || normalized == "" {
		return normalized, nil
	}
	if english, ok := src.EnglishOverride(normalized); ok {
		return english, nil
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	out, err := translate.Checked(callCtx, p.translator, normalized, src.ModelTag(), p.english.ModelTag())
	if err != nil {
		return "", err
	}
	return textnorm.CollapseWhitespace(out), nil
}

type targetOutcome struct {
	text string
	err  error
}

func (p *Pipeline) translateTargets(ctx context.Context, res *Result, src *profile.LanguageProfile, targets []*profile.LanguageProfile, progress ProgressFunc) []targetOutcome {
	outcomes := make([]targetOutcome, len(targets))
	if len(targets) == 0 {
		return outcomes
	}

	var completed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, tgt := range targets {
		i, tgt := i, tgt
		g.Go(func() error {
			text, err := p.translateTarget(gctx, res, src, tgt)
			outcomes[i] = targetOutcome{text: text, err: err}
			done := completed.Add(1)
			percent := 30 + int32(float64(done)/float64(len(targets))*65)
			progress(StageTargets, percent, fmt.Sprintf("Translated %s (%d/%d)", tgt.Name(), done, len(targets)))
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (p *Pipeline) translateTarget(ctx context.Context, res *Result, src, tgt *profile.LanguageProfile) (string, error) {
	if res.Normalized == "" {
		return "", nil
	}

	ctx, span := tracer.Start(ctx, "pipeline.Target", trace.WithAttributes(
		attribute.String("lingosense.target", tgt.ModelTag()),
		attribute.String("lingosense.strategy", string(p.strategy)),
	))
	defer span.End()

	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	var (
		out    string
		direct bool
		err    error
	)
	switch {
	case p.strategy == StrategyDirect && src != p.english:
		out, direct, err = translate.PreferDirect(callCtx, p.translator, res.Normalized, src.ModelTag(), tgt.ModelTag(),
			translate.Bridge{Tag: p.english.ModelTag(), Text: res.English})
	default:
		out, err = translate.Checked(callCtx, p.translator, res.English, p.english.ModelTag(), tgt.ModelTag())
	}
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"source_lang": src.Name(),
			"target_lang": tgt.Name(),
		}).Warn("Target translation failed")
		recordSpanError(span, err)
		return "", err
	}
	span.SetAttributes(attribute.Bool("lingosense.direct", direct))

	p.logger.WithFields(logrus.Fields{
		"source_lang": src.Name(),
		"target_lang": tgt.Name(),
		"direct":      direct,
	}).Debug("Target translated")

	out = textnorm.ApplySubstitutions(out, tgt.TargetSubstitutions())
	return textnorm.CollapseWhitespace(out), nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
}
