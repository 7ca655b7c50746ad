package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/lingosense/pkg/profile"
	"github.com/dasmlab/lingosense/pkg/translate"
)

const hindiInput = "mujhe class ke baad meeting me aana hai"
const hindiNative = "मुझे कक्षा के बाद बैठक में आना है"

type funcTranslator func(ctx context.Context, text, src, tgt string) (string, error)

func (f funcTranslator) Translate(ctx context.Context, text, src, tgt string) (string, error) {
	return f(ctx, text, src, tgt)
}
func (f funcTranslator) CheckHealth(context.Context) error                   { return nil }
func (f funcTranslator) SupportedLanguages(context.Context) ([]string, error) { return nil, nil }
func (f funcTranslator) Close() error                                        { return nil }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newPipeline(t *testing.T, tr translate.Translator, opts ...func(*Config)) *Pipeline {
	t.Helper()
	cfg := Config{Translator: tr, Logger: quietLogger()}
	for _, o := range opts {
		o(&cfg)
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestRunHindiToMalayalam(t *testing.T) {
	t.Parallel()

	tr := translate.NewStaticTranslator(map[string]map[string]string{
		"eng_Latn": {hindiNative: "I have to come to the meeting after class"},
		"mal_Mlym": {"I have to come to the meeting after class": "ക്ലാസ് കഴിഞ്ഞ്   എനിക്ക് മീറ്റിംഗിന് വരണം"},
	}, true)
	p := newPipeline(t, tr)

	res, err := p.Run(context.Background(), hindiInput, "hindi", []string{"malayalam", "hindi", "english", "ml"})
	require.NoError(t, err)
	require.NoError(t, res.Err())

	require.Equal(t, "hindi", res.Source)
	require.Equal(t, hindiNative, res.Native)
	require.Equal(t, hindiNative, res.Normalized)
	require.Equal(t, "I have to come to the meeting after class", res.English)
	require.Contains(t, res.CodeMixed, "class")
	require.Contains(t, res.CodeMixed, "meeting")
	require.Len(t, res.Tokens, 8)

	require.Equal(t, []Entry{
		{Tag: "hin_Deva", Language: "hindi", Text: hindiNative},
		{Tag: "eng_Latn", Language: "english", Text: "I have to come to the meeting after class"},
		{Tag: "mal_Mlym", Language: "malayalam", Text: "ക്ലാസ് കഴിഞ്ഞ് എനിക്ക് മീറ്റിംഗിന് വരണം"},
	}, res.Entries)

	got, ok := res.Get("mal_Mlym")
	require.True(t, ok)
	require.Equal(t, res.Entries[2].Text, got)
	_, ok = res.Get("tam_Taml")
	require.False(t, ok)
	require.Len(t, res.Map(), 3)
}

func TestRunUsesEnglishOverride(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	tr := funcTranslator(func(_ context.Context, text, src, tgt string) (string, error) {
		calls.Add(1)
		if tgt == "eng_Latn" {
			return "", errors.New("bridge must not be called")
		}
		return "[" + tgt + "] " + text, nil
	})
	p := newPipeline(t, tr)

	res, err := p.Run(context.Background(), "Ente class kazhinju meetingil varam", "mal_Mlym", []string{"hi"})
	require.NoError(t, err)
	require.Equal(t, "എന്റെ പാഠം കഴിഞ്ഞു, യോഗത്തിൽ വരാം", res.Normalized)
	require.Equal(t, "My class is over, I can come to the meeting", res.English)
	require.Equal(t, map[string]string{
		"mal_Mlym": "എന്റെ പാഠം കഴിഞ്ഞു, യോഗത്തിൽ വരാം",
		"eng_Latn": "My class is over, I can come to the meeting",
		"hin_Deva": "[hin_Deva] My class is over, I can come to the meeting",
	}, res.Map())
	require.EqualValues(t, 1, calls.Load())
}

func TestRunAppliesTargetSubstitutions(t *testing.T) {
	t.Parallel()

	tr := funcTranslator(func(_ context.Context, text, src, tgt string) (string, error) {
		if tgt == "tel_Telu" {
			return "మీరు  ఎలా ఉన్నారు మీ మీకు", nil
		}
		return "How are you", nil
	})
	p := newPipeline(t, tr)

	res, err := p.Run(context.Background(), "hai", "hindi", []string{"telugu"})
	require.NoError(t, err)
	got, ok := res.Get("tel_Telu")
	require.True(t, ok)
	require.Equal(t, "నువ్వు ఎలా ఉన్నారు నీ మీకు", got)
}

func TestRunIsolatesTargetFailures(t *testing.T) {
	t.Parallel()

	tr := funcTranslator(func(_ context.Context, text, src, tgt string) (string, error) {
		switch tgt {
		case "tam_Taml":
			return "", errors.New("model crashed")
		case "ben_Beng":
			return "   ", nil
		}
		return "[" + tgt + "] " + text, nil
	})
	p := newPipeline(t, tr, func(c *Config) { c.Concurrency = 3 })

	res, err := p.Run(context.Background(), hindiInput, "hindi", []string{"tamil", "marathi", "bengali"})
	require.NoError(t, err)

	tags := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		tags = append(tags, e.Tag)
	}
	require.Equal(t, []string{"hin_Deva", "eng_Latn", "mar_Deva"}, tags)

	require.Len(t, res.Failures, 2)
	require.Equal(t, "tam_Taml", res.Failures[0].Tag)
	require.Equal(t, "ben_Beng", res.Failures[1].Tag)
	require.ErrorContains(t, res.Failures[0], "model crashed")
	require.ErrorIs(t, res.Failures[1], translate.ErrModel)

	var te *TargetError
	require.ErrorAs(t, res.Err(), &te)
	require.ErrorIs(t, res.Err(), translate.ErrModel)
}

func TestRunFailsWhenBridgeFails(t *testing.T) {
	t.Parallel()

	tr := funcTranslator(func(context.Context, string, string, string) (string, error) {
		return "", errors.New("backend down")
	})
	p := newPipeline(t, tr)

	_, err := p.Run(context.Background(), hindiInput, "hindi", []string{"tamil"})
	require.ErrorIs(t, err, translate.ErrModel)
	require.ErrorContains(t, err, "backend down")
}

func TestRunRejectsUnsupportedLanguages(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	tr := funcTranslator(func(context.Context, string, string, string) (string, error) {
		calls.Add(1)
		return "x", nil
	})
	p := newPipeline(t, tr)
	ctx := context.Background()

	_, err := p.Run(ctx, hindiInput, "klingon", nil)
	require.ErrorIs(t, err, profile.ErrUnsupportedLanguage)

	_, err = p.Run(ctx, hindiInput, "hindi", []string{"tamil", "xx_Qaaa"})
	require.ErrorIs(t, err, profile.ErrUnsupportedLanguage)
	require.Zero(t, calls.Load())
}

func TestRunEnglishSource(t *testing.T) {
	t.Parallel()

	var sources []string
	var mu sync.Mutex
	tr := funcTranslator(func(_ context.Context, text, src, tgt string) (string, error) {
		mu.Lock()
		sources = append(sources, src+">"+tgt)
		mu.Unlock()
		return "नमस्ते दुनिया", nil
	})
	p := newPipeline(t, tr)

	res, err := p.Run(context.Background(), "Hello   world", "en", []string{"hindi", "english"})
	require.NoError(t, err)
	require.Equal(t, "Hello world", res.Normalized)
	require.Equal(t, "Hello world", res.English)
	require.Equal(t, []Entry{
		{Tag: "eng_Latn", Language: "english", Text: "Hello world"},
		{Tag: "hin_Deva", Language: "hindi", Text: "नमस्ते दुनिया"},
	}, res.Entries)
	require.Equal(t, []string{"eng_Latn>hin_Deva"}, sources)
}

func TestRunEmptyInput(t *testing.T) {
	t.Parallel()

	tr := funcTranslator(func(context.Context, string, string, string) (string, error) {
		return "", errors.New("must not be called")
	})
	p := newPipeline(t, tr)

	res, err := p.Run(context.Background(), "   ", "hindi", []string{"tamil"})
	require.NoError(t, err)
	require.NoError(t, res.Err())
	require.Equal(t, map[string]string{"hin_Deva": "", "eng_Latn": "", "tam_Taml": ""}, res.Map())
	require.Empty(t, res.CodeMixed)
}

func TestRunDirectStrategy(t *testing.T) {
	t.Parallel()

	tr := funcTranslator(func(_ context.Context, text, src, tgt string) (string, error) {
		switch {
		case src == "hin_Deva" && tgt == "mar_Deva":
			return "direct:" + text, nil
		case src == "hin_Deva" && tgt == "tam_Taml":
			return "", errors.New("pair not supported")
		}
		return "bridge:" + tgt, nil
	})
	p := newPipeline(t, tr, func(c *Config) { c.Strategy = StrategyDirect })

	res, err := p.Run(context.Background(), hindiInput, "hindi", []string{"marathi", "tamil"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"hin_Deva": hindiNative,
		"eng_Latn": "bridge:eng_Latn",
		"mar_Deva": "direct:" + hindiNative,
		"tam_Taml": "bridge:tam_Taml",
	}, res.Map())
}

func TestRunBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	tr := funcTranslator(func(_ context.Context, text, src, tgt string) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return "ok", nil
	})
	p := newPipeline(t, tr, func(c *Config) { c.Concurrency = 2 })

	res, err := p.Run(context.Background(), "hello", "english",
		[]string{"hindi", "marathi", "bengali", "tamil", "telugu", "malayalam"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 7)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunTranslateTimeout(t *testing.T) {
	t.Parallel()

	tr := funcTranslator(func(ctx context.Context, text, src, tgt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	p := newPipeline(t, tr, func(c *Config) { c.TranslateTimeout = 20 * time.Millisecond })

	res, err := p.Run(context.Background(), "hello", "english", []string{"hindi"})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	require.ErrorIs(t, res.Err(), context.DeadlineExceeded)
}

func TestRunWithProgress(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, translate.NewStaticTranslator(nil, false))

	var mu sync.Mutex
	var stages []Stage
	var last int32
	_, err := p.RunWithProgress(context.Background(), hindiInput, "hindi", []string{"tamil", "telugu"},
		func(stage Stage, percent int32, _ string) {
			mu.Lock()
			defer mu.Unlock()
			stages = append(stages, stage)
			last = percent
		})
	require.NoError(t, err)
	require.Equal(t, []Stage{StageTransliterate, StageNormalize, StageBridge, StageTargets, StageTargets, StageDone}, stages)
	require.EqualValues(t, 100, last)
}

func TestStageHelpers(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, translate.NewStaticTranslator(nil, false))

	native, err := p.TransliterateToNative(hindiInput, "hi")
	require.NoError(t, err)
	require.Equal(t, hindiNative, native)

	normalized, err := p.Normalize("क्लास  के बाद", "hindi")
	require.NoError(t, err)
	require.Equal(t, "कक्षा के बाद", normalized)

	mixed, err := p.DetectCodeMix("मुझे class के बाद", "hindi")
	require.NoError(t, err)
	require.Equal(t, []string{"class"}, mixed)

	_, err = p.TransliterateToNative("x", "zz")
	require.ErrorIs(t, err, profile.ErrUnsupportedLanguage)
	_, err = p.Normalize("x", "zz")
	require.ErrorIs(t, err, profile.ErrUnsupportedLanguage)
	_, err = p.DetectCodeMix("x", "zz")
	require.ErrorIs(t, err, profile.ErrUnsupportedLanguage)
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)

	tr := translate.NewStaticTranslator(nil, false)
	_, err = New(Config{Translator: tr, Strategy: "sideways"})
	require.ErrorContains(t, err, "unknown strategy")

	hindiOnly, err := profile.NewRegistry(profile.MustNew(profile.Config{Name: "hindi", Code: "hi", ModelTag: "hin_Deva"}))
	require.NoError(t, err)
	_, err = New(Config{Translator: tr, Registry: hindiOnly})
	require.ErrorIs(t, err, profile.ErrUnsupportedLanguage)
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Strategy{"": StrategyBridge, "Bridge": StrategyBridge, " direct ": StrategyDirect} {
		got, err := ParseStrategy(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseStrategy("pivot")
	require.Error(t, err)
}
