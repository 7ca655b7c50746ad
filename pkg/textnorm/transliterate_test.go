package textnorm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dasmlab/lingosense/pkg/profile"
)

type engineFunc func(text, from, to string) (string, error)

func (f engineFunc) Transliterate(text, from, to string) (string, error) { return f(text, from, to) }

func defaultProfile(t *testing.T, tag string) *profile.LanguageProfile {
	t.Helper()
	reg, err := profile.Default()
	require.NoError(t, err)
	p, err := reg.Lookup(tag)
	require.NoError(t, err)
	return p
}

func TestTransliterateHindiSentence(t *testing.T) {
	t.Parallel()

	hindi := defaultProfile(t, "hindi")
	out := NewTransliterator(nil).Transliterate("mujhe class ke baad meeting me aana hai", hindi)

	require.Equal(t, "मुझे कक्षा के बाद बैठक में आना है", out.Text)
	require.False(t, out.Phrase)
	require.Len(t, out.Tokens, 8)
	for _, tok := range out.Tokens {
		require.Equal(t, OutcomeLexicon, tok.Outcome, tok.Source)
	}
}

func TestLexiconWinsOverGenericTransliteration(t *testing.T) {
	t.Parallel()

	p := profile.MustNew(profile.Config{
		Name:         "hindi",
		ModelTag:     "hin_Deva",
		SourceScheme: "itrans",
		TargetScript: "devanagari",
		Lexicon:      map[string]string{"kal": "कल"},
	})
	tr := NewTransliterator(nil)

	res := tr.Token("KAL", p)
	require.Equal(t, "कल", res.Text)
	require.Equal(t, OutcomeLexicon, res.Outcome)

	res = tr.Token("aaj", p)
	require.Equal(t, "आज्", res.Text)
	require.Equal(t, OutcomeTransliterated, res.Outcome)
}

func TestTransliteratePassthrough(t *testing.T) {
	t.Parallel()

	p := profile.MustNew(profile.Config{
		Name:         "hindi",
		ModelTag:     "hin_Deva",
		SourceScheme: "itrans",
		TargetScript: "devanagari",
	})

	cases := []struct {
		name    string
		engine  engineFunc
		wantErr bool
	}{
		{"error", func(string, string, string) (string, error) { return "", errors.New("boom") }, true},
		{"panic", func(string, string, string) (string, error) { panic("bad table") }, true},
		{"latin residue", func(text, _, _ string) (string, error) { return "क" + text, nil }, false},
		{"empty", func(string, string, string) (string, error) { return "", nil }, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := NewTransliterator(tc.engine).Token("Zoom", p)
			require.Equal(t, "Zoom", res.Text)
			require.Equal(t, OutcomePassthrough, res.Outcome)
			require.Equal(t, tc.wantErr, res.Err != nil)
		})
	}
}

func TestTransliterateLeavesNonLatinTokens(t *testing.T) {
	t.Parallel()

	hindi := defaultProfile(t, "hi")
	calls := 0
	tr := NewTransliterator(engineFunc(func(text, _, _ string) (string, error) {
		calls++
		return text, nil
	}))

	out := tr.Transliterate("नमस्ते 123 ?", hindi)
	require.Equal(t, "नमस्ते 123 ?", out.Text)
	require.Zero(t, calls)
	for _, tok := range out.Tokens {
		require.Equal(t, OutcomeNonLatin, tok.Outcome)
	}
}

func TestTransliteratePreservesTokenCount(t *testing.T) {
	t.Parallel()

	hindi := defaultProfile(t, "hindi")
	tr := NewTransliterator(nil)

	for _, in := range []string{
		"hai, kya?",
		"mujhe (class) ke baad...",
		"Zoom call at 5 pm!",
	} {
		out := tr.Transliterate(in, hindi)
		require.Len(t, Tokenize(out.Text), len(Tokenize(in)), in)
	}

	out := tr.Transliterate("hai, kya?", hindi)
	require.Equal(t, "है , क्य ?", out.Text)
}

func TestTransliterateEmptyInput(t *testing.T) {
	t.Parallel()

	out := NewTransliterator(nil).Transliterate("", defaultProfile(t, "hindi"))
	require.Equal(t, "", out.Text)
	require.Empty(t, out.Tokens)
}

func TestTransliteratePhraseOverride(t *testing.T) {
	t.Parallel()

	malayalam := defaultProfile(t, "malayalam")
	out := NewTransliterator(nil).Transliterate("Ente school poyi", malayalam)

	require.True(t, out.Phrase)
	require.Equal(t, "എന്റെ സ്കൂൾ പോയി", out.Text)
}

func TestTransliterateAppliesCleanup(t *testing.T) {
	t.Parallel()

	marathi := defaultProfile(t, "marathi")
	out := NewTransliterator(nil).Transliterate("tu kasaaH", marathi)
	require.Equal(t, "तू कसा", out.Text)
}

func TestEnglishProfileKeepsLatin(t *testing.T) {
	t.Parallel()

	out := NewTransliterator(nil).Transliterate("see you  after class", defaultProfile(t, "english"))
	require.Equal(t, "see you after class", out.Text)
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "lexicon", OutcomeLexicon.String())
	require.Equal(t, "non_latin", OutcomeNonLatin.String())
	require.Equal(t, "outcome(9)", Outcome(9).String())
}

func TestDetectCodeMix(t *testing.T) {
	t.Parallel()

	hindi := defaultProfile(t, "hindi")

	got := DetectCodeMix("मुझे class, Class! कल meeting", hindi)
	require.Equal(t, []string{"class", "Class", "meeting"}, got)

	in := "mujhe class ke baad meeting me aana hai"
	require.Equal(t, Texts(Tokenize(in)), DetectCodeMix(in, hindi))

	require.Empty(t, DetectCodeMix("", hindi))
	require.Empty(t, DetectCodeMix("नमस्ते।", hindi))
}
