package textnorm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dasmlab/lingosense/pkg/profile"
)

func TestIndicNormalizer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, tag, in, want string
	}{
		{"empty", "hi", "", ""},
		{"vowel virama", "mr", "आ्हे", "आहे"},
		{"zero width space", "hi", "\u0915\u200b\u0932", "कल"},
		{"nbsp", "hi", "मुझे\u00a0कक्षा", "मुझे कक्षा"},
		{"pipes fold to double danda", "hi", "है||", "है॥"},
		{"repeated danda", "hi", "है।।", "है॥"},
		{"malayalam chillu", "ml", "\u0d28\u0d4d\u200d", "\u0d7b"},
		{"bengali khanda ta", "bn", "\u09a4\u09cd\u200d", "\u09ce"},
		{"bengali composes vowel sign", "bn", "\u09ad\u09be\u09b2\u09c7\u09be", "\u09ad\u09be\u09b2\u09cb"},
		{"model tag resolves script", "hin_Deva", "आ्", "आ"},
		{"latin keeps joiners", "en", "a\u200db", "a\u200db"},
	}
	n := NewIndicNormalizer()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, n.Normalize(tc.in, tc.tag))
		})
	}
}

func TestScriptFor(t *testing.T) {
	t.Parallel()

	require.Equal(t, "devanagari", ScriptFor("hi"))
	require.Equal(t, "devanagari", ScriptFor("hi-IN"))
	require.Equal(t, "devanagari", ScriptFor("mar_Deva"))
	require.Equal(t, "malayalam", ScriptFor("mal"))
	require.Equal(t, "", ScriptFor("en"))
	require.Equal(t, "", ScriptFor("??"))
}

func TestNormalizeHindiCorrections(t *testing.T) {
	t.Parallel()

	hindi := defaultProfile(t, "hindi")
	n := NewNormalizer(nil)

	require.Equal(t, "मुझे कक्षा के बाद बैठक", n.Normalize("  मुझे   क्लास के बाद मीटिंग ", hindi))
	require.Equal(t, "", n.Normalize("", hindi))
}

func TestNormalizeWholeWordSubstitution(t *testing.T) {
	t.Parallel()

	bengali := defaultProfile(t, "bengali")
	n := NewNormalizer(nil)

	require.Equal(t, "আমি ভালো আছি", n.Normalize("আমি ভাল আছি", bengali))
	require.Equal(t, "আমি ভালো আছি", n.Normalize("আমি ভালো আছি", bengali))
}

func TestNormalizeMarathiStripsZeroWidth(t *testing.T) {
	t.Parallel()

	marathi := defaultProfile(t, "marathi")
	require.Equal(t, "छान", NewNormalizer(nil).Normalize("\u091b\u200c\u094d\u0939\u093e\u0928", marathi))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	reg, err := profile.Default()
	require.NoError(t, err)

	samples := []string{
		"",
		"  मुझे   क्लास के बाद मीटिंग में आना है ",
		"आ्हे || छ्हान\u200c",
		"আমি ভাল আছি",
		"చ్లస్స్ కి వేల్లలి మీరు",
		"\u0d28\u0d4d\u200d \u0d0e\u0d28\u0d4d\u0d31\u0d46",
		"নমস্কার।। hello\u00a0world",
		"class ke baad",
		"\u0928\u200c\u093c",
	}

	n := NewNormalizer(nil)
	for _, p := range reg.Profiles() {
		for _, s := range samples {
			once := n.Normalize(s, p)
			require.Equal(t, once, n.Normalize(once, p), "%s: %q", p.Name(), s)
		}
	}
}

func TestNormalizeSettlesSubstitutions(t *testing.T) {
	t.Parallel()

	reg, err := profile.Default()
	require.NoError(t, err)
	marathi, err := reg.Lookup("marathi")
	require.NoError(t, err)

	n := NewNormalizer(nil)

	// Dropping ZWNJ leaves na + nukta, which composes to U+0929.
	require.Equal(t, "\u0929", n.Normalize("\u0928\u200c\u093c", marathi))

	overlap := profile.MustNew(profile.Config{
		Name:          "overlap",
		ModelTag:      "hin_Deva",
		Normalizer:    "hi",
		Substitutions: []profile.Substitution{{From: "कख", To: "ख"}},
	})
	once := n.Normalize("ककख", overlap)
	require.Equal(t, "ख", once)
	require.Equal(t, once, n.Normalize(once, overlap))
}

func TestApplySubstitutionsOrder(t *testing.T) {
	t.Parallel()

	subs := []profile.Substitution{
		{From: "ab", To: "x"},
		{From: "x", To: "y"},
		{From: "y", To: "zz", WholeWord: true},
	}
	require.Equal(t, "zz cy", ApplySubstitutions("ab   cab", subs))
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a b c", CollapseWhitespace(" a\t\tb \n c "))
	require.Equal(t, "", CollapseWhitespace("   "))
}
