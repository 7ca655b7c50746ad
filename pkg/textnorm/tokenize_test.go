package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want []Token
	}{
		{"empty", "", []Token{}},
		{"spaces only", "  \t\n", []Token{}},
		{"words", "mujhe  class", []Token{{"mujhe", KindWord}, {"class", KindWord}}},
		{"punctuation", "hai, kya?", []Token{{"hai", KindWord}, {",", KindSymbol}, {"kya", KindWord}, {"?", KindSymbol}}},
		{"native marks stay whole", "मुझे क्लास।", []Token{{"मुझे", KindWord}, {"क्लास", KindWord}, {"।", KindSymbol}}},
		{"digits and underscore", "room_2 ok", []Token{{"room_2", KindWord}, {"ok", KindWord}}},
		{"adjacent symbols", "!!", []Token{{"!", KindSymbol}, {"!", KindSymbol}}},
		{"joiner inside word", "\u0d28\u0d4d\u200d\u0d31\u0d46", []Token{{"\u0d28\u0d4d\u200d\u0d31\u0d46", KindWord}}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Tokenize(tc.in))
		})
	}
}

func TestTokenizePreservesNonSpaceContent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"mujhe class ke baad, meeting me aana hai!",
		"  (ente)   class...kazhinju  ",
		"नमस्ते। hello",
	} {
		joined := Join(Texts(Tokenize(in)))
		require.Equal(t, strings.Join(strings.Fields(in), ""), strings.ReplaceAll(joined, " ", ""), in)
	}
}

func TestTokenKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "word", KindWord.String())
	require.Equal(t, "symbol", KindSymbol.String())
}
