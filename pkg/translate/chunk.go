package translate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the request size above which Chunked splits input.
const DefaultChunkSize = 4 * 1024

// chunked splits long input at paragraph and sentence boundaries and
// translates the pieces one after another.
type chunked struct {
	Translator
	maxBytes int
}

// Chunked wraps tr so that requests longer than maxBytes are translated
// piecewise. Pieces are rejoined with the separator that followed them.
func Chunked(tr Translator, maxBytes int) Translator {
	if maxBytes <= 0 {
		maxBytes = DefaultChunkSize
	}
	return &chunked{Translator: tr, maxBytes: maxBytes}
}

func (c *chunked) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error) {
	if len(text) <= c.maxBytes {
		return c.Translator.Translate(ctx, text, sourceTag, targetTag)
	}

	pieces := splitIntoChunks(text, c.maxBytes)
	var b strings.Builder
	for i, piece := range pieces {
		out, err := c.Translator.Translate(ctx, piece.text, sourceTag, targetTag)
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w", i+1, len(pieces), err)
		}
		b.WriteString(out)
		b.WriteString(piece.sep)
	}
	return b.String(), nil
}

type chunk struct {
	text string
	// sep is written after the translated text when rejoining.
	sep string
}

// splitIntoChunks packs paragraphs into chunks of at most maxBytes. A
// paragraph that is too large on its own is packed sentence by sentence; a
// single sentence larger than maxBytes becomes its own chunk.
func splitIntoChunks(text string, maxBytes int) []chunk {
	if len(text) <= maxBytes {
		return []chunk{{text: text}}
	}

	var chunks []chunk
	var current strings.Builder
	flush := func(sep string) {
		if current.Len() > 0 {
			chunks = append(chunks, chunk{text: current.String(), sep: sep})
			current.Reset()
		}
	}
	add := func(part, joiner string) {
		if current.Len() > 0 && current.Len()+len(joiner)+len(part) > maxBytes {
			flush(joiner)
		}
		if current.Len() > 0 {
			current.WriteString(joiner)
		}
		current.WriteString(part)
	}

	for _, para := range strings.Split(text, "\n\n") {
		if len(para) <= maxBytes {
			add(para, "\n\n")
			continue
		}
		flush("\n\n")
		for _, sentence := range splitBySentences(para) {
			add(sentence, " ")
		}
		flush("\n\n")
	}
	flush("")
	if n := len(chunks); n > 0 {
		chunks[n-1].sep = ""
	}

	return chunks
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '।', '॥':
		return true
	}
	return false
}

// splitBySentences splits at sentence punctuation (including the danda)
// followed by whitespace or the end of the text.
func splitBySentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if !isSentenceEnd(r) {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(text) && !strings.ContainsRune(" \n\t", rune(text[next])) {
			continue
		}
		if s := strings.TrimSpace(text[start:next]); s != "" {
			sentences = append(sentences, s)
		}
		start = next
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
