package translation

import (
	"strings"
	"unicode/utf8"
)

// sentenceEnd reports whether r closes a sentence for chunking purposes.
func sentenceEnd(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?', '\n':
		return true
	}
	return false
}

// Chunk splits text longer than limit runes after sentence-ending punctuation
// and greedily packs sentences into chunks of at most limit runes. A single
// sentence longer than limit becomes its own oversized chunk. Joining the
// chunks yields text.
func Chunk(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var sentences []string
	start := 0
	for i, r := range text {
		if sentenceEnd(r) {
			end := i + utf8.RuneLen(r)
			sentences = append(sentences, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if currentLen > 0 && currentLen+n > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		current.WriteString(s)
		currentLen += n
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
