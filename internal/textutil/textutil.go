package textutil

import (
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zeebo/blake3"
)

// Script identifies a writing system used to decide whether a line holds
// text in a given language.
type Script string

const (
	Latin    Script = "latin"
	Han      Script = "han"
	Kana     Script = "kana"
	Hangul   Script = "hangul"
	Cyrillic Script = "cyrillic"
)

// Is reports whether r belongs to the script. Kana also accepts Han, since
// Japanese prose mixes both.
func (s Script) Is(r rune) bool {
	switch s {
	case Latin:
		return r < utf8.RuneSelf && unicode.IsLetter(r)
	case Han:
		return unicode.Is(unicode.Han, r)
	case Kana:
		return unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han)
	case Hangul:
		return unicode.Is(unicode.Hangul, r)
	case Cyrillic:
		return unicode.Is(unicode.Cyrillic, r)
	}
	return false
}

// Marks reports whether r is distinctive for the script, i.e. its presence
// means the text is already written in it. Kana is only marked by kana.
func (s Script) Marks(r rune) bool {
	if s == Kana {
		return unicode.In(r, unicode.Hiragana, unicode.Katakana)
	}
	return s.Is(r)
}

// MinRun is the number of consecutive script letters that count as prose.
func (s Script) MinRun() int {
	if s == Latin {
		return 3
	}
	return 1
}

// HasRun reports whether text contains at least MinRun consecutive runes of the script.
func (s Script) HasRun(text string) bool {
	need := s.MinRun()
	run := 0
	for _, r := range text {
		if s.Is(r) {
			run++
			if run >= need {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}

// Contains reports whether text holds any rune that marks the script.
func (s Script) Contains(text string) bool {
	for _, r := range text {
		if s.Marks(r) {
			return true
		}
	}
	return false
}

// Has reports whether text holds at least one letter of the script.
func (s Script) Has(text string) bool {
	return strings.IndexFunc(text, s.Is) >= 0
}

var samples = map[Script][]rune{
	Latin:    {'a'},
	Han:      {'漢'},
	Kana:     {'か', 'カ'},
	Hangul:   {'한'},
	Cyrillic: {'д'},
}

// Covers reports whether every letter that marks t is also a letter of s, so
// that t's marks cannot tell t's text from s's.
func (s Script) Covers(t Script) bool {
	marked := false
	for _, r := range samples[t] {
		if !t.Marks(r) {
			continue
		}
		if !s.Is(r) {
			return false
		}
		marked = true
	}
	return marked
}

// Hash computes a BLAKE3-256 hex digest of a string for deduplication.
func Hash(s string) string {
	h := blake3.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Truncate shortens a string to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen]) + "..."
}

// SplitIndent returns the leading whitespace, the trimmed body and the trailing
// whitespace of a line, so that indent+body+trail == line.
func SplitIndent(line string) (indent, body, trail string) {
	body = strings.TrimLeftFunc(line, unicode.IsSpace)
	indent = line[:len(line)-len(body)]
	trimmed := strings.TrimRightFunc(body, unicode.IsSpace)
	trail = body[len(trimmed):]
	return indent, trimmed, trail
}
