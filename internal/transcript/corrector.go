// Package transcript repairs speech-to-text output using session context.
//
// STT models routinely mangle proper nouns they have never seen: company
// names, product names, the candidate's own name. The corrector compares
// each transcript token against a session vocabulary, first phonetically
// and then by string similarity, and substitutes the canonical spelling on
// a confident match.
package transcript

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// Match thresholds. Phonetic matching is the cheaper, stronger signal and
// runs first; fuzzy matching catches spellings the phonetic codes miss.
const (
	phoneticThreshold = 0.70
	fuzzyThreshold    = 0.85
)

// Corrector rewrites transcript tokens toward a known vocabulary.
type Corrector struct {
	terms []term
}

type term struct {
	canonical string
	words     int
	primary   string
	secondary string
}

// NewCorrector builds a corrector for vocabulary. Empty and whitespace-only
// entries are dropped; multi-word entries match against token windows of the
// same length.
func NewCorrector(vocabulary ...string) *Corrector {
	c := &Corrector{}
	for _, v := range vocabulary {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		joined := strings.ToLower(strings.Join(strings.Fields(v), ""))
		primary, secondary := matchr.DoubleMetaphone(joined)
		c.terms = append(c.terms, term{
			canonical: v,
			words:     len(strings.Fields(v)),
			primary:   primary,
			secondary: secondary,
		})
	}
	return c
}

// Correct returns text with confidently matched tokens replaced by their
// canonical vocabulary spelling. Punctuation and casing of unmatched tokens
// are left untouched.
func (c *Corrector) Correct(text string) string {
	if len(c.terms) == 0 || text == "" {
		return text
	}

	words := strings.Fields(text)
	var out []string
	for i := 0; i < len(words); i++ {
		replaced := false
		for _, t := range c.terms {
			if i+t.words > len(words) {
				continue
			}
			window := words[i : i+t.words]
			core, prefix, suffix := windowCore(window)
			if core == "" {
				continue
			}
			if c.matches(core, t) {
				out = append(out, prefix+t.canonical+suffix)
				i += t.words - 1
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, words[i])
		}
	}
	return strings.Join(out, " ")
}

// windowCore strips outer punctuation and joins a token window into one
// comparable string.
func windowCore(window []string) (core, prefix, suffix string) {
	var b strings.Builder
	for i, w := range window {
		part, pre, suf := splitPunct(w)
		b.WriteString(part)
		if i == 0 {
			prefix = pre
		}
		if i == len(window)-1 {
			suffix = suf
		}
	}
	return b.String(), prefix, suffix
}

// matches reports whether core is a confident rendering of t. Exact
// (case-insensitive) hits are left alone so the canonical casing does not
// fight the speaker's.
func (c *Corrector) matches(core string, t term) bool {
	joined := strings.ToLower(strings.Join(strings.Fields(t.canonical), ""))
	lower := strings.ToLower(core)
	if lower == joined {
		return false
	}

	primary, secondary := matchr.DoubleMetaphone(lower)
	if phoneticScore(primary, secondary, t) >= phoneticThreshold {
		return true
	}
	return matchr.JaroWinkler(lower, joined, true) >= fuzzyThreshold
}

// phoneticScore compares metaphone codes. Identical primary codes score 1,
// a primary/secondary cross-hit scores 0.8, otherwise the codes themselves
// are compared fuzzily.
func phoneticScore(primary, secondary string, t term) float64 {
	if primary == "" || t.primary == "" {
		return 0
	}
	if primary == t.primary {
		return 1
	}
	if primary == t.secondary || secondary == t.primary {
		return 0.8
	}
	return matchr.JaroWinkler(primary, t.primary, true) * 0.7
}

// splitPunct strips leading and trailing punctuation from a token.
func splitPunct(w string) (core, prefix, suffix string) {
	start := 0
	for start < len(w) && !isWordRune(rune(w[start])) {
		start++
	}
	end := len(w)
	for end > start && !isWordRune(rune(w[end-1])) {
		end--
	}
	return w[start:end], w[:start], w[end:]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
