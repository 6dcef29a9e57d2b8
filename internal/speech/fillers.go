package speech

import "strings"

// fillerPhrases are counted in transcripts, longest phrase first so "you
// know" is not double-counted as "you" + "know".
var fillerPhrases = []string{
	"you know",
	"um",
	"uh",
	"like",
	"so",
	"actually",
	"basically",
}

// CountFillers counts filler words and phrases in text. Matching is
// case-insensitive and punctuation-tolerant; each token contributes to at
// most one filler.
func CountFillers(text string) int {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	count := 0
	for i := 0; i < len(tokens); i++ {
		matched := 0
		for _, phrase := range fillerPhrases {
			parts := strings.Fields(phrase)
			if i+len(parts) > len(tokens) {
				continue
			}
			hit := true
			for j, p := range parts {
				if tokens[i+j] != p {
					hit = false
					break
				}
			}
			if hit {
				matched = len(parts)
				break
			}
		}
		if matched > 0 {
			count++
			i += matched - 1
		}
	}
	return count
}

// tokenize lowercases and strips punctuation from each word.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
