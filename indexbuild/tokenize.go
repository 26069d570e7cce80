package indexbuild

import "strings"

// Tokenize lowercases title+" "+artist and extracts maximal runs of
// characters in [a-z0-9] or the Thai Unicode block (U+0E00-U+0E7F),
// discarding runs shorter than 2 characters. This is the only
// tokenization rule; no diacritic folding, no stemming.
func Tokenize(title, artist string) []string {
	combined := strings.ToLower(title + " " + artist)

	var tokens []string
	var run []rune
	flush := func() {
		if len(run) >= 2 {
			tokens = append(tokens, string(run))
		}
		run = run[:0]
	}
	for _, r := range combined {
		if isTokenRune(r) {
			run = append(run, r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func isTokenRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 0x0E00 && r <= 0x0E7F:
		return true
	default:
		return false
	}
}
