// Package tokenize splits free text into the lower-case tokens used by both
// keyword extraction and the inverted index.
package tokenize

import (
	"strings"
	"unicode"
)

// Tokens returns lower-case segments made of letters, digits and the symbols
// '+', '#' and '.', so that "C++", "C#" and "Node.js" survive as single
// tokens. Leading symbols and trailing dots are trimmed and empty segments
// dropped. Order and duplicates are preserved.
func Tokens(text string) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := strings.TrimLeft(b.String(), "+#.")
		tok = strings.TrimRight(tok, ".")
		if hasAlnum(tok) {
			tokens = append(tokens, tok)
		}
		b.Reset()
	}

	for _, r := range text {
		if isTokenRune(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// Unique returns the tokens of text with duplicates removed, keeping the
// first occurrence order.
func Unique(text string) []string {
	all := Tokens(text)
	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, tok := range all {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.'
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
