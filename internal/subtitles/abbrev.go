package subtitles

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// DefaultAbbreviations are the tokens protected when no explicit list is configured.
var DefaultAbbreviations = []string{
	"mr.", "mrs.", "ms.", "dr.", "prof.", "sr.", "jr.", "st.", "vs.",
	"etc.", "e.g.", "i.e.", "a.m.", "p.m.", "u.s.", "no.",
}

const (
	leadingTokenPunct  = "\"'([{“‘«¿¡"
	trailingTokenPunct = "\"')]}”’»,;:"
)

// Abbreviations is a case-insensitive set of tokens whose terminators do not
// end a sentence. The zero value protects nothing.
type Abbreviations struct {
	tokens map[string]struct{}
}

// NewAbbreviations builds a protected token set. Blank entries are ignored.
func NewAbbreviations(tokens []string) Abbreviations {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		set[foldToken(token)] = struct{}{}
	}
	return Abbreviations{tokens: set}
}

// Len reports the number of distinct protected tokens.
func (a Abbreviations) Len() int {
	return len(a.tokens)
}

// Contains reports whether token is protected, ignoring case.
func (a Abbreviations) Contains(token string) bool {
	if len(a.tokens) == 0 {
		return false
	}
	_, ok := a.tokens[foldToken(token)]
	return ok
}

// Protects reports whether the terminator at byte index idx of text belongs
// to a protected token.
func (a Abbreviations) Protects(text string, idx int) bool {
	if len(a.tokens) == 0 || idx < 0 || idx >= len(text) || !isTerminator(text[idx]) {
		return false
	}
	start, end := tokenBounds(text, idx)
	if idx < start || idx >= end {
		return false
	}
	return a.Contains(text[start:end])
}

// tokenBounds returns the whitespace-delimited token around idx with
// surrounding quotes, brackets and trailing commas stripped.
func tokenBounds(text string, idx int) (int, int) {
	start := 0
	if i := strings.LastIndexFunc(text[:idx], unicode.IsSpace); i >= 0 {
		_, width := utf8.DecodeRuneInString(text[i:])
		start = i + width
	}
	end := len(text)
	if rel := strings.IndexFunc(text[idx:], unicode.IsSpace); rel >= 0 {
		end = idx + rel
	}
	token := text[start:end]
	trimmedLeft := strings.TrimLeft(token, leadingTokenPunct)
	start += len(token) - len(trimmedLeft)
	trimmed := strings.TrimRight(trimmedLeft, trailingTokenPunct)
	end = start + len(trimmed)
	return start, end
}

func foldToken(token string) string {
	return cases.Fold().String(token)
}

func isTerminator(b byte) bool {
	return b == '.' || b == '?' || b == '!'
}
