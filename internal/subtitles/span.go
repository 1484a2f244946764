package subtitles

import "strings"

// Part is one block's contribution to a span.
type Part struct {
	Text  string
	Start string
}

// Span is a run of consecutive blocks not yet known to end a sentence.
// Append copies, so earlier values are unaffected.
type Span struct {
	Parts []Part
}

// Append returns a span with part added at the end.
func (s Span) Append(part Part) Span {
	parts := make([]Part, len(s.Parts), len(s.Parts)+1)
	copy(parts, s.Parts)
	return Span{Parts: append(parts, part)}
}

// Empty reports whether the span holds no parts.
func (s Span) Empty() bool {
	return len(s.Parts) == 0
}

// Joined is the parts' text joined by single spaces.
func (s Span) Joined() string {
	texts := make([]string, len(s.Parts))
	for i, part := range s.Parts {
		texts[i] = part.Text
	}
	return strings.Join(texts, " ")
}

// ClosesFunc decides whether a part's text ends the current span.
type ClosesFunc func(text string) bool

// EndsWithTerminator is the naive close rule: the trimmed text ends in '.', '?' or '!'.
func EndsWithTerminator(text string) bool {
	text = strings.TrimSpace(text)
	return text != "" && isTerminator(text[len(text)-1])
}

// Accumulate folds blocks into spans. A span closes on the first appended
// block whose text satisfies closes; an unterminated tail is returned as a
// final span so nothing is dropped. Blocks without text are no-op steps.
func Accumulate(blocks []Block, closes ClosesFunc) []Span {
	if closes == nil {
		closes = EndsWithTerminator
	}
	var (
		spans   []Span
		current Span
	)
	for _, block := range blocks {
		if strings.TrimSpace(block.Text) == "" {
			continue
		}
		current = current.Append(Part{Text: block.Text, Start: block.Start})
		if closes(block.Text) {
			spans = append(spans, current)
			current = Span{}
		}
	}
	if !current.Empty() {
		spans = append(spans, current)
	}
	return spans
}
