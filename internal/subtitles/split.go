package subtitles

import (
	"fmt"
	"sort"
	"strings"
)

// PartRange is the byte range a part occupies in its span's joined text.
type PartRange struct {
	Start int
	End   int
}

// Contains reports whether offset lies in [Start, End).
func (r PartRange) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// Attributor maps a sentence's starting offset to the index of the part that
// produced it. ok is false when no part's range holds the offset.
type Attributor interface {
	Locate(ranges []PartRange, offset int) (index int, ok bool)
}

// LinearAttributor scans ranges in order.
type LinearAttributor struct{}

func (LinearAttributor) Locate(ranges []PartRange, offset int) (int, bool) {
	for i, r := range ranges {
		if r.Contains(offset) {
			return i, true
		}
	}
	return 0, false
}

// IndexedAttributor binary-searches the range ends, which strictly increase
// because parts are separated by one joining byte.
type IndexedAttributor struct{}

func (IndexedAttributor) Locate(ranges []PartRange, offset int) (int, bool) {
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].End > offset })
	if i < len(ranges) && ranges[i].Contains(offset) {
		return i, true
	}
	return 0, false
}

// NewAttributor resolves an attribution strategy by name.
func NewAttributor(name string) (Attributor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear":
		return LinearAttributor{}, nil
	case "indexed":
		return IndexedAttributor{}, nil
	default:
		return nil, fmt.Errorf("unknown attribution strategy %q", name)
	}
}

// Ranges computes each part's range in the span's joined text.
func (s Span) Ranges() []PartRange {
	ranges := make([]PartRange, len(s.Parts))
	cursor := 0
	for i, part := range s.Parts {
		ranges[i] = PartRange{Start: cursor, End: cursor + len(part.Text)}
		cursor += len(part.Text) + 1
	}
	return ranges
}

type candidate struct {
	text   string
	offset int
}

// splitInclusive cuts text after every terminator, keeping the terminator on
// the preceding piece. Terminators protected by abbrevs do not cut.
func splitInclusive(text string, abbrevs Abbreviations) []candidate {
	var out []candidate
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) || abbrevs.Protects(text, i) {
			continue
		}
		out = append(out, candidate{text: text[start : i+1], offset: start})
		start = i + 1
	}
	if start < len(text) {
		out = append(out, candidate{text: text[start:], offset: start})
	}
	return out
}
