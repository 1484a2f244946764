package subtitles

import (
	"strings"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
)

func blocksOf(pairs ...string) []Block {
	blocks := make([]Block, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		blocks = append(blocks, Block{Index: len(blocks) + 1, Start: pairs[i], Text: pairs[i+1]})
	}
	return blocks
}

func TestSegmentSentences(t *testing.T) {
	tests := []struct {
		name   string
		blocks []Block
		want   []Sentence
	}{
		{
			name:   "sentence across two blocks",
			blocks: blocksOf("00:00:01,000", "Hello there", "00:00:02,500", "my friend."),
			want:   []Sentence{{Timestamp: "00:00:01,000", Text: "Hello there my friend."}},
		},
		{
			name:   "abbreviation splits without protection",
			blocks: blocksOf("00:00:00,000", "I saw Mr.", "00:00:01,000", "Smith today."),
			want: []Sentence{
				{Timestamp: "00:00:00,000", Text: "I saw Mr."},
				{Timestamp: "00:00:01,000", Text: "Smith today."},
			},
		},
		{
			name:   "two sentences in one block",
			blocks: blocksOf("00:00:05,000", "Stop! Go now."),
			want: []Sentence{
				{Timestamp: "00:00:05,000", Text: "Stop!"},
				{Timestamp: "00:00:05,000", Text: "Go now."},
			},
		},
		{
			name:   "unterminated tail is flushed",
			blocks: blocksOf("00:00:07,000", "It was late.", "00:00:09,000", "and then"),
			want: []Sentence{
				{Timestamp: "00:00:07,000", Text: "It was late."},
				{Timestamp: "00:00:09,000", Text: "and then"},
			},
		},
		{
			name:   "second sentence starts in a later block",
			blocks: blocksOf("00:00:01,000", "Hi", "00:00:02,000", "there. And", "00:00:03,000", "more."),
			want: []Sentence{
				{Timestamp: "00:00:01,000", Text: "Hi there."},
				{Timestamp: "00:00:02,000", Text: "And more."},
			},
		},
		{
			name:   "interrobang splits into two",
			blocks: blocksOf("00:00:01,000", "What?!"),
			want: []Sentence{
				{Timestamp: "00:00:01,000", Text: "What?"},
				{Timestamp: "00:00:01,000", Text: "!"},
			},
		},
		{
			name:   "ellipsis splits per dot",
			blocks: blocksOf("00:00:01,000", "Wait..."),
			want: []Sentence{
				{Timestamp: "00:00:01,000", Text: "Wait."},
				{Timestamp: "00:00:01,000", Text: "."},
				{Timestamp: "00:00:01,000", Text: "."},
			},
		},
		{
			name:   "empty blocks are skipped",
			blocks: blocksOf("00:00:01,000", "", "00:00:02,000", "Hi.", "00:00:03,000", "  "),
			want:   []Sentence{{Timestamp: "00:00:02,000", Text: "Hi."}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := NewSegmenter().Segment(tc.blocks)
			if diff := cmp.Diff(tc.want, result.Sentences); diff != "" {
				t.Fatalf("sentences mismatch (-want +got):\n%s", diff)
			}
			if result.Stats.Sentences != len(tc.want) {
				t.Fatalf("stats.Sentences = %d, want %d", result.Stats.Sentences, len(tc.want))
			}
			if result.Stats.Blocks != len(tc.blocks) {
				t.Fatalf("stats.Blocks = %d, want %d", result.Stats.Blocks, len(tc.blocks))
			}
		})
	}
}

func TestSegmentNoTerminatorYieldsWholeInput(t *testing.T) {
	blocks := blocksOf(
		"00:00:01,000", "so we kept walking",
		"00:00:02,000", "down the road",
		"00:00:03,000", "  until dark  ",
	)
	result := NewSegmenter().Segment(blocks)
	want := []Sentence{{Timestamp: "00:00:01,000", Text: "so we kept walking down the road   until dark"}}
	if diff := cmp.Diff(want, result.Sentences); diff != "" {
		t.Fatalf("sentences mismatch (-want +got):\n%s", diff)
	}
	if result.Stats.Spans != 1 {
		t.Fatalf("expected one span, got %d", result.Stats.Spans)
	}
}

func TestSplitSpanSingleSentenceIsUnchanged(t *testing.T) {
	seg := NewSegmenter()
	span := Span{}.Append(Part{Text: "Hello there my friend.", Start: "00:00:01,000"})
	first := seg.SplitSpan(span)
	want := []Sentence{{Timestamp: "00:00:01,000", Text: "Hello there my friend."}}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("first split mismatch (-want +got):\n%s", diff)
	}
	again := seg.SplitSpan(Span{}.Append(Part{Text: first[0].Text, Start: first[0].Timestamp}))
	if diff := cmp.Diff(first, again); diff != "" {
		t.Fatalf("re-split changed output (-first +again):\n%s", diff)
	}
	if got := seg.SplitSpan(Span{}); got != nil {
		t.Fatalf("expected nil for empty span, got %+v", got)
	}
}

func TestSegmentFallbackUsesSpanStart(t *testing.T) {
	seg := NewSegmenter()
	span := Span{Parts: []Part{
		{Text: "Hi.", Start: "00:00:01,000"},
		{Text: "there.", Start: "00:00:02,000"},
	}}
	var stats Stats
	got := seg.split(span, &stats)
	want := []Sentence{
		{Timestamp: "00:00:01,000", Text: "Hi."},
		{Timestamp: "00:00:01,000", Text: "there."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sentences mismatch (-want +got):\n%s", diff)
	}
	if stats.Fallbacks != 1 {
		t.Fatalf("stats.Fallbacks = %d, want 1", stats.Fallbacks)
	}
}

func TestSegmentCountsDiscardedCandidates(t *testing.T) {
	seg := NewSegmenter()
	span := Span{Parts: []Part{{Text: "Go. ", Start: "00:00:01,000"}}}
	var stats Stats
	got := seg.split(span, &stats)
	if len(got) != 1 || got[0].Text != "Go." {
		t.Fatalf("unexpected sentences %+v", got)
	}
	if stats.Discarded != 1 {
		t.Fatalf("stats.Discarded = %d, want 1", stats.Discarded)
	}
}

func TestSegmentProtectMode(t *testing.T) {
	seg := NewSegmenter(WithAbbreviations(NewAbbreviations(DefaultAbbreviations)))
	tests := []struct {
		name   string
		blocks []Block
		want   []Sentence
	}{
		{
			name:   "title keeps span open",
			blocks: blocksOf("00:00:00,000", "I saw Mr.", "00:00:01,000", "Smith today."),
			want:   []Sentence{{Timestamp: "00:00:00,000", Text: "I saw Mr. Smith today."}},
		},
		{
			name:   "every dot of a protected token",
			blocks: blocksOf("00:00:02,000", "Use a tool, e.g. a hammer. Then stop."),
			want: []Sentence{
				{Timestamp: "00:00:02,000", Text: "Use a tool, e.g. a hammer."},
				{Timestamp: "00:00:02,000", Text: "Then stop."},
			},
		},
		{
			name:   "case folded and punctuation stripped",
			blocks: blocksOf("00:00:03,000", `He met "DR. Jones" at 5 P.M., etc., then left.`),
			want:   []Sentence{{Timestamp: "00:00:03,000", Text: `He met "DR. Jones" at 5 P.M., etc., then left.`}},
		},
		{
			name:   "non-breaking space before title",
			blocks: blocksOf("00:00:05,000", "I saw\u00a0Mr. Smith today."),
			want:   []Sentence{{Timestamp: "00:00:05,000", Text: "I saw\u00a0Mr. Smith today."}},
		},
		{
			name:   "ideographic space before title",
			blocks: blocksOf("00:00:06,000", "I saw\u3000Mr. Smith today."),
			want:   []Sentence{{Timestamp: "00:00:06,000", Text: "I saw\u3000Mr. Smith today."}},
		},
		{
			name:   "non-breaking space keeps span open across blocks",
			blocks: blocksOf("00:00:07,000", "I saw\u00a0Mr.", "00:00:08,000", "Smith today."),
			want:   []Sentence{{Timestamp: "00:00:07,000", Text: "I saw\u00a0Mr. Smith today."}},
		},
		{
			name:   "trailing protected token flushed at end of input",
			blocks: blocksOf("00:00:09,000", "Meet me", "00:00:10,000", "at 5 p.m."),
			want:   []Sentence{{Timestamp: "00:00:09,000", Text: "Meet me at 5 p.m."}},
		},
		{
			name:   "unprotected terminators still split",
			blocks: blocksOf("00:00:04,000", "Stop! Go now."),
			want: []Sentence{
				{Timestamp: "00:00:04,000", Text: "Stop!"},
				{Timestamp: "00:00:04,000", Text: "Go now."},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := seg.Segment(tc.blocks).Sentences
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("sentences mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSegmentCoverageAndOrdering(t *testing.T) {
	inputs := [][]Block{
		blocksOf("00:00:01,000", "Hello there", "00:00:02,500", "my friend."),
		blocksOf("00:00:00,000", "I saw Mr.", "00:00:01,000", "Smith today. He", "00:00:02,000", "waved! Did you", "00:00:03,000", "see? Maybe"),
		blocksOf("00:00:01,000", "Wait... what?!", "00:00:02,000", "", "00:00:03,000", "e.g. this, i.e. that."),
		blocksOf("00:00:05,000", "Stop! Go now.", "00:00:06,000", "no terminator here"),
	}
	segmenters := map[string]*Segmenter{
		"naive":   NewSegmenter(),
		"protect": NewSegmenter(WithAbbreviations(NewAbbreviations(DefaultAbbreviations))),
		"indexed": NewSegmenter(WithAttributor(IndexedAttributor{})),
	}
	for name, seg := range segmenters {
		for i, blocks := range inputs {
			result := seg.Segment(blocks)

			var source, emitted strings.Builder
			for _, b := range blocks {
				source.WriteString(stripSpace(b.Text))
			}
			for _, s := range result.Sentences {
				if strings.TrimSpace(s.Text) == "" {
					t.Fatalf("%s input %d: empty sentence emitted", name, i)
				}
				emitted.WriteString(stripSpace(s.Text))
			}
			if source.String() != emitted.String() {
				t.Fatalf("%s input %d: coverage mismatch\nsource:  %q\nemitted: %q", name, i, source.String(), emitted.String())
			}

			for j := 1; j < len(result.Sentences); j++ {
				if result.Sentences[j].Timestamp < result.Sentences[j-1].Timestamp {
					t.Fatalf("%s input %d: sentence %d timestamp %s precedes %s", name, i, j, result.Sentences[j].Timestamp, result.Sentences[j-1].Timestamp)
				}
			}
		}
	}
}

func TestSegmentSRT(t *testing.T) {
	seg := NewSegmenter()
	result, err := seg.SegmentSRT("1\n00:00:01,000 --> 00:00:02,000\nHello there\n\n2\n00:00:02,500 --> 00:00:03,000\nmy friend.\n")
	if err != nil {
		t.Fatalf("SegmentSRT: %v", err)
	}
	want := []Sentence{{Timestamp: "00:00:01,000", Text: "Hello there my friend."}}
	if diff := cmp.Diff(want, result.Sentences); diff != "" {
		t.Fatalf("sentences mismatch (-want +got):\n%s", diff)
	}

	result, err = seg.SegmentSRT("1\n00:00:01,000 --> 00:00:02,000\nFine.\n\nbroken\n")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if len(result.Sentences) != 0 {
		t.Fatalf("expected no sentences on parse failure, got %d", len(result.Sentences))
	}
}

func TestAccumulateSpans(t *testing.T) {
	blocks := blocksOf(
		"00:00:01,000", "one",
		"00:00:02,000", "two.",
		"00:00:03,000", "three?",
		"00:00:04,000", "four",
	)
	spans := Accumulate(blocks, nil)
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	if got := spans[0].Joined(); got != "one two." {
		t.Fatalf("span 0 joined = %q", got)
	}
	if got := spans[2].Joined(); got != "four" {
		t.Fatalf("span 2 joined = %q", got)
	}
}

func TestSpanAppendDoesNotAlias(t *testing.T) {
	base := Span{}.Append(Part{Text: "a", Start: "1"})
	left := base.Append(Part{Text: "b", Start: "2"})
	right := base.Append(Part{Text: "c", Start: "3"})
	if left.Joined() != "a b" || right.Joined() != "a c" {
		t.Fatalf("appends aliased: %q %q", left.Joined(), right.Joined())
	}
	if len(base.Parts) != 1 {
		t.Fatalf("base mutated: %+v", base)
	}
}

func TestAttributorsAgree(t *testing.T) {
	spans := []Span{
		{Parts: []Part{{Text: "Hello"}}},
		{Parts: []Part{{Text: "Hi"}, {Text: "there. And"}, {Text: "more."}}},
		{Parts: []Part{{Text: "a"}, {Text: ""}, {Text: "bc"}, {Text: "def"}}},
	}
	for i, span := range spans {
		ranges := span.Ranges()
		limit := len(span.Joined()) + 2
		for offset := -1; offset < limit; offset++ {
			li, lok := LinearAttributor{}.Locate(ranges, offset)
			ii, iok := IndexedAttributor{}.Locate(ranges, offset)
			if li != ii || lok != iok {
				t.Fatalf("span %d offset %d: linear=(%d,%v) indexed=(%d,%v)", i, offset, li, lok, ii, iok)
			}
		}
	}
}

func TestNewAttributor(t *testing.T) {
	if a, err := NewAttributor(""); err != nil || a != (LinearAttributor{}) {
		t.Fatalf("default attributor = %T, %v", a, err)
	}
	if a, err := NewAttributor("Indexed"); err != nil || a != (IndexedAttributor{}) {
		t.Fatalf("indexed attributor = %T, %v", a, err)
	}
	if _, err := NewAttributor("tree"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
