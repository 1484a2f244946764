package subtitles

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Block is one timed cue as it appears in an SRT container.
type Block struct {
	Index int
	Start string
	End   string
	Text  string
}

// ErrMalformedSRT is wrapped by every ParseError.
var ErrMalformedSRT = errors.New("malformed srt")

// ParseError reports where an SRT container stopped making sense.
type ParseError struct {
	Line   int
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse srt: line %d (byte offset %d): %s", e.Line, e.Offset, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedSRT
}

var timingPattern = regexp.MustCompile(`^(\d{2,}:\d{2}:\d{2}[,.]\d{3})\s*(?:-->|→)\s*(\d{2,}:\d{2}:\d{2}[,.]\d{3})`)

const utf8BOM = "\uFEFF"

// ReadSRTFile loads and parses the SRT file at path.
func ReadSRTFile(path string) ([]Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return ParseSRT(string(data))
}

// ParseSRT parses raw SRT text into ordered blocks. Text lines inside a cue
// are joined with a single space; cues without text are kept with an empty
// Text so their timing stays visible to callers. Any structural problem
// aborts the parse with a *ParseError and no blocks.
func ParseSRT(data string) ([]Block, error) {
	lr := newLineReader(data)
	var blocks []Block
	for {
		if !lr.skipBlank() {
			break
		}

		indexLine := lr.next()
		index, err := strconv.Atoi(strings.TrimSpace(indexLine.text))
		if err != nil {
			return nil, indexLine.errorf("expected numeric cue index, got %q", snippet(indexLine.text))
		}

		timing, ok := lr.peek()
		if !ok || strings.TrimSpace(timing.text) == "" {
			return nil, lr.errorAt(timing, ok, "missing timing line for cue %d", index)
		}
		lr.next()
		match := timingPattern.FindStringSubmatch(strings.TrimSpace(timing.text))
		if match == nil {
			return nil, timing.errorf("malformed timing line %q for cue %d", snippet(timing.text), index)
		}

		var textLines []string
		for {
			candidate, ok := lr.peek()
			if !ok || strings.TrimSpace(candidate.text) == "" {
				break
			}
			lr.next()
			textLines = append(textLines, strings.TrimSpace(candidate.text))
		}

		blocks = append(blocks, Block{
			Index: index,
			Start: normalizeTimestamp(match[1]),
			End:   normalizeTimestamp(match[2]),
			Text:  norm.NFC.String(strings.TrimSpace(strings.Join(textLines, " "))),
		})
	}
	return blocks, nil
}

func normalizeTimestamp(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
}

func snippet(value string) string {
	value = strings.TrimSpace(value)
	const limit = 40
	runes := []rune(value)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return value
}

type srtLine struct {
	text   string
	offset int
	number int
}

func (l srtLine) errorf(format string, args ...any) *ParseError {
	return &ParseError{Line: l.number, Offset: l.offset, Reason: fmt.Sprintf(format, args...)}
}

type lineReader struct {
	data   string
	pos    int
	number int
}

func newLineReader(data string) *lineReader {
	lr := &lineReader{data: data}
	if strings.HasPrefix(data, utf8BOM) {
		lr.pos = len(utf8BOM)
	}
	return lr
}

func (lr *lineReader) peek() (srtLine, bool) {
	if lr.pos >= len(lr.data) {
		return srtLine{offset: len(lr.data), number: lr.number + 1}, false
	}
	rest := lr.data[lr.pos:]
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		end = len(rest)
	}
	return srtLine{
		text:   strings.TrimSuffix(rest[:end], "\r"),
		offset: lr.pos,
		number: lr.number + 1,
	}, true
}

func (lr *lineReader) next() srtLine {
	line, ok := lr.peek()
	if !ok {
		return line
	}
	lr.pos += len(line.text)
	if lr.pos < len(lr.data) && lr.data[lr.pos] == '\r' {
		lr.pos++
	}
	if lr.pos < len(lr.data) && lr.data[lr.pos] == '\n' {
		lr.pos++
	}
	lr.number++
	return line
}

// skipBlank consumes blank lines and reports whether any content remains.
func (lr *lineReader) skipBlank() bool {
	for {
		line, ok := lr.peek()
		if !ok {
			return false
		}
		if strings.TrimSpace(line.text) != "" {
			return true
		}
		lr.next()
	}
}

func (lr *lineReader) errorAt(line srtLine, ok bool, format string, args ...any) *ParseError {
	err := line.errorf(format, args...)
	if !ok {
		err.Reason += " (unexpected end of input)"
	}
	return err
}

// TimestampSeconds converts an SRT timestamp (HH:MM:SS,mmm) to seconds.
func TimestampSeconds(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// Normalize period to comma (SRT standard uses comma for milliseconds)
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
