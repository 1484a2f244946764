package analysis

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"srtgram/internal/fileutil"
)

// FileName is the analysis output written into each run directory.
const FileName = "analysis.jsonl"

// Record is one line of analysis.jsonl.
type Record struct {
	Timestamp        string `json:"timestamp"`
	OriginalSentence string `json:"original_sentence"`
	Translation      string `json:"translation"`
	Explanation      string `json:"explanation"`
}

// Failed reports whether the record carries an LLM error instead of an explanation.
func (r Record) Failed() bool {
	return strings.HasPrefix(r.Explanation, FailurePrefix)
}

// WriteJSONL writes one record per line.
func WriteJSONL(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return nil
}

// ReadJSONL decodes records, skipping blank lines.
func ReadJSONL(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var records []Record
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode record on line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

// WriteFile writes records to path atomically.
func WriteFile(path string, records []Record) error {
	var buf strings.Builder
	if err := WriteJSONL(&buf, records); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", FileName, err)
	}
	return nil
}

// ReadFile loads records from path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSONL(f)
}
