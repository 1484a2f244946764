package subtitles

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteSentencesJSON writes sentences as an indented JSON array.
func WriteSentencesJSON(w io.Writer, sentences []Sentence) error {
	if sentences == nil {
		sentences = []Sentence{}
	}
	data, err := json.MarshalIndent(sentences, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sentences: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write sentences: %w", err)
	}
	return nil
}

// ReadSentencesJSON decodes a JSON array written by WriteSentencesJSON.
func ReadSentencesJSON(r io.Reader) ([]Sentence, error) {
	var sentences []Sentence
	if err := json.NewDecoder(r).Decode(&sentences); err != nil {
		return nil, fmt.Errorf("decode sentences: %w", err)
	}
	return sentences, nil
}

// WriteSentencesJSONL writes one JSON object per line.
func WriteSentencesJSONL(w io.Writer, sentences []Sentence) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, sentence := range sentences {
		if err := enc.Encode(sentence); err != nil {
			return fmt.Errorf("encode sentence %d: %w", i, err)
		}
	}
	return nil
}

// ReadSentencesJSONL decodes JSON Lines, skipping blank lines.
func ReadSentencesJSONL(r io.Reader) ([]Sentence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var sentences []Sentence
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var sentence Sentence
		if err := json.Unmarshal([]byte(raw), &sentence); err != nil {
			return nil, fmt.Errorf("decode sentence on line %d: %w", line, err)
		}
		sentences = append(sentences, sentence)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sentences: %w", err)
	}
	return sentences, nil
}
