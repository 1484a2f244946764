package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultTargetLanguage is the language explanations are written in when none is configured.
const DefaultTargetLanguage = "Japanese"

// Explanation is the model's reading of one sentence.
type Explanation struct {
	Translation string `json:"translation"`
	Explanation string `json:"explanation"`
	// Raw is the model's unparsed reply.
	Raw string `json:"-"`
}

// BuildExplainPrompt returns the system prompt for sentence explanations
// written in targetLanguage.
func BuildExplainPrompt(targetLanguage string) string {
	targetLanguage = strings.TrimSpace(targetLanguage)
	if targetLanguage == "" {
		targetLanguage = DefaultTargetLanguage
	}
	return fmt.Sprintf(`You are an expert in English grammar teaching a native %[1]s speaker.
For the sentence you receive, first translate it into %[1]s, then explain its grammar in %[1]s:
sentence structure, notable constructions, idioms and word choice.

Respond with a single JSON object and nothing else:
{"translation": "<translation into %[1]s>", "explanation": "<grammar explanation in Markdown>"}

The explanation may use Markdown lists, emphasis and tables.`, targetLanguage)
}

// Explain asks the model to translate and explain sentence. A reply with
// neither field set is an error so it is never cached as an answer.
func (c *Client) Explain(ctx context.Context, sentence string) (Explanation, error) {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return Explanation{}, errors.New("llm explain: sentence required")
	}
	content, err := c.completeJSON(ctx, "llm explain",
		message{Role: roleSystem, Content: BuildExplainPrompt(c.cfg.TargetLanguage)},
		message{Role: roleUser, Content: sentence},
	)
	if err != nil {
		return Explanation{}, err
	}
	var parsed Explanation
	if err := decodeObject(content, &parsed); err != nil {
		return Explanation{}, fmt.Errorf("llm explain: parse payload: %w", err)
	}
	parsed.Translation = strings.TrimSpace(parsed.Translation)
	parsed.Explanation = strings.TrimSpace(parsed.Explanation)
	parsed.Raw = content
	if parsed.Translation == "" && parsed.Explanation == "" {
		return Explanation{}, fmt.Errorf("llm explain: reply has no translation or explanation (payload snippet: %s)", snippet(content))
	}
	return parsed, nil
}
