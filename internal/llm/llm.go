// Package llm wraps the external semantic classifier behind a small
// client interface. Responses are parsed strictly: anything that does
// not decode into the expected shape is an error, and callers fall
// back to their documented default decision instead of consuming
// partially-parsed data.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Candidate is one routing target offered to the classifier.
type Candidate struct {
	ID          string
	Description string
}

// Classification is the classifier's verdict for one text.
type Classification struct {
	Target     string
	Confidence float64
	Reasoning  string
}

// Client is the semantic classifier consumed by the router.
// Implementations may fail or time out; the router recovers locally.
type Client interface {
	// Classify picks the best candidate target for the text.
	Classify(ctx context.Context, text string, candidates []Candidate) (*Classification, error)

	// SuggestName proposes a short project name for text that fits no
	// existing target.
	SuggestName(ctx context.Context, text string) (string, error)
}

// classifyPrompt builds the routing prompt with the dynamic candidate list.
func classifyPrompt(text string, candidates []Candidate) string {
	var list strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&list, "- %s: %s\n", c.ID, c.Description)
	}

	return fmt.Sprintf(`Assign this item to the correct target based on its content.

Available targets:
%s
Item:
%s

Output JSON:
{
  "target": "target id",
  "confidence": 0.0-1.0,
  "reasoning": "brief explanation"
}

Return ONLY the JSON.`, list.String(), truncate(text, 500))
}

const suggestNamePrompt = `What project or initiative is this content about? Give a short 2-4 word name.

Content:
%s

Respond with ONLY the project name, nothing else.`

// classificationWire is the strict wire shape expected back from the model.
type classificationWire struct {
	Target     string  `json:"target"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// parseClassification decodes a model response into a Classification.
// Markdown fences are stripped; an empty target or undecodable body is
// an error, never a partial result.
func parseClassification(raw string) (*Classification, error) {
	raw = stripFences(raw)

	var wire classificationWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("unparseable classifier response: %w", err)
	}
	if strings.TrimSpace(wire.Target) == "" {
		return nil, fmt.Errorf("classifier response missing target")
	}

	confidence := wire.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	reasoning := strings.TrimSpace(wire.Reasoning)
	if reasoning == "" {
		reasoning = "semantic classification"
	}

	return &Classification{
		Target:     strings.TrimSpace(wire.Target),
		Confidence: confidence,
		Reasoning:  reasoning,
	}, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// cleanName trims quotes and whitespace from a suggested name and caps
// its length.
func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
