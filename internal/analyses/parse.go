package analyses

import (
	"encoding/json"
	"strings"
)

// ParseError is an assistant reply that is not valid JSON once fences are removed.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse AI response: " + e.Text
}

func (e *ParseError) Unwrap() error { return e.Err }

// StripCodeFences removes Markdown ```json and ``` markers.
func StripCodeFences(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// ParseReply decodes a fenced or bare JSON reply into v.
func ParseReply(text string, v any) error {
	cleaned := StripCodeFences(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &ParseError{Text: cleaned, Err: err}
	}
	return nil
}
