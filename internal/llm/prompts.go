package llm

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

const (
	// PersonaName is the display name of the analyst persona.
	PersonaName = "Vetted Application Analyst"
	// DeckExcerptLimit caps the deck text included in the analysis prompt.
	DeckExcerptLimit = 4000
)

var (
	//go:embed prompts/persona.txt
	personaInstructions string
	//go:embed prompts/analysis.tmpl
	analysisTemplateText string

	analysisTemplate = template.Must(template.New("analysis").Parse(analysisTemplateText))
)

// PersonaInstructions returns the persona's fixed system instructions.
func PersonaInstructions() string {
	return strings.TrimSpace(personaInstructions)
}

// AnalysisPromptInput holds the values composed into the analysis prompt.
type AnalysisPromptInput struct {
	Phase1       json.RawMessage
	Phase3       json.RawMessage
	DeckIncluded bool
	DeckExcerpt  string
}

// BuildAnalysisPrompt renders the analysis prompt. The data blobs are pretty-printed verbatim.
func BuildAnalysisPrompt(in AnalysisPromptInput) (string, error) {
	phase1, err := prettyJSON(in.Phase1)
	if err != nil {
		return "", fmt.Errorf("phase1 data: %w", err)
	}
	phase3, err := prettyJSON(in.Phase3)
	if err != nil {
		return "", fmt.Errorf("phase3 data: %w", err)
	}
	excerpt := strings.TrimSpace(in.DeckExcerpt)
	if len(excerpt) > DeckExcerptLimit {
		excerpt = strings.ToValidUTF8(excerpt[:DeckExcerptLimit], "")
	}

	var buf bytes.Buffer
	err = analysisTemplate.Execute(&buf, struct {
		Phase1       string
		Phase3       string
		DeckIncluded bool
		DeckExcerpt  string
	}{
		Phase1:       phase1,
		Phase3:       phase3,
		DeckIncluded: in.DeckIncluded,
		DeckExcerpt:  excerpt,
	})
	if err != nil {
		return "", fmt.Errorf("render analysis prompt: %w", err)
	}
	return buf.String(), nil
}

func prettyJSON(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null", nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
