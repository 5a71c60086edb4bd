package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vetted-backend/internal/analyses"
)

// requestFile mirrors analyses.Request with free-form phase data so YAML maps work.
type requestFile struct {
	ApplicantID string `yaml:"applicantId"`
	CohortID    string `yaml:"cohortId"`
	Phase1Data  any    `yaml:"phase1Data"`
	Phase3Data  any    `yaml:"phase3Data"`
	DeckURL     string `yaml:"deckUrl"`
}

// LoadRequestFile reads an analysis request from a YAML or JSON file.
func LoadRequestFile(path string) (analyses.Request, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return analyses.Request{}, fmt.Errorf("read request file: %w", err)
	}
	return ParseRequest(raw)
}

// ParseRequest decodes a YAML (or JSON) request document.
func ParseRequest(raw []byte) (analyses.Request, error) {
	var f requestFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return analyses.Request{}, fmt.Errorf("parse request file: %w", err)
	}
	if f.ApplicantID == "" {
		return analyses.Request{}, analyses.ErrApplicantRequired
	}
	phase1, err := toJSON(f.Phase1Data)
	if err != nil {
		return analyses.Request{}, fmt.Errorf("phase1Data: %w", err)
	}
	phase3, err := toJSON(f.Phase3Data)
	if err != nil {
		return analyses.Request{}, fmt.Errorf("phase3Data: %w", err)
	}
	return analyses.Request{
		ApplicantID: f.ApplicantID,
		CohortID:    f.CohortID,
		Phase1Data:  phase1,
		Phase3Data:  phase3,
		DeckURL:     f.DeckURL,
	}, nil
}

func toJSON(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}
