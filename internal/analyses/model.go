package analyses

import (
	"encoding/json"
	"time"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Request is an inbound analysis request. The two phase blobs are opaque and
// serialized into the prompt verbatim.
type Request struct {
	ApplicantID string          `json:"applicantId" binding:"required"`
	CohortID    string          `json:"cohortId"`
	Phase1Data  json.RawMessage `json:"phase1Data"`
	Phase3Data  json.RawMessage `json:"phase3Data"`
	DeckURL     string          `json:"deckUrl,omitempty"`
}

// Result is the persisted record for one applicant, overwritten by every analysis run.
// A completed record carries Analysis and ThreadID; a failed one carries Error and no ThreadID.
type Result struct {
	ApplicantID  string     `json:"applicantId"`
	CohortID     string     `json:"cohortId,omitempty"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	Analysis     *Analysis  `json:"analysis,omitempty"`
	ThreadID     string     `json:"threadId,omitempty"`
	DeckIncluded bool       `json:"deckIncluded"`
	GeneratedAt  time.Time  `json:"generatedAt"`
	ChatHistory  []ChatTurn `json:"chatHistory"`
}

// ChatTurn is one entry of a record's append-only chat history.
type ChatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Analysis is the structured payload the assistant is asked to return.
type Analysis struct {
	MarketSizing         MarketSizing         `json:"marketSizing"`
	CompetitiveLandscape CompetitiveLandscape `json:"competitiveLandscape"`
	ReadinessSummary     ReadinessSummary     `json:"readinessSummary"`
}

type MarketSizing struct {
	Category      string   `json:"category"`
	TAM           TAM      `json:"tam"`
	SAM           string   `json:"sam,omitempty"`
	SOM           string   `json:"som,omitempty"`
	GrowthDrivers []string `json:"growthDrivers,omitempty"`
}

type TAM struct {
	Qualitative string `json:"qualitative"`
	BottomUp    string `json:"bottomUp"`
	TopDown     string `json:"topDown"`
}

type CompetitiveLandscape struct {
	DirectCompetitors      []Competitor `json:"directCompetitors"`
	LegacyCompetitors      []Competitor `json:"legacyCompetitors"`
	DifferentiatorAnalysis string       `json:"differentiatorAnalysis"`
}

type Competitor struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Differentiation string `json:"differentiation,omitempty"`
}

type ReadinessSummary struct {
	InvestmentThesis string   `json:"investmentThesis"`
	Strengths        []string `json:"strengths,omitempty"`
	Risks            []string `json:"risks,omitempty"`
	Recommendation   string   `json:"recommendation,omitempty"`
}
