package queue

import (
	"encoding/json"
	"errors"
)

// MessageVersion is the current payload version.
const MessageVersion = 1

// ErrUnsupportedVersion is returned for payloads newer than this build understands.
var ErrUnsupportedVersion = errors.New("unsupported message version")

// Message is an analysis job handed to the background worker.
type Message struct {
	Version     int             `json:"version"`
	RequestID   string          `json:"requestId"`
	EnqueuedAt  string          `json:"enqueuedAt"`
	ApplicantID string          `json:"applicantId"`
	CohortID    string          `json:"cohortId,omitempty"`
	Phase1Data  json.RawMessage `json:"phase1Data,omitempty"`
	Phase3Data  json.RawMessage `json:"phase3Data,omitempty"`
	DeckURL     string          `json:"deckUrl,omitempty"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > MessageVersion {
		return Message{}, ErrUnsupportedVersion
	}
	return msg, nil
}
