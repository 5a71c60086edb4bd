package analyses

import "context"

// Repo persists analysis records keyed by applicant id.
type Repo interface {
	Get(ctx context.Context, applicantID string) (Result, error)
	// Save writes the record, replacing any previous one including its chat history.
	Save(ctx context.Context, result Result) error
	// AppendChat atomically appends one turn to the record's chat history.
	AppendChat(ctx context.Context, applicantID string, turn ChatTurn) error
}
