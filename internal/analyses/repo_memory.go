package analyses

import (
	"context"
	"sync"
)

// MemoryRepo stores analysis records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu          sync.RWMutex
	byApplicant map[string]Result
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byApplicant: make(map[string]Result)}
}

// Get returns a copy of the record for applicantID.
func (r *MemoryRepo) Get(ctx context.Context, applicantID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.byApplicant[applicantID]
	if !ok {
		return Result{}, ErrNotFound
	}
	result.ChatHistory = append([]ChatTurn(nil), result.ChatHistory...)
	return result, nil
}

// Save replaces the record for result.ApplicantID.
func (r *MemoryRepo) Save(ctx context.Context, result Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result.ChatHistory = append([]ChatTurn(nil), result.ChatHistory...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byApplicant[result.ApplicantID] = result
	return nil
}

// AppendChat appends turn under the write lock.
func (r *MemoryRepo) AppendChat(ctx context.Context, applicantID string, turn ChatTurn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.byApplicant[applicantID]
	if !ok {
		return ErrNotFound
	}
	result.ChatHistory = append(result.ChatHistory, turn)
	r.byApplicant[applicantID] = result
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
