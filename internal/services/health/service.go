package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB Pinger
}

// NewService constructs a health service. db may be nil when running on in-memory storage.
func NewService(db Pinger) *Service {
	return &Service{DB: db}
}

// Status reports liveness and, when a database is configured, whether it answers a ping.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	status := map[string]any{"ok": true, "database": "memory"}
	if s == nil || s.DB == nil {
		return status, true
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		status["ok"] = false
		status["database"] = "unreachable"
		return status, false
	}
	status["database"] = "ok"
	return status, true
}
