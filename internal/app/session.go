package app

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one CLI invocation in the log. Every line a process
// writes carries its session ID, so interleaved runs can be told apart.
type Session struct {
	ID        string
	Command   string
	StartedAt time.Time
}

// NewSession creates a session for command with a short random ID.
func NewSession(command string, now time.Time) *Session {
	return &Session{
		ID:        uuid.New().String()[:8],
		Command:   command,
		StartedAt: now,
	}
}

// Elapsed returns the time since the session started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}
