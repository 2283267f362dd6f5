// Package transcript persists the step-by-step record of agent sessions so
// runs can be inspected, replayed and shown in the UI. Implementations must
// keep identical semantics across backends.
package transcript

import (
	"context"
	"encoding/json"
	"time"
)

// Step kinds recorded during a session.
const (
	KindUserMessage = "user_message"
	KindModelTurn   = "model_turn"
	KindToolCall    = "tool_call"
	KindObservation = "observation"
	KindFinalAnswer = "final_answer"
	KindError       = "error"
)

// StepRecord is the persisted representation of one session step.
// Payload holds the step data as JSON.
type StepRecord struct {
	StepID    string
	SessionID string
	Seq       int64
	Kind      string
	Tool      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// Store defines the operations the session runtime and UI need.
type Store interface {
	// AppendStep persists a step, assigning the next sequence number for
	// the session and filling StepID/CreatedAt when empty.
	AppendStep(ctx context.Context, s StepRecord) (StepRecord, error)
	// ListSteps returns steps for a session with Seq > afterSeq, ascending,
	// at most limit (0 means no limit).
	ListSteps(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]StepRecord, error)
	// LastSeq returns the highest sequence for a session, 0 when empty.
	LastSeq(ctx context.Context, sessionID string) (int64, error)
	Close() error
}
