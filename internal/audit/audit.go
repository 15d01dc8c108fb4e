package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertAuditLogParams is the row written for one audit entry.
type InsertAuditLogParams struct {
	ID         uuid.UUID
	Action     string
	EntityType string
	Actor      *string
	RequestID  *string
	Metadata   []byte
	CreatedAt  time.Time
}

type Writer interface {
	InsertAuditLog(ctx context.Context, params InsertAuditLogParams) error
}

type Logger struct {
	w   Writer
	now func() time.Time
}

func NewLogger(w Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// Entry describes one auditable event. Actor names whoever triggered it: an
// API key fingerprint, "cli", or empty when keys are not enforced.
type Entry struct {
	Action     string
	EntityType string
	Actor      string
	RequestID  string
	Metadata   map[string]any
}

func (l *Logger) Log(ctx context.Context, entry Entry) error {
	metadata := []byte("{}")
	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = encoded
	}

	params := InsertAuditLogParams{
		ID:         uuid.New(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		Metadata:   metadata,
		CreatedAt:  l.now().UTC(),
	}
	if entry.Actor != "" {
		params.Actor = &entry.Actor
	}
	if entry.RequestID != "" {
		params.RequestID = &entry.RequestID
	}

	if err := l.w.InsertAuditLog(ctx, params); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
