// Package auditlog provides a structured audit trail for ingestion and
// compliance-check requests, grounded on the teacher's
// core/pkg/audit/logger.go writer-injected JSON-line logger, adapted
// to warden's firm-scoped (rather than tenant/principal-scoped)
// domain.
package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes an audit event.
type EventType string

const (
	EventIngestion EventType = "INGESTION"
	EventCompliance EventType = "COMPLIANCE_CHECK"
	EventSystem     EventType = "SYSTEM"
)

// Event is one structured audit record.
type Event struct {
	ID        string                 `json:"id"`
	FirmName  string                 `json:"firm_name"`
	Type      EventType              `json:"type"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Logger records structured audit events.
type Logger interface {
	Record(ctx context.Context, eventType EventType, firmName, action string, metadata map[string]interface{}) error
}

type writerLogger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLogger returns a Logger writing newline-delimited JSON to stdout.
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter returns a Logger writing to w, for tests or
// alternate sinks.
func NewLoggerWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &writerLogger{writer: w}
}

func (l *writerLogger) Record(ctx context.Context, eventType EventType, firmName, action string, metadata map[string]interface{}) error {
	event := Event{
		ID:        uuid.New().String(),
		FirmName:  firmName,
		Type:      eventType,
		Action:    action,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("auditlog: encode event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.writer.Write(append([]byte("AUDIT: "), append(data, '\n')...))
	return err
}
