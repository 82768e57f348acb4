package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// AppsProcessor validates app usage events pushed from macOS.
type AppsProcessor struct {
	records driven.RecordStore
}

// NewAppsProcessor creates a processor writing to the apps table.
func NewAppsProcessor(records driven.RecordStore) *AppsProcessor {
	return &AppsProcessor{records: records}
}

// Stream returns the "source/stream" key this processor serves.
func (p *AppsProcessor) Stream() string { return "mac/apps" }

type appUsage struct {
	AppName         string  `json:"app_name"`
	BundleID        string  `json:"bundle_id,omitempty"`
	Timestamp       string  `json:"timestamp"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Process validates the event and writes it to the sink.
func (p *AppsProcessor) Process(ctx context.Context, record json.RawMessage) error {
	var usage appUsage
	if err := json.Unmarshal(record, &usage); err != nil {
		return fmt.Errorf("decoding app usage: %v: %w", err, domain.ErrInvalidInput)
	}
	if usage.AppName == "" {
		return fmt.Errorf("app usage missing app_name: %w", domain.ErrInvalidInput)
	}
	if _, err := time.Parse(time.RFC3339, usage.Timestamp); err != nil {
		return fmt.Errorf("app usage timestamp %q: %w", usage.Timestamp, domain.ErrInvalidInput)
	}
	if usage.DurationSeconds < 0 {
		return fmt.Errorf("app usage duration %f negative: %w", usage.DurationSeconds, domain.ErrInvalidInput)
	}

	return p.records.Append(ctx, "stream_mac_apps", []json.RawMessage{record})
}

// IMessageProcessor validates iMessage rows pushed from macOS.
type IMessageProcessor struct {
	records driven.RecordStore
}

// NewIMessageProcessor creates a processor writing to the imessage table.
func NewIMessageProcessor(records driven.RecordStore) *IMessageProcessor {
	return &IMessageProcessor{records: records}
}

// Stream returns the "source/stream" key this processor serves.
func (p *IMessageProcessor) Stream() string { return "mac/imessage" }

type iMessage struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text,omitempty"`
	Handle    string `json:"handle"`
	IsFromMe  bool   `json:"is_from_me"`
	Timestamp string `json:"timestamp"`
}

// Process validates the message and writes it to the sink.
func (p *IMessageProcessor) Process(ctx context.Context, record json.RawMessage) error {
	var msg iMessage
	if err := json.Unmarshal(record, &msg); err != nil {
		return fmt.Errorf("decoding imessage: %v: %w", err, domain.ErrInvalidInput)
	}
	if msg.MessageID == "" {
		return fmt.Errorf("imessage missing message_id: %w", domain.ErrInvalidInput)
	}
	if _, err := time.Parse(time.RFC3339, msg.Timestamp); err != nil {
		return fmt.Errorf("imessage timestamp %q: %w", msg.Timestamp, domain.ErrInvalidInput)
	}

	return p.records.Append(ctx, "stream_mac_imessage", []json.RawMessage{record})
}
