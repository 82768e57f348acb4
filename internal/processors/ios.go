package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
)

// HealthKitProcessor validates HealthKit samples pushed from iOS.
type HealthKitProcessor struct {
	records driven.RecordStore
}

// NewHealthKitProcessor creates a processor writing to the healthkit table.
func NewHealthKitProcessor(records driven.RecordStore) *HealthKitProcessor {
	return &HealthKitProcessor{records: records}
}

// Stream returns the "source/stream" key this processor serves.
func (p *HealthKitProcessor) Stream() string { return "ios/healthkit" }

type healthKitSample struct {
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit,omitempty"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date,omitempty"`
}

// Process validates the sample and writes it to the sink.
func (p *HealthKitProcessor) Process(ctx context.Context, record json.RawMessage) error {
	var sample healthKitSample
	if err := json.Unmarshal(record, &sample); err != nil {
		return fmt.Errorf("decoding healthkit sample: %v: %w", err, domain.ErrInvalidInput)
	}
	if sample.Type == "" {
		return fmt.Errorf("healthkit sample missing type: %w", domain.ErrInvalidInput)
	}
	if _, err := time.Parse(time.RFC3339, sample.StartDate); err != nil {
		return fmt.Errorf("healthkit sample start_date %q: %w", sample.StartDate, domain.ErrInvalidInput)
	}
	if sample.EndDate != "" {
		if _, err := time.Parse(time.RFC3339, sample.EndDate); err != nil {
			return fmt.Errorf("healthkit sample end_date %q: %w", sample.EndDate, domain.ErrInvalidInput)
		}
	}

	return p.records.Append(ctx, "stream_ios_healthkit", []json.RawMessage{record})
}

// LocationProcessor validates location fixes pushed from iOS.
type LocationProcessor struct {
	records driven.RecordStore
}

// NewLocationProcessor creates a processor writing to the location table.
func NewLocationProcessor(records driven.RecordStore) *LocationProcessor {
	return &LocationProcessor{records: records}
}

// Stream returns the "source/stream" key this processor serves.
func (p *LocationProcessor) Stream() string { return "ios/location" }

type locationFix struct {
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	Timestamp          string  `json:"timestamp"`
	Altitude           float64 `json:"altitude,omitempty"`
	Speed              float64 `json:"speed,omitempty"`
	HorizontalAccuracy float64 `json:"horizontal_accuracy,omitempty"`
}

// Process validates the fix and writes it to the sink.
func (p *LocationProcessor) Process(ctx context.Context, record json.RawMessage) error {
	var fix locationFix
	if err := json.Unmarshal(record, &fix); err != nil {
		return fmt.Errorf("decoding location fix: %v: %w", err, domain.ErrInvalidInput)
	}
	if fix.Latitude < -90 || fix.Latitude > 90 {
		return fmt.Errorf("location latitude %f out of range: %w", fix.Latitude, domain.ErrInvalidInput)
	}
	if fix.Longitude < -180 || fix.Longitude > 180 {
		return fmt.Errorf("location longitude %f out of range: %w", fix.Longitude, domain.ErrInvalidInput)
	}
	if _, err := time.Parse(time.RFC3339, fix.Timestamp); err != nil {
		return fmt.Errorf("location timestamp %q: %w", fix.Timestamp, domain.ErrInvalidInput)
	}

	return p.records.Append(ctx, "stream_ios_location", []json.RawMessage{record})
}

// MicProcessor validates microphone transcription segments pushed from iOS.
type MicProcessor struct {
	records driven.RecordStore
}

// NewMicProcessor creates a processor writing to the mic table.
func NewMicProcessor(records driven.RecordStore) *MicProcessor {
	return &MicProcessor{records: records}
}

// Stream returns the "source/stream" key this processor serves.
func (p *MicProcessor) Stream() string { return "ios/mic" }

type micSegment struct {
	Timestamp       string  `json:"timestamp"`
	DurationSeconds float64 `json:"duration_seconds"`
	Transcription   string  `json:"transcription,omitempty"`
	SoundLevelDB    float64 `json:"sound_level_db,omitempty"`
}

// Process validates the segment and writes it to the sink.
func (p *MicProcessor) Process(ctx context.Context, record json.RawMessage) error {
	var segment micSegment
	if err := json.Unmarshal(record, &segment); err != nil {
		return fmt.Errorf("decoding mic segment: %v: %w", err, domain.ErrInvalidInput)
	}
	if _, err := time.Parse(time.RFC3339, segment.Timestamp); err != nil {
		return fmt.Errorf("mic segment timestamp %q: %w", segment.Timestamp, domain.ErrInvalidInput)
	}
	if segment.DurationSeconds < 0 {
		return fmt.Errorf("mic segment duration %f negative: %w", segment.DurationSeconds, domain.ErrInvalidInput)
	}

	return p.records.Append(ctx, "stream_ios_mic", []json.RawMessage{record})
}
