package processors

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariata/ariata/internal/adapters/driven/storage/memory"
	"github.com/ariata/ariata/internal/core/domain"
)

func TestRegistry_Resolve(t *testing.T) {
	registry := NewDefaultRegistry(memory.NewRecordStore())

	assert.NotNil(t, registry.Resolve("ios", "healthkit"))
	assert.NotNil(t, registry.Resolve("ios", "location"))
	assert.NotNil(t, registry.Resolve("ios", "mic"))
	assert.NotNil(t, registry.Resolve("mac", "apps"))
	assert.NotNil(t, registry.Resolve("mac", "imessage"))

	assert.Nil(t, registry.Resolve("ios", "unknown"))
	assert.Nil(t, registry.Resolve("google", "calendar"))
}

func TestHealthKitProcessor(t *testing.T) {
	records := memory.NewRecordStore()
	p := NewHealthKitProcessor(records)
	ctx := context.Background()

	valid := json.RawMessage(`{"type":"step_count","value":1200,"unit":"count","start_date":"2026-08-30T08:00:00Z"}`)
	require.NoError(t, p.Process(ctx, valid))

	count, err := records.Count(ctx, "stream_ios_healthkit")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	tests := []struct {
		name   string
		record string
	}{
		{"not json", `not json`},
		{"missing type", `{"value":1,"start_date":"2026-08-30T08:00:00Z"}`},
		{"bad start_date", `{"type":"step_count","start_date":"yesterday"}`},
		{"bad end_date", `{"type":"step_count","start_date":"2026-08-30T08:00:00Z","end_date":"later"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Process(ctx, json.RawMessage(tt.record))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	// Rejected records must not reach the sink
	count, err = records.Count(ctx, "stream_ios_healthkit")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Decode failures keep the parser's detail so the rejection log
	// says what was malformed.
	err = p.Process(ctx, json.RawMessage(`not json`))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "invalid character")
}

func TestLocationProcessor(t *testing.T) {
	records := memory.NewRecordStore()
	p := NewLocationProcessor(records)
	ctx := context.Background()

	valid := json.RawMessage(`{"latitude":52.37,"longitude":4.89,"timestamp":"2026-08-30T08:00:00Z"}`)
	require.NoError(t, p.Process(ctx, valid))

	tests := []struct {
		name   string
		record string
	}{
		{"latitude too high", `{"latitude":91,"longitude":0,"timestamp":"2026-08-30T08:00:00Z"}`},
		{"longitude too low", `{"latitude":0,"longitude":-181,"timestamp":"2026-08-30T08:00:00Z"}`},
		{"missing timestamp", `{"latitude":0,"longitude":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Process(ctx, json.RawMessage(tt.record))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestMicProcessor(t *testing.T) {
	records := memory.NewRecordStore()
	p := NewMicProcessor(records)
	ctx := context.Background()

	valid := json.RawMessage(`{"timestamp":"2026-08-30T08:00:00Z","duration_seconds":12.5,"transcription":"hello"}`)
	require.NoError(t, p.Process(ctx, valid))

	err := p.Process(ctx, json.RawMessage(`{"timestamp":"2026-08-30T08:00:00Z","duration_seconds":-1}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAppsProcessor(t *testing.T) {
	records := memory.NewRecordStore()
	p := NewAppsProcessor(records)
	ctx := context.Background()

	valid := json.RawMessage(`{"app_name":"Safari","bundle_id":"com.apple.Safari","timestamp":"2026-08-30T08:00:00Z","duration_seconds":300}`)
	require.NoError(t, p.Process(ctx, valid))

	err := p.Process(ctx, json.RawMessage(`{"timestamp":"2026-08-30T08:00:00Z","duration_seconds":300}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIMessageProcessor(t *testing.T) {
	records := memory.NewRecordStore()
	p := NewIMessageProcessor(records)
	ctx := context.Background()

	valid := json.RawMessage(`{"message_id":"msg-1","text":"hi","handle":"+31600000000","is_from_me":true,"timestamp":"2026-08-30T08:00:00Z"}`)
	require.NoError(t, p.Process(ctx, valid))

	err := p.Process(ctx, json.RawMessage(`{"text":"hi","timestamp":"2026-08-30T08:00:00Z"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
