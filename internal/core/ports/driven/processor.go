package driven

import (
	"context"
	"encoding/json"
)

// RecordProcessor validates and stores one pushed record for a stream.
// A processor failure affects only that record; the router isolates it
// and continues with the rest of the batch.
type RecordProcessor interface {
	// Stream returns the "source/stream" key this processor serves.
	Stream() string

	// Process validates the record and writes it to the sink.
	Process(ctx context.Context, record json.RawMessage) error
}
