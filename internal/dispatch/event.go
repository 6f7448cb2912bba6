// Package dispatch decides which files an invocation processes — the
// trigger payload's records in event-driven mode, or the most recent
// candidate in manual mode — and maps the outcomes into the response
// envelope.
package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Payload is the decoded trigger payload. An empty Records list signals
// manual mode.
type Payload struct {
	Records []Record `mapstructure:"records"`
}

// Record is one storage-change notification.
type Record struct {
	EventType string        `mapstructure:"event_type"`
	Storage   StorageRecord `mapstructure:"storage"`
}

// StorageRecord names the changed object.
type StorageRecord struct {
	Container ContainerRef `mapstructure:"container"`
	Object    ObjectRef    `mapstructure:"object"`
}

// ContainerRef identifies the container the change happened in.
type ContainerRef struct {
	Name string `mapstructure:"name"`
}

// ObjectRef identifies the changed object.
type ObjectRef struct {
	Key  string `mapstructure:"key"`
	Size int64  `mapstructure:"size"`
}

// DecodePayload parses a raw trigger payload. Notification schemas carry
// plenty of fields this pipeline ignores, so decoding goes through a
// generic map and mapstructure rather than a strict unmarshal.
func DecodePayload(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, nil
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Payload{}, fmt.Errorf("parsing trigger payload: %w", err)
	}

	var payload Payload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &payload,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Payload{}, fmt.Errorf("building payload decoder: %w", err)
	}
	if err := decoder.Decode(generic); err != nil {
		return Payload{}, fmt.Errorf("decoding trigger payload: %w", err)
	}
	return payload, nil
}
