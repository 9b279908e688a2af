package app

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical event shape carried on the queue and posted to
// subscribers. Field order is not significant; the serialized bytes of one
// envelope are what gets signed.
type Envelope struct {
	EventID   string                     `json:"event_id"`
	EventType string                     `json:"event_type"`
	Timestamp string                     `json:"timestamp"`
	Payload   map[string]json.RawMessage `json:"payload"`
	Metadata  map[string]string          `json:"metadata"`
	CreatedAt string                     `json:"created_at"`
}

// Marshal serializes the envelope. The same bytes are used for storage,
// signing, and outbound delivery.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEnvelope parses envelope bytes as stored on a queue message.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, WrapError(KindInternal, "ENVELOPE_DECODE_FAILED", "queue message envelope is not valid JSON", err)
	}
	return e, nil
}

// PayloadJSON returns the payload object as raw JSON for row storage.
func (e Envelope) PayloadJSON() []byte {
	b, err := json.Marshal(e.Payload)
	if err != nil {
		return []byte("{}")
	}
	return b
}

// MetadataJSON returns the metadata object as raw JSON for row storage.
func (e Envelope) MetadataJSON() []byte {
	if e.Metadata == nil {
		return []byte("{}")
	}
	b, err := json.Marshal(e.Metadata)
	if err != nil {
		return []byte("{}")
	}
	return b
}

// ParsedTimestamp returns the envelope timestamp as a time.Time. The zero
// time is returned when the field does not parse; Validate catches that case
// before anything consumes it.
func (e Envelope) ParsedTimestamp() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
