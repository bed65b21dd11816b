// Package event defines the tracking event record and its wire form.
// An Event is the unit of staging and delivery: named action, creation
// timestamp, and optional free-form metadata.
package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the wire timestamp format: ISO-8601 UTC with millisecond
// precision and Z suffix.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Event is a single tracked user action.
type Event struct {
	Name      string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// New creates an Event stamped with the current UTC time.
// Metadata may be nil.
func New(name string, metadata map[string]any) Event {
	return Event{
		Name:      name,
		Timestamp: time.Now().UTC().Format(TimeLayout),
		Metadata:  metadata,
	}
}

// Validate checks the fields the ingestion endpoint requires.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("event name must not be empty")
	}
	if e.Timestamp == "" {
		return fmt.Errorf("event timestamp must not be empty")
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		return fmt.Errorf("event timestamp %q is not RFC 3339: %w", e.Timestamp, err)
	}
	return nil
}

// Marshal serializes the event to its JSON wire form.
func (e Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %q: %w", e.Name, err)
	}
	return data, nil
}

// Unmarshal parses an event from its JSON wire form.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return e, nil
}
