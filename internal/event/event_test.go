package event

import (
	"strings"
	"testing"
	"time"
)

func TestNewStampsUTC(t *testing.T) {
	e := New("app_launch", map[string]any{"screen": "Chat"})

	if e.Name != "app_launch" {
		t.Errorf("Name = %q", e.Name)
	}
	ts, err := time.Parse(TimeLayout, e.Timestamp)
	if err != nil {
		t.Fatalf("timestamp %q does not parse: %v", e.Timestamp, err)
	}
	if d := time.Since(ts); d < 0 || d > time.Minute {
		t.Errorf("timestamp %q not near now (delta %v)", e.Timestamp, d)
	}
	if !strings.HasSuffix(e.Timestamp, "Z") {
		t.Errorf("timestamp %q missing Z suffix", e.Timestamp)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	e := New("file_operation", map[string]any{
		"filePath":  "/tmp/scan.png",
		"operation": "upload",
	})

	data, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Name != e.Name {
		t.Errorf("Name = %q, want %q", got.Name, e.Name)
	}
	if got.Timestamp != e.Timestamp {
		t.Errorf("Timestamp = %q, want %q", got.Timestamp, e.Timestamp)
	}
	if got.Metadata["filePath"] != "/tmp/scan.png" {
		t.Errorf("Metadata[filePath] = %v", got.Metadata["filePath"])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ev      Event
		wantErr bool
	}{
		{"valid", New("app_launch", nil), false},
		{"empty name", Event{Name: "", Timestamp: "2025-01-15T10:00:00.000Z"}, true},
		{"blank name", Event{Name: "   ", Timestamp: "2025-01-15T10:00:00.000Z"}, true},
		{"missing timestamp", Event{Name: "app_launch"}, true},
		{"garbage timestamp", Event{Name: "app_launch", Timestamp: "yesterday"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRecordIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewRecordID()
		if seen[id] {
			t.Fatalf("duplicate record ID %q after %d iterations", id, i)
		}
		seen[id] = true
	}
}
