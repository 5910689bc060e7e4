package transporters

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"forumintel/pkg/log"
)

func TestStdout_Write_EmitsFlatJSONLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdoutWithWriter(&buf)

	entry := log.NewEntry(log.Warn, "overlay check timed out")
	entry.Timestamp = time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	entry.RequestID = "req-7"
	entry.With("crawl_id", "c1", "password", "hunter2")

	if err := s.Write(*entry); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	line := buf.Bytes()
	if line[len(line)-1] != '\n' {
		t.Error("output should be newline terminated")
	}

	var got map[string]any
	if err := json.Unmarshal(line, &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", line, err)
	}
	want := map[string]any{
		"timestamp":  "2026-01-03T12:00:00Z",
		"level":      "WARN",
		"msg":        "overlay check timed out",
		"request_id": "req-7",
		"crawl_id":   "c1",
		"password":   log.Redacted,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
	if _, ok := got["caller"]; ok {
		t.Error("empty caller should be omitted")
	}
}
