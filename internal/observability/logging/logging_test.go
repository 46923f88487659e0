package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerAddsServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{ServiceName: "tacacs-admin", Environment: "test", Level: "warn", Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept", "user", "alice")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "tacacs-admin" || entry["env"] != "test" || entry["user"] != "alice" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
