package events

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// JSONLSink appends audit events to a JSONL file, one event per line.
type JSONLSink struct {
	path string
	mu   sync.Mutex
}

func NewJSONLSink(path string) *JSONLSink {
	return &JSONLSink{path: path}
}

// Emit appends the event. Write failures are swallowed: the audit trail is
// best-effort and must never unwind a committed mutation.
func (s *JSONLSink) Emit(event Event) {
	if s == nil || s.path == "" {
		return
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()

	_, _ = file.Write(data)
}
