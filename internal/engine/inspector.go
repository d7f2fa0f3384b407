package engine

import (
	"sync"
	"time"
)

type CommandStatus string

const (
	CommandStatusOK    CommandStatus = "ok"
	CommandStatusError CommandStatus = "error"

	inspectorHistoryLimit = 128
)

// CommandRecord describes one command the engine ran.
type CommandRecord struct {
	Timestamp time.Time     `json:"timestamp"`
	Command   string        `json:"command"`
	Args      []string      `json:"args,omitempty"`
	Status    CommandStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
}

type commandLog struct {
	mu      sync.Mutex
	entries []CommandRecord
	limit   int
}

func newCommandLog(limit int) *commandLog {
	if limit <= 0 {
		limit = inspectorHistoryLimit
	}
	return &commandLog{limit: limit}
}

func (l *commandLog) record(entry CommandRecord) {
	if l == nil {
		return
	}
	entry.Args = cloneArgs(entry.Args)
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.limit-1]
	}
	l.entries = append(l.entries, entry)
}

func (l *commandLog) snapshot() []CommandRecord {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return nil
	}
	out := make([]CommandRecord, len(l.entries))
	for i, entry := range l.entries {
		out[i] = entry
		out[i].Args = cloneArgs(entry.Args)
	}
	return out
}

func cloneArgs(src []string) []string {
	if len(src) == 0 {
		return nil
	}
	return append([]string(nil), src...)
}
