// Package journal keeps the append-only trace of every meaningful mutation in
// a run. The trace travels inside the exported run snapshot; the engine never
// reads it back.
package journal

// Entry is one structured trace record.
type Entry struct {
	// Minute is the simulated minute at which the mutation happened.
	Minute  float64 `json:"minute"`
	Phase   string  `json:"phase"`
	Type    string  `json:"type"`
	Payload any     `json:"payload,omitempty"`
}

// Journal is an append-only sequence of entries. It shares the engine's
// single-writer model and is not safe for concurrent callers.
type Journal struct {
	entries []Entry
}

// New returns an empty journal.
func New() *Journal {
	return &Journal{entries: make([]Entry, 0, 64)}
}

// Append records a trace entry.
func (j *Journal) Append(entry Entry) {
	if j == nil {
		return
	}
	j.entries = append(j.entries, entry)
}

// Entries returns a copy of the trace so callers cannot mutate history.
func (j *Journal) Entries() []Entry {
	if j == nil {
		return nil
	}
	copied := make([]Entry, len(j.entries))
	copy(copied, j.entries)
	return copied
}

// Len reports the number of recorded entries.
func (j *Journal) Len() int {
	if j == nil {
		return 0
	}
	return len(j.entries)
}
