// Package history keeps the rolling window of recent readings that backs the
// dashboard time-series charts.
package history

import (
	"time"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/domain"
)

// DefaultCapacity is the number of ticks the dashboard charts display.
const DefaultCapacity = 60

// LabelLayout formats chart time labels, e.g. "3:04:05 PM".
const LabelLayout = "3:04:05 PM"

// Entry is one tick recorded in the window. Entries are values and are never
// modified after they are appended.
type Entry struct {
	Label     string         `json:"label"`
	Timestamp time.Time      `json:"timestamp"`
	Reading   domain.Reading `json:"reading"`
	Score     float64        `json:"score"`
}

// NewEntry builds the entry for a reading and its risk score, labelled with
// the reading's local time of day.
func NewEntry(r domain.Reading, score float64) Entry {
	return Entry{
		Label:     r.Timestamp.Format(LabelLayout),
		Timestamp: r.Timestamp,
		Reading:   r,
		Score:     score,
	}
}

// Window is a fixed-capacity FIFO of entries. When full, appending evicts
// the oldest entry. It is not safe for concurrent use: one goroutine owns it
// and readers receive copies via Entries or Snapshot.
type Window struct {
	buf   []Entry
	start int // index of the oldest entry
	size  int
}

// NewWindow creates an empty window. Non-positive capacities fall back to
// DefaultCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{buf: make([]Entry, capacity)}
}

// Append records an entry, evicting the oldest one if the window is full.
func (w *Window) Append(e Entry) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = e
		w.size++
		return
	}
	w.buf[w.start] = e
	w.start = (w.start + 1) % len(w.buf)
}

// Len returns the number of entries held.
func (w *Window) Len() int { return w.size }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Entries returns a copy of the held entries, oldest first.
func (w *Window) Entries() []Entry {
	out := make([]Entry, w.size)
	for i := range w.size {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// Snapshot projects the held entries into parallel chart series.
func (w *Window) Snapshot() Snapshot {
	return NewSnapshot(w.Entries())
}
