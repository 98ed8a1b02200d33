package record

import (
	"time"

	"github.com/google/uuid"
)

// Entry pairs a finished record with the citation it was parsed from.
type Entry struct {
	ID      string
	Text    string
	Record  *Record
	Created time.Time
}

// NewEntry freezes rec into an entry. The record is copied, so the caller
// may discard or reuse its own.
func NewEntry(text string, rec *Record, created time.Time) *Entry {
	return &Entry{
		ID:      uuid.NewString(),
		Text:    text,
		Record:  rec.Clone(),
		Created: created,
	}
}

// Batch is an append-only, ordered sequence of entries.
type Batch struct {
	entries []*Entry
}

// Append adds e to the end of the batch.
func (b *Batch) Append(e *Entry) {
	b.entries = append(b.entries, e)
}

// Entries returns the entries in append order.
func (b *Batch) Entries() []*Entry {
	out := make([]*Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries.
func (b *Batch) Len() int {
	return len(b.entries)
}
