// Package record provides the tagged, multi-occurrence record model that
// extractors write into: fields keyed by numeric tag, occurrences indexed
// from 1, and subfields keyed by a single-character code.
package record

import (
	"sort"
)

// NoSubfields is the subfield code of an occurrence that holds a bare value.
const NoSubfields = "_"

// Occurrence maps subfield codes to values, keeping first-write order.
type Occurrence struct {
	codes  []string
	values map[string]string
}

// Get returns the value stored under code.
func (o Occurrence) Get(code string) (string, bool) {
	v, ok := o.values[code]
	return v, ok
}

// Codes returns the stored subfield codes in write order.
func (o Occurrence) Codes() []string {
	out := make([]string, len(o.codes))
	copy(out, o.codes)
	return out
}

// Len returns the number of stored subfields.
func (o Occurrence) Len() int {
	return len(o.codes)
}

// Equal reports whether both occurrences hold the same codes and values,
// regardless of write order.
func (o Occurrence) Equal(other Occurrence) bool {
	if len(o.codes) != len(other.codes) {
		return false
	}
	for code, v := range o.values {
		if w, ok := other.values[code]; !ok || w != v {
			return false
		}
	}
	return true
}

func (o *Occurrence) set(code, value string) {
	if o.values == nil {
		o.values = make(map[string]string)
	}
	if _, exists := o.values[code]; !exists {
		o.codes = append(o.codes, code)
	}
	o.values[code] = value
}

func (o Occurrence) clone() Occurrence {
	c := Occurrence{codes: o.Codes()}
	if o.values != nil {
		c.values = make(map[string]string, len(o.values))
		for k, v := range o.values {
			c.values[k] = v
		}
	}
	return c
}

// Field is one tagged field of a record.
//
// occurrences[0] is reserved; real occurrences start at index 1. summary is
// occurrence 0: for each code used by any real occurrence, the value at each
// real occurrence ("" where absent). It is rebuilt after every change.
type Field struct {
	Tag int

	occurrences []Occurrence
	summary     map[string][]string
}

func newField(tag int) *Field {
	return &Field{
		Tag:         tag,
		occurrences: make([]Occurrence, 1),
		summary:     map[string][]string{},
	}
}

// Count returns the number of real occurrences.
func (f *Field) Count() int {
	return len(f.occurrences) - 1
}

// Occurrence returns real occurrence i (1-based).
func (f *Field) Occurrence(i int) (Occurrence, bool) {
	if i < 1 || i >= len(f.occurrences) {
		return Occurrence{}, false
	}
	return f.occurrences[i], true
}

// Summary returns the occurrence-0 list for code. Its length equals Count()
// when code is used anywhere, and it is nil otherwise.
func (f *Field) Summary(code string) []string {
	list := f.summary[code]
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// SummaryCodes returns every code present in occurrence 0, sorted.
func (f *Field) SummaryCodes() []string {
	codes := make([]string, 0, len(f.summary))
	for code := range f.summary {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// RemoveOccurrence deletes real occurrence i and shifts later ones down.
func (f *Field) RemoveOccurrence(i int) bool {
	if i < 1 || i >= len(f.occurrences) {
		return false
	}
	f.occurrences = append(f.occurrences[:i], f.occurrences[i+1:]...)
	f.resummarize()
	return true
}

// put stores value at (occ, code), growing the occurrence list with empty
// occurrences as needed. Empty values grow the list but store nothing.
func (f *Field) put(occ int, code, value string) {
	for len(f.occurrences) < occ+1 {
		f.occurrences = append(f.occurrences, Occurrence{})
	}
	if value != "" {
		f.occurrences[occ].set(code, value)
	}
	f.resummarize()
}

func (f *Field) resummarize() {
	summary := make(map[string][]string)
	filled := f.occurrences[1:]
	for i, occ := range filled {
		for _, code := range occ.codes {
			if summary[code] == nil {
				summary[code] = make([]string, len(filled))
			}
			summary[code][i] = occ.values[code]
		}
	}
	f.summary = summary
}

func (f *Field) clone() *Field {
	c := &Field{Tag: f.Tag, occurrences: make([]Occurrence, len(f.occurrences))}
	for i, occ := range f.occurrences {
		c.occurrences[i] = occ.clone()
	}
	c.resummarize()
	return c
}
