package record

import (
	"encoding/json"
	"fmt"
)

// Record maps tags to fields and remembers the order in which tags were
// first written. One Record is built per citation.
type Record struct {
	fields map[int]*Field
	order  []int
}

// New returns an empty record.
func New() *Record {
	return &Record{fields: make(map[int]*Field)}
}

// Field returns the field for tag.
func (r *Record) Field(tag int) (*Field, bool) {
	f, ok := r.fields[tag]
	return f, ok
}

// Has reports whether tag has been resolved at least once.
func (r *Record) Has(tag int) bool {
	_, ok := r.fields[tag]
	return ok
}

// Tags returns tags in first-write order.
func (r *Record) Tags() []int {
	out := make([]int, len(r.order))
	copy(out, r.order)
	return out
}

// Fields returns fields in first-write order.
func (r *Record) Fields() []*Field {
	out := make([]*Field, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.fields[tag])
	}
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.order)
}

// Next returns the index a new occurrence of tag would get.
func (r *Record) Next(tag int) int {
	if f, ok := r.fields[tag]; ok {
		return f.Count() + 1
	}
	return 1
}

// Value reads the value at (tag, occurrence, code).
func (r *Record) Value(tag, occurrence int, code string) string {
	f, ok := r.fields[tag]
	if !ok {
		return ""
	}
	occ, ok := f.Occurrence(occurrence)
	if !ok {
		return ""
	}
	v, _ := occ.Get(code)
	return v
}

func (r *Record) ensure(tag int) *Field {
	f, ok := r.fields[tag]
	if !ok {
		f = newField(tag)
		r.fields[tag] = f
		r.order = append(r.order, tag)
	}
	return f
}

// Locator is a resolved write target bound to its field.
type Locator struct {
	Tag        int
	Occurrence int
	Subfield   string

	field *Field
}

// Write deposits value at the locator's position. An empty value still
// creates the occurrence but stores no subfield.
func (l Locator) Write(value string) {
	l.field.put(l.Occurrence, l.Subfield, value)
}

// Resolve looks up or creates the field for addr and returns where the next
// write goes.
func (r *Record) Resolve(addr Address) Locator {
	f := r.ensure(addr.Tag)
	occ := addr.Occurrence
	if addr.Append {
		occ = f.Count() + 1
	}
	if occ < 1 {
		occ = 1
	}
	subfield := addr.Subfield
	if subfield == "" {
		subfield = NoSubfields
	}
	return Locator{Tag: addr.Tag, Occurrence: occ, Subfield: subfield, field: f}
}

// Set parses token and writes value there.
func (r *Record) Set(token, value string) error {
	addr, err := ParseAddress(token)
	if err != nil {
		return err
	}
	r.Resolve(addr).Write(value)
	return nil
}

// SetAt writes value at (tag, occurrence, code) without going through the
// token grammar. code is expected upper-case or NoSubfields.
func (r *Record) SetAt(tag, occurrence int, code, value string) {
	r.Resolve(Address{Tag: tag, Subfield: code, Occurrence: occurrence}).Write(value)
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := New()
	for _, tag := range r.order {
		c.fields[tag] = r.fields[tag].clone()
		c.order = append(c.order, tag)
	}
	return c
}

type jsonSubfield struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

type jsonField struct {
	Tag         int              `json:"tag"`
	Occurrences [][]jsonSubfield `json:"occurrences"`
}

// MarshalJSON encodes the record as an ordered list of fields.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make([]jsonField, 0, len(r.order))
	for _, f := range r.Fields() {
		jf := jsonField{Tag: f.Tag, Occurrences: make([][]jsonSubfield, 0, f.Count())}
		for i := 1; i <= f.Count(); i++ {
			occ, _ := f.Occurrence(i)
			subfields := make([]jsonSubfield, 0, occ.Len())
			for _, code := range occ.codes {
				subfields = append(subfields, jsonSubfield{Code: code, Value: occ.values[code]})
			}
			jf.Occurrences = append(jf.Occurrences, subfields)
		}
		out = append(out, jf)
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a record written by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in []jsonField
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	*r = *New()
	for _, jf := range in {
		f := r.ensure(jf.Tag)
		for i, subfields := range jf.Occurrences {
			f.put(i+1, NoSubfields, "")
			for _, sf := range subfields {
				f.put(i+1, sf.Code, sf.Value)
			}
		}
	}
	return nil
}
