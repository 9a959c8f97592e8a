// Package models holds the record and dataset types shared by the scrape pipeline.
package models

// Sentinel marks a missing or unparseable value in every exported cell.
const Sentinel = "N/A"

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value string
}

// Record is an ordered set of fields extracted from one page or table row.
type Record struct {
	fields []Field
}

// NewRecord creates a record from name/value pairs.
func NewRecord(pairs ...string) *Record {
	r := &Record{}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}

	return r
}

// Set stores a value, keeping the position of an existing field.
func (r *Record) Set(name, value string) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}

	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get returns the value of a field and whether it was set.
func (r *Record) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}

	return "", false
}

// Value returns a field's value, or the sentinel when it was never set.
func (r *Record) Value(name string) string {
	if v, ok := r.Get(name); ok {
		return v
	}

	return Sentinel
}

// Fields returns the fields in insertion order.
func (r *Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)

	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}
