package models

// Leading columns of every assembled dataset.
const (
	ColumnID  = "id"
	ColumnURL = "url"
)

// Dataset is a rectangular table of string cells.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of a column, or -1.
func (d *Dataset) Index(column string) int {
	for i, c := range d.Columns {
		if c == column {
			return i
		}
	}

	return -1
}

// Column returns every cell of the named column.
func (d *Dataset) Column(column string) []string {
	idx := d.Index(column)
	if idx < 0 {
		return nil
	}

	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}

	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([][]string, len(d.Rows)),
	}
	for i, row := range d.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}

	return out
}

// Records converts the rows back into records, one field per column.
func (d *Dataset) Records() []*Record {
	out := make([]*Record, 0, len(d.Rows))

	for _, row := range d.Rows {
		r := &Record{fields: make([]Field, 0, len(d.Columns))}
		for i, c := range d.Columns {
			r.fields = append(r.fields, Field{Name: c, Value: row[i]})
		}

		out = append(out, r)
	}

	return out
}
