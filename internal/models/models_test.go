package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_SetKeepsPosition(t *testing.T) {
	r := NewRecord("url", "https://a.test", "title", "first", "date", "2024-01-05")
	r.Set("title", "second")
	r.Set("penalty", "Rs.5 million")

	fields := r.Fields()
	require.Len(t, fields, 4)
	assert.Equal(t, Field{Name: "title", Value: "second"}, fields[1])
	assert.Equal(t, "penalty", fields[3].Name)

	fields[0].Value = "changed"
	assert.Equal(t, "https://a.test", r.Value("url"), "Fields returns a copy")
}

func TestRecord_Value(t *testing.T) {
	r := NewRecord("name", "", "odd")

	v, ok := r.Get("name")
	assert.True(t, ok)
	assert.Empty(t, v)

	assert.Equal(t, Sentinel, r.Value("missing"))
	assert.Equal(t, 1, r.Len(), "a trailing unpaired name is ignored")
}

func TestDataset_CloneAndRecords(t *testing.T) {
	ds := &Dataset{
		Columns: []string{ColumnID, ColumnURL, "name"},
		Rows: [][]string{
			{"1", "https://a.test", "Acme"},
			{"2", "https://b.test", Sentinel},
		},
	}

	clone := ds.Clone()
	clone.Rows[0][2] = "Other"
	clone.Columns[2] = "company"

	assert.Equal(t, "Acme", ds.Rows[0][2])
	assert.Equal(t, "name", ds.Columns[2])

	assert.Equal(t, 2, ds.Index("name"))
	assert.Equal(t, -1, ds.Index("nope"))
	assert.Nil(t, ds.Column("nope"))
	assert.Equal(t, []string{"Acme", Sentinel}, ds.Column("name"))

	records := ds.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "https://b.test", records[1].Value(ColumnURL))
	assert.Equal(t, 3, records[0].Len())
}
