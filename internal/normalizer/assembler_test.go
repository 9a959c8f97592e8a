package normalizer

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regscrape/internal/models"
)

func sampleRecords() []*models.Record {
	return []*models.Record{
		models.NewRecord("Date", "2024-01-05", "Title", "First", "url", "https://x.test/1", "Unnamed: 3", "junk"),
		models.NewRecord("Title", "", "Date", "None", "url", "https://x.test/2", "Extra Info", "more"),
		models.NewRecord("url", "https://x.test/3", " ", "blank header"),
	}
}

func TestAssemble_ColumnsAndSentinels(t *testing.T) {
	ds := Assemble(sampleRecords())

	require.Equal(t, []string{"id", "url", "date", "title", "extra_info"}, ds.Columns)
	assert.Equal(t, [][]string{
		{"1", "https://x.test/1", "2024-01-05", "First", "N/A"},
		{"2", "https://x.test/2", "N/A", "N/A", "more"},
		{"3", "https://x.test/3", "N/A", "N/A", "N/A"},
	}, ds.Rows)
}

func TestAssemble_IDsAndLeadingColumns(t *testing.T) {
	records := make([]*models.Record, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, models.NewRecord("name", "n"+strconv.Itoa(i), "url", "u"))
	}

	ds := Assemble(records)

	require.Equal(t, []string{models.ColumnID, models.ColumnURL}, ds.Columns[:2])

	for i, row := range ds.Rows {
		assert.Equal(t, strconv.Itoa(i+1), row[0], "row %d", i)
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	first := Assemble(sampleRecords())
	second := Assemble(first.Records())

	assert.Equal(t, first, second, "re-assembly changes nothing")
}

func TestAssemble_MergesCollidingHeaders(t *testing.T) {
	ds := Assemble([]*models.Record{
		models.NewRecord("Owner Name", "", "owner_name", "Alice", "url", "u"),
	})

	assert.Equal(t, []string{"Alice"}, ds.Column("owner_name"))
}

func TestAssemble_Empty(t *testing.T) {
	ds := Assemble(nil)

	assert.Zero(t, ds.Len())
	assert.Equal(t, []string{"id", "url"}, ds.Columns)
}
