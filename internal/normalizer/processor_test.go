package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regscrape/internal/models"
)

func TestNewProcessor(t *testing.T) {
	assert.NotNil(t, NewProcessor(Schema{}))
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(Schema{
		Required: []string{"url", "company", "start_date"},
		Rules: []Rule{
			{Column: "no.", Drop: true},
			{Column: "company", Clean: []Cleaner{StripPunctuation, CollapseWhitespace}},
			{Column: "start_date", Clean: []Cleaner{DateCleaner(DateFormats["umucyo"])}},
		},
	})

	ds, err := p.Process([]*models.Record{
		models.NewRecord("No.", "1", "Company", "A.B.C. Ltd", "Start Date", "02/03/2024", "url", "https://x.test"),
		models.NewRecord("No.", "2", "Company", "", "Start Date", "soon", "url", "https://x.test"),
	})
	require.NoError(t, err)

	require.Equal(t, []string{"id", "url", "company", "start_date"}, ds.Columns)
	assert.Equal(t, [][]string{
		{"1", "https://x.test", "ABC Ltd", "2024-03-02"},
		{"2", "https://x.test", "N/A", "N/A"},
	}, ds.Rows)
}

func TestProcessor_Process_MissingColumn(t *testing.T) {
	p := NewProcessor(Schema{Required: []string{"owner"}})

	_, err := p.Process([]*models.Record{models.NewRecord("url", "u")})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestProcessor_Process_EmptyRunKeepsHeaders(t *testing.T) {
	p := NewProcessor(Schema{
		Required: []string{"url", "date", "title"},
		Rules:    []Rule{{Column: "title", Derive: "penalty", Clean: []Cleaner{ExtractMonetaryMentions}}},
	})

	ds, err := p.Process(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "url", "date", "title", "penalty"}, ds.Columns)
	assert.Zero(t, ds.Len())
}
