package normalizer

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"regscrape/internal/models"
)

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  a   b  ", "a b"},
		{"line\none\ttwo", "line one two"},
		{" padded ", "padded"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CollapseWhitespace(tt.input), "CollapseWhitespace(%q)", tt.input)
	}
}

func TestStripPunctuation(t *testing.T) {
	input := "A.B,C?D!E:F\nG\tH;I—J-K'L\"M(N)O[P]Q{R}S…T\\U@V&W*X_Y^Z~`"

	got := StripPunctuation(input)
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", got)

	for _, mark := range punctuationMarks {
		assert.NotContains(t, got, mark)
	}

	assert.Equal(t, models.Sentinel, StripPunctuation(models.Sentinel), "sentinel survives punctuation stripping")
}

func TestTransliterate(t *testing.T) {
	tests := map[string]string{
		"Jérôme Ñúñez":  "Jerome Nunez",
		"MUKAMANA Zoé":  "MUKAMANA Zoe",
		"plain ascii":   "plain ascii",
		"DENOMINACIÓN": "DENOMINACION",
	}

	for in, want := range tests {
		assert.Equal(t, want, Transliterate(in), "Transliterate(%q)", in)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format DateFormat
		want   string
	}{
		{"nab label", "Dated: 05-Jan-2024", DateFormats["nab"], "2024-01-05"},
		{"nab single digit day", "Date : 7-Mar-2023", DateFormats["nab"], "2023-03-07"},
		{"fsrc published", "Published: 12 February 2021", DateFormats["fsrc"], "2021-02-12"},
		{"gobpe month first", "December 5, 2024 - 10:30 a.m.", DateFormats["gobpe"], "2024-12-05"},
		{"gobpe day first", "5 December 2024 - 10:30", DateFormats["gobpe"], "2024-12-05"},
		{"tcontas spaced", "2023. 11. 09", DateFormats["tcontas"], "2023-11-09"},
		{"umucyo", "31/12/2025", DateFormats["umucyo"], "2025-12-31"},
		{"garbage", "yesterday", DateFormats["nab"], models.Sentinel},
		{"empty", "", DateFormats["umucyo"], models.Sentinel},
		{"sentinel", models.Sentinel, DateFormats["fsrc"], models.Sentinel},
		{"impossible day", "31/02/2024", DateFormats["umucyo"], models.Sentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDate(tt.input, tt.format))
		})
	}
}

func TestParseDate_NeverPartial(t *testing.T) {
	iso := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	inputs := []string{
		"05-Jan-2024", "5-Jan", "Jan-2024", "2024", "05-Foo-2024", "::", "-",
		"1 January", "January 2024", "2024.13.01", "01/01/99999", "Date: 01-Feb-2020",
	}

	for name, format := range DateFormats {
		for _, in := range inputs {
			got := ParseDate(in, format)
			if got != models.Sentinel {
				assert.Regexp(t, iso, got, "%s: ParseDate(%q)", name, in)
			}
		}
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		path, origin, want string
	}{
		{"/a/b", "https://x.test", "https://x.test/a/b"},
		{"", "https://x.test", models.Sentinel},
		{"   ", "https://x.test", models.Sentinel},
		{"new.asp?2023", "https://www.nab.gov.pk/press/", "https://www.nab.gov.pk/press/new.asp?2023"},
		{"https://other.test/p", "https://x.test", "https://other.test/p"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveURL(tt.path, tt.origin), "ResolveURL(%q, %q)", tt.path, tt.origin)
	}
}

func TestResolveURLs(t *testing.T) {
	got := ResolveURLs("/a|| https://o.test/b |/c", "https://x.test")
	assert.Equal(t, "https://x.test/a|https://o.test/b|https://x.test/c", got)
	assert.Equal(t, models.Sentinel, ResolveURLs("", "https://x.test"), "empty list resolves to the sentinel")
}

func TestExtractMonetaryMentions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "single fine",
			text: "The company was fined Rs. 5,000,000.",
			want: "Rs.5,000,000",
		},
		{
			name: "magnitude word",
			text: "NAB recovered assets. A penalty of Rs. 2.5 billion was imposed on the accused.",
			want: "Rs.2.5 billion",
		},
		{
			name: "several sentences",
			text: "He was fined Rs. 10 million. No other news here with Rs. 99. Fines totalling Rs. 3 crore were levied?",
			want: "Rs.10 million|Rs.3 crore",
		},
		{
			name: "no keyword",
			text: "The accused deposited Rs. 5,000,000 with the bureau.",
			want: models.Sentinel,
		},
		{
			name: "keyword without amount",
			text: "A fine will be announced later.",
			want: models.Sentinel,
		},
		{
			name: "empty",
			text: "",
			want: models.Sentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMonetaryMentions(tt.text))
		})
	}
}

func TestExtractMonetaryMentions_ContainsMarkerAndDigits(t *testing.T) {
	got := ExtractMonetaryMentions("The company was fined Rs. 5,000,000.")
	assert.Contains(t, got, "Rs.")
	assert.Contains(t, got, "5,000,000")
}

func TestNewMoneyMatcher_CustomCurrency(t *testing.T) {
	m := NewMoneyMatcher(`B/\.`, nil)

	assert.Equal(t, "B/.15,000|B/.200", m.Extract("A fine of B/.15,000 was imposed. Fined again B/.200."))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain", "One. Two? Three", []string{"One.", "Two?", "Three"}},
		{"abbreviation", "Paid Rs. 500 today. Done.", []string{"Paid Rs. 500 today.", "Done."}},
		{"initialism", "The U.S. team left. Next.", []string{"The U.S. team left.", "Next."}},
		{"no break", "no terminal punctuation", []string{"no terminal punctuation"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, strings.Join(tt.want, "|"), strings.Join(SplitSentences(tt.text), "|"))
		})
	}
}
