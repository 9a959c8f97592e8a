package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeMaps(t *testing.T) {
	got := MergeMaps(
		map[string]string{"Accept": "*/*", "Referer": "a"},
		nil,
		map[string]string{"Referer": "b"},
	)

	assert.Equal(t, map[string]string{"Accept": "*/*", "Referer": "b"}, got)
	assert.Nil(t, MergeMaps(nil, map[string]string{}), "empty layers give nil")
}

func TestBuildHeaders(t *testing.T) {
	h := BuildHeaders(map[string]string{"user-agent": "custom", "X-Requested-With": "XMLHttpRequest"})

	assert.Equal(t, "custom", h.Get("User-Agent"))
	assert.NotEmpty(t, h.Get("Accept"), "default Accept")
	assert.Equal(t, "XMLHttpRequest", h.Get("X-Requested-With"))
}

func TestIsValidURL(t *testing.T) {
	tests := map[string]bool{
		"https://www.fsrc.kn/warnings": true,
		"http://x.test":                true,
		"/relative/path":               false,
		"ftp://x.test":                 false,
		"::":                           false,
	}

	for in, want := range tests {
		assert.Equal(t, want, IsValidURL(in), in)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncate me", 8, "trunc..."},
		{"ñandú çà", 6, "ñan..."},
		{"abc", 2, "ab"},
		{"abc", 0, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TruncateString(tt.in, tt.max), "TruncateString(%q, %d)", tt.in, tt.max)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b", NormalizeWhitespace(" a \n\t b "))
}
