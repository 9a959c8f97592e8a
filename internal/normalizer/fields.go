package normalizer

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"regscrape/internal/models"
	"regscrape/pkg/utils"
)

// punctuationMarks are removed by StripPunctuation.
var punctuationMarks = []string{
	".", ",", "?", "!", ":", "\n", "\t", ";", "—", "-", "'", "\"", "(", ")",
	"[", "]", "{", "}", "…", "\\", "@", "&", "*", "_", "^", "~", "`",
}

var punctuationReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, len(punctuationMarks)*2)
	for _, p := range punctuationMarks {
		pairs = append(pairs, p, "")
	}

	return strings.NewReplacer(pairs...)
}()

// CollapseWhitespace trims the value and folds every whitespace run into one space.
func CollapseWhitespace(s string) string {
	return utils.NormalizeWhitespace(s)
}

// StripPunctuation removes the fixed punctuation set.
func StripPunctuation(s string) string {
	return punctuationReplacer.Replace(s)
}

// RemoveSpaces drops every ASCII space, used for amounts like "B/. 1 500".
func RemoveSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// TrimLabel removes a leading label such as "Title:".
func TrimLabel(label string) func(string) string {
	return func(s string) string {
		return strings.TrimSpace(strings.Replace(s, label, "", 1))
	}
}

// Transliterate folds accented letters to their ASCII base.
func Transliterate(s string) string {
	decomposed := norm.NFKD.String(s)

	var b strings.Builder

	b.Grow(len(decomposed))

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}

		b.WriteRune(r)
	}

	return norm.NFC.String(b.String())
}

// DateFormat describes how a source writes its dates.
type DateFormat struct {
	// Separator, when set, splits the raw text before parsing.
	Separator string
	// TakeLast selects the last split part instead of the first.
	TakeLast bool
	// RemoveSpaces drops spaces before parsing ("2024. 01. 05").
	RemoveSpaces bool
	// Layouts are tried in order.
	Layouts []string
}

// DateFormats holds the known per-source date conventions.
var DateFormats = map[string]DateFormat{
	"nab":     {Separator: ":", TakeLast: true, Layouts: []string{"2-Jan-2006"}},
	"fsrc":    {Separator: ":", TakeLast: true, Layouts: []string{"2 January 2006"}},
	"gobpe":   {Separator: "-", Layouts: []string{"January 2, 2006", "2 January 2006"}},
	"tcontas": {RemoveSpaces: true, Layouts: []string{"2006.1.2"}},
	"umucyo":  {Layouts: []string{"2/1/2006"}},
}

// ISODate is the only layout ParseDate emits.
const ISODate = "2006-01-02"

// ParseDate converts text into YYYY-MM-DD, or the sentinel when no layout matches.
func ParseDate(s string, f DateFormat) string {
	text := s

	if f.Separator != "" {
		parts := strings.Split(text, f.Separator)
		if f.TakeLast {
			text = parts[len(parts)-1]
		} else {
			text = parts[0]
		}
	}

	if f.RemoveSpaces {
		text = RemoveSpaces(text)
	}

	text = CollapseWhitespace(text)
	if text == "" {
		return models.Sentinel
	}

	for _, layout := range f.Layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format(ISODate)
		}
	}

	return models.Sentinel
}

// ResolveURL joins a possibly relative path onto origin.
func ResolveURL(path, origin string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == models.Sentinel {
		return models.Sentinel
	}

	base, err := url.Parse(origin)
	if err != nil {
		return models.Sentinel
	}

	ref, err := url.Parse(path)
	if err != nil {
		return models.Sentinel
	}

	return base.ResolveReference(ref).String()
}

// ResolveURLs resolves every entry of a pipe-joined list.
func ResolveURLs(list, origin string) string {
	var out []string

	for _, part := range strings.Split(list, "|") {
		if resolved := ResolveURL(part, origin); resolved != models.Sentinel {
			out = append(out, resolved)
		}
	}

	if len(out) == 0 {
		return models.Sentinel
	}

	return strings.Join(out, "|")
}

var penaltyKeywords = regexp.MustCompile(`(?i)\b(penalty|penalti|penalties|fine|fines|fined)\b`)

// DefaultMagnitudes are the number words that may follow an amount.
var DefaultMagnitudes = []string{
	"Crore", "crore", "Million", "million", "Billion", "billion",
	"Trillion", "trillion", "Lakh", "lakh", "Thousand", "thousand",
}

// MoneyMatcher finds currency amounts inside penalty sentences.
type MoneyMatcher struct {
	pattern *regexp.Regexp
}

// NewMoneyMatcher builds a matcher for a currency marker pattern such as `Rs?.`.
func NewMoneyMatcher(currency string, magnitudes []string) *MoneyMatcher {
	expr := `(` + currency + `)\s*(\d{1,9}(?:,\s*\d{1,9})*(?:\.\d+)?)`
	if len(magnitudes) > 0 {
		expr += `\s*(` + strings.Join(magnitudes, "|") + `)?`
	} else {
		expr += `()`
	}

	return &MoneyMatcher{pattern: regexp.MustCompile(expr)}
}

var rupees = NewMoneyMatcher(`Rs?.`, DefaultMagnitudes)

// ExtractMonetaryMentions returns the pipe-joined rupee amounts found in
// sentences that mention a penalty or fine.
func ExtractMonetaryMentions(text string) string {
	return rupees.Extract(text)
}

// Extract returns the pipe-joined amounts, or the sentinel.
func (m *MoneyMatcher) Extract(text string) string {
	var amounts []string

	for _, sentence := range SplitSentences(text) {
		if !penaltyKeywords.MatchString(sentence) {
			continue
		}

		for _, match := range m.pattern.FindAllStringSubmatch(sentence, -1) {
			amount := match[1] + match[2]
			if match[3] != "" {
				amount += " " + match[3]
			}

			amounts = append(amounts, amount)
		}
	}

	if len(amounts) == 0 {
		return models.Sentinel
	}

	return strings.Join(amounts, "|")
}

// SplitSentences breaks text on whitespace that follows '.' or '?', except
// after initialisms ("U.S. ") and short capitalised abbreviations ("Rs. ").
func SplitSentences(text string) []string {
	rs := []rune(text)

	var out []string

	start := 0

	for i := 1; i < len(rs); i++ {
		if !unicode.IsSpace(rs[i]) {
			continue
		}

		if rs[i-1] != '.' && rs[i-1] != '?' {
			continue
		}

		if i >= 4 && isWordRune(rs[i-4]) && rs[i-3] == '.' && isWordRune(rs[i-2]) {
			continue
		}

		if i >= 3 && rs[i-3] >= 'A' && rs[i-3] <= 'Z' && rs[i-2] >= 'a' && rs[i-2] <= 'z' && rs[i-1] == '.' {
			continue
		}

		out = append(out, string(rs[start:i]))
		start = i + 1
	}

	return append(out, string(rs[start:]))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
