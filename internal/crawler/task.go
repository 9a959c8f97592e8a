package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"regscrape/internal/models"
	"regscrape/pkg/utils"
)

// Request is one HTTP request a task will issue.
type Request struct {
	URL     string
	Method  string
	Body    string
	Headers map[string]string
	Cookies map[string]string
}

// Fingerprint identifies the request for de-duplication.
func (r Request) Fingerprint() string {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	return strings.ToUpper(method) + " " + r.URL + "\n" + r.Body
}

// Kind is the role a task plays in the crawl.
type Kind int

// Task kinds.
const (
	// KindListing pages may yield records, detail tasks and further listing
	// (pagination or archive) tasks.
	KindListing Kind = iota
	// KindDetail pages yield at most one record and nothing else.
	KindDetail
)

func (k Kind) String() string {
	if k == KindDetail {
		return "detail"
	}

	return "listing"
}

// Task is a unit of crawl work: a request plus the step that will read it.
type Task struct {
	Request Request
	Step    string
	Kind    Kind
	// Context carries values discovered on a listing page to the step
	// that handles the follow-up page.
	Context map[string]string
}

// Value returns a context value or the sentinel.
func (t Task) Value(key string) string {
	if v, ok := t.Context[key]; ok {
		return v
	}

	return models.Sentinel
}

// Listing builds a GET listing task.
func Listing(url, step string) Task {
	return Task{Request: Request{URL: url, Method: http.MethodGet}, Step: step, Kind: KindListing}
}

// Detail builds a GET detail task with optional context pairs.
func Detail(url, step string, pairs ...string) Task {
	t := Task{Request: Request{URL: url, Method: http.MethodGet}, Step: step, Kind: KindDetail}
	if len(pairs) > 1 {
		t.Context = make(map[string]string, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			t.Context[pairs[i]] = pairs[i+1]
		}
	}

	return t
}

// Yield is what a step found on one page.
type Yield struct {
	Records []*models.Record
	Tasks   []Task
}

// Step reads one fetched page.
type Step func(ctx context.Context, page *Page, task Task) (Yield, error)

// Source binds a site's seeds and steps together.
type Source struct {
	Name    string
	Seeds   []Task
	Steps   map[string]Step
	Headers map[string]string
	Cookies map[string]string
	// Delay is slept before every fetch after the first.
	Delay time.Duration
	// MaxTasks bounds the number of fetched tasks; zero means unbounded.
	MaxTasks int
}

// prepare layers the source's static headers and cookies under the request's own.
func (s *Source) prepare(r Request) Request {
	r.Headers = utils.MergeMaps(s.Headers, r.Headers)
	r.Cookies = utils.MergeMaps(s.Cookies, r.Cookies)

	if r.Method == "" {
		r.Method = http.MethodGet
	}

	return r
}

// Page is a fetched response.
type Page struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Document parses the body as HTML.
func (p *Page) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", p.URL, err)
	}

	return doc, nil
}

// DecodeJSON unmarshals the body into v.
func (p *Page) DecodeJSON(v any) error {
	if err := json.Unmarshal(p.Body, v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", p.URL, err)
	}

	return nil
}
