// Package sources binds each supported site to the generic crawl pipeline:
// start requests, extraction steps, cleaning rules and translation defaults.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"regscrape/internal/config"
	"regscrape/internal/crawler"
	"regscrape/internal/logger"
	"regscrape/internal/normalizer"
	"regscrape/pkg/utils"
)

// ErrUnknownSource is returned for names no definition is registered under.
var ErrUnknownSource = errors.New("unknown source")

// Step names shared by the definitions.
const (
	stepListing = "listing"
	stepDetail  = "detail"
)

// Lookuper translates a single auxiliary value during extraction.
type Lookuper interface {
	Lookup(ctx context.Context, text, source, target string) (string, error)
}

// Env is what a definition's steps and rules may depend on.
type Env struct {
	Date   normalizer.DateFormat
	Lookup Lookuper
	Log    *logger.Logger
}

// Translation holds a source's translation defaults.
type Translation struct {
	From    string
	To      string
	Columns []string
	Headers bool
	Workers int
	// Rules re-clean the translated copy.
	Rules []normalizer.Rule
}

// Definition is the built-in description of one site.
type Definition struct {
	Name        string
	OutputName  string
	Description string
	Requests    []crawler.Request
	StartStep   string
	StartKind   crawler.Kind
	Headers     map[string]string
	Cookies     map[string]string
	Date        normalizer.DateFormat
	Translation *Translation
	Steps       func(env Env) map[string]crawler.Step
	Schema      func(env Env) normalizer.Schema
}

// Binding is a definition resolved against configuration, ready to run.
type Binding struct {
	Name             string
	OutputName       string
	Source           *crawler.Source
	Schema           normalizer.Schema
	Translation      *Translation
	CloudflareBypass bool
}

// Bind layers the configuration over the definition's defaults. Config
// requests replace the built-in ones; headers and cookies are merged with
// config values winning.
func (d *Definition) Bind(cfg *config.SourceConfig, env Env) *Binding {
	if cfg == nil {
		cfg = &config.SourceConfig{}
	}

	env.Date = d.dateFormat(cfg.Date)
	if env.Log == nil {
		env.Log = logger.Discard()
	}

	seeds := make([]crawler.Task, 0, len(d.Requests))
	for _, req := range d.requests(cfg.Requests) {
		seeds = append(seeds, crawler.Task{Request: req, Step: d.StartStep, Kind: d.StartKind})
	}

	outputName := d.OutputName
	if cfg.OutputName != "" {
		outputName = cfg.OutputName
	}

	return &Binding{
		Name:       d.Name,
		OutputName: outputName,
		Source: &crawler.Source{
			Name:     d.Name,
			Seeds:    seeds,
			Steps:    d.Steps(env),
			Headers:  utils.MergeMaps(d.Headers, cfg.Headers),
			Cookies:  utils.MergeMaps(d.Cookies, cfg.Cookies),
			Delay:    time.Duration(cfg.DelayMs) * time.Millisecond,
			MaxTasks: cfg.MaxTasks,
		},
		Schema:           d.Schema(env),
		Translation:      d.translation(cfg.Translate),
		CloudflareBypass: cfg.CloudflareBypass,
	}
}

func (d *Definition) requests(override []config.RequestConfig) []crawler.Request {
	if len(override) == 0 {
		out := make([]crawler.Request, len(d.Requests))
		copy(out, d.Requests)

		return out
	}

	out := make([]crawler.Request, 0, len(override))
	for _, rc := range override {
		method := strings.ToUpper(rc.Method)
		if method == "" {
			method = http.MethodGet
		}

		out = append(out, crawler.Request{
			URL:     rc.URL,
			Method:  method,
			Body:    rc.Body,
			Headers: rc.Headers,
		})
	}

	return out
}

func (d *Definition) dateFormat(override *config.DateConfig) normalizer.DateFormat {
	if override == nil {
		return d.Date
	}

	f := normalizer.DateFormat{
		Separator:    override.Separator,
		TakeLast:     override.TakeLast,
		RemoveSpaces: override.RemoveSpaces,
		Layouts:      override.Layouts,
	}
	if len(f.Layouts) == 0 {
		f.Layouts = d.Date.Layouts
	}

	return f
}

func (d *Definition) translation(override *config.SourceTranslate) *Translation {
	if override == nil {
		if d.Translation == nil {
			return nil
		}

		t := *d.Translation

		return &t
	}

	t := Translation{}
	if d.Translation != nil {
		t = *d.Translation
	}

	if override.From != "" {
		t.From = override.From
	}

	if override.To != "" {
		t.To = override.To
	}

	if len(override.Columns) > 0 {
		t.Columns = override.Columns
	}

	if override.Headers {
		t.Headers = true
	}

	if override.Workers > 0 {
		t.Workers = override.Workers
	}

	if t.From == "" {
		t.From = "auto"
	}

	if t.To == "" {
		t.To = "en"
	}

	return &t
}

// Registry holds the known site definitions.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition, replacing one with the same name.
func (r *Registry) Register(d *Definition) {
	r.defs[d.Name] = d
}

// Get retrieves a definition by name.
func (r *Registry) Get(name string) (*Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownSource, name, strings.Join(r.Names(), ", "))
	}

	return d, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// All returns the definitions sorted by name.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, name := range r.Names() {
		out = append(out, r.defs[name])
	}

	return out
}

// DefaultRegistry creates a registry with every supported site.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(nab())
	r.Register(gobpe())
	r.Register(fsrc())
	r.Register(umucyo())
	r.Register(momgov())
	r.Register(tcontas())
	r.Register(superseguros())

	return r
}

// collapse is the common first cleaning pass.
var collapse = []normalizer.Cleaner{normalizer.CollapseWhitespace}

func collapseAll(columns ...string) []normalizer.Rule {
	rules := make([]normalizer.Rule, len(columns))
	for i, c := range columns {
		rules[i] = normalizer.Rule{Column: c, Clean: collapse}
	}

	return rules
}

// formPost builds a form-encoded POST request.
func formPost(url, body string) crawler.Request {
	return crawler.Request{
		URL:     url,
		Method:  http.MethodPost,
		Body:    body,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
	}
}

func get(url string) crawler.Request {
	return crawler.Request{URL: url, Method: http.MethodGet}
}

// browserHeaders are the navigation headers the sites expect.
func browserHeaders(extra map[string]string) map[string]string {
	return utils.MergeMaps(map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
		"User-Agent":      utils.DefaultUserAgent,
	}, extra)
}
