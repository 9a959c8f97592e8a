package translator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"regscrape/internal/config"
	"regscrape/internal/retry"
	"regscrape/pkg/utils"
)

// Google client errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected translation status")
	ErrEmptyTranslation = errors.New("empty translation result")
)

// GoogleClient scrapes the mobile Google Translate page.
type GoogleClient struct {
	client   *resty.Client
	endpoint string
}

// NewGoogleClient creates a client for the configured endpoint.
func NewGoogleClient(cfg config.TranslationConfig) *GoogleClient {
	client := resty.New().SetTimeout(cfg.Retry.GetTimeout())
	client.Header = utils.BuildHeaders(utils.MergeMaps(map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         cfg.Endpoint,
	}, cfg.Headers))

	return &GoogleClient{
		client:   client,
		endpoint: cfg.Endpoint,
	}
}

// Translate returns the text of the page's result container.
func (g *GoogleClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sl": source,
			"tl": target,
			"hl": "en",
			"q":  text,
		}).
		Get(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}

	if !resp.IsSuccess() {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())

		// Client errors other than rate limiting will not change on retry.
		if resp.StatusCode() < 500 && resp.StatusCode() != http.StatusTooManyRequests {
			return "", retry.Permanent(err)
		}

		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return "", fmt.Errorf("failed to parse translation page: %w", err)
	}

	result := strings.TrimSpace(doc.Find("div.result-container").First().Text())
	if result == "" {
		return "", ErrEmptyTranslation
	}

	return result, nil
}
