// Package fetch retrieves pages as parsed goquery documents.
//
// Every fetch carries the bot's User-Agent and a per-request timeout, and
// retries transient failures (network errors, 5xx, 429) a small number of
// times with exponential backoff. Callers treat any remaining error as
// skip-and-continue; a failed page never aborts a run.
package fetch

import (
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
)

const (
	// UserAgent identifies the bot to the sources it scrapes.
	UserAgent = "event-bot/1.0 (github.com/major-yy/event-bot)"

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 20 * time.Second

	maxRetries = 2
)

// Getter fetches a URL and returns its parsed document. Extractors and
// the pipeline depend on this interface so tests can substitute canned
// documents.
type Getter interface {
	Get(url string) (*goquery.Document, error)
}

// Client is the HTTP-backed Getter used in production.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// New creates a Client with the given per-request timeout. A zero
// timeout falls back to DefaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: UserAgent,
	}
}

// Get fetches the URL and parses the body into a document. Transient
// failures are retried; a non-2xx terminal status is an error.
func (c *Client) Get(url string) (*goquery.Document, error) {
	var doc *goquery.Document

	operation := func() error {
		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return err
			}
			return backoff.Permanent(err)
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("parsing HTML: %w", err))
		}
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}

	return doc, nil
}
