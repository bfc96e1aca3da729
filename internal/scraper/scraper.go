package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent is a browser-like agent; many article sites refuse bots.
const DefaultUserAgent = "Mozilla/5.0"

// DefaultTimeout bounds the single article request.
const DefaultTimeout = 15 * time.Second

// SourceDocument is a fetched article page and its readable text.
type SourceDocument struct {
	URL     string
	RawHTML string
	Text    string
}

// Extractor fetches article pages and reduces them to readable plain text.
type Extractor struct {
	userAgent      string
	requestTimeout time.Duration
}

// New creates an Extractor with the default agent and timeout.
func New() *Extractor {
	return &Extractor{
		userAgent:      DefaultUserAgent,
		requestTimeout: DefaultTimeout,
	}
}

// Extract returns the readable text of the page at rawURL, or "" on any
// failure. Failures are logged and never returned.
func (x *Extractor) Extract(ctx context.Context, rawURL string) string {
	doc, err := x.Fetch(ctx, rawURL)
	if err != nil {
		slog.Warn("Article extraction failed", "url", rawURL, "error", err)
		return ""
	}
	return doc.Text
}

// Fetch performs one GET of rawURL and runs the readability pass over the
// response. Any non-2xx status is an error. There are no retries.
func (x *Extractor) Fetch(ctx context.Context, rawURL string) (*SourceDocument, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(x.userAgent),
		colly.MaxDepth(1),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(x.requestTimeout)
	// Deliver error pages to OnResponse so the status check below sees them.
	c.ParseHTTPErrorResponse = true

	var (
		body     []byte
		status   int
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: %w (status: %d)", rawURL, err, r.StatusCode)
	})

	if err := c.Visit(rawURL); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("failed to visit %s: %w", rawURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, status)
	}

	html := string(body)
	text := ExtractHTML(html)
	if text == "" {
		return nil, errors.New("no readable text found")
	}

	return &SourceDocument{URL: rawURL, RawHTML: html, Text: text}, nil
}

// ValidateURL checks if a URL is valid and uses http/https.
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
