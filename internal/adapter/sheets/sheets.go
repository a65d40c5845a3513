// Package sheets talks to the spreadsheet-backed web app that holds the
// product list and records submitted forms.
package sheets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/port"
	"github.com/niksmo/kiksniks/pkg/retry"
)

var (
	_ port.ProductSource = (*Client)(nil)
	_ port.Submitter     = (*Client)(nil)
)

var (
	ErrStatus      = errors.New("unexpected response status")
	ErrContentType = errors.New("unexpected content type")
	ErrEnvelope    = errors.New("response does not match the products envelope")
	ErrSource      = errors.New("source reported an error")
	ErrNoProducts  = errors.New("no products found in response")
)

const FallbackMessage = "Could not connect to Google Sheets. Using demo products."

// Feed formats of the products URL.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultMaxAttempts  = 3
	defaultBackoff      = time.Second
	maxBodySize         = 16 << 20
)

type Config struct {
	ProductsURL string
	SubmitURL   string
	Format      string
	// Strict accepts only the documented envelope and never substitutes
	// demo data for a failed fetch.
	Strict       bool
	UseMockData  bool
	FetchTimeout time.Duration
	MaxAttempts  int
	Backoff      time.Duration
	DemoSeed     uint64
}

type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

type Option func(*Client)

func HTTPClientOpt(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func ClockOpt(now func() time.Time) Option {
	return func(cl *Client) {
		cl.now = now
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.SubmitURL == "" {
		cfg.SubmitURL = submitURLFrom(cfg.ProductsURL)
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// submitURLFrom drops the query of the products URL: the web app serves
// reads and writes on the same endpoint.
func submitURLFrom(productsURL string) string {
	u, _, _ := strings.Cut(productsURL, "?")
	return u
}

func (c *Client) mockMode() bool {
	return c.cfg.UseMockData || strings.TrimSpace(c.cfg.ProductsURL) == ""
}

// FetchProducts loads the product list. Failed attempts are retried with
// a linear backoff. When every attempt fails the lenient client returns
// demo products with a notice, the strict client returns the error.
func (c *Client) FetchProducts(ctx context.Context) (domain.ProductFeed, error) {
	const op = "Client.FetchProducts"
	log := slog.With("op", op)

	if c.mockMode() {
		log.Info("using demo products", "useMockData", c.cfg.UseMockData)
		return domain.ProductFeed{Products: c.demo()}, nil
	}

	rc := retry.RetryConfig{
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     retry.LinearBackoff(c.cfg.Backoff),
		ShouldRetry: func(error) bool { return ctx.Err() == nil },
		OnRetry: func(attempt int, wait time.Duration, err error) {
			log.Warn("fetch products failed, retrying",
				"attempt", attempt,
				"maxAttempts", c.cfg.MaxAttempts,
				"wait", wait,
				"err", err,
			)
		},
	}
	ps, err := retry.DoWithResult(ctx, rc, func() ([]domain.Product, error) {
		return c.fetchOnce(ctx)
	})
	if err == nil {
		log.Info("products loaded", "count", len(ps))
		return domain.ProductFeed{Products: ps}, nil
	}

	if c.cfg.Strict || ctx.Err() != nil {
		return domain.ProductFeed{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Error("all attempts failed, using demo products", "err", err)
	notice := domain.NewToast(domain.ToastWarning, FallbackMessage, "")
	return domain.ProductFeed{Products: c.demo(), Notice: &notice}, nil
}

func (c *Client) demo() []domain.Product {
	return DemoProducts(c.cfg.DemoSeed, c.now())
}

func (c *Client) fetchOnce(ctx context.Context) ([]domain.Product, error) {
	const op = "Client.fetchOnce"

	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.cfg.ProductsURL, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", c.accept())
	req.Header.Set("Cache-Control", "no-cache")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrStatus, res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read body: %w", op, err)
	}

	rows, err := c.rows(res.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := DecodeProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(ps) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoProducts)
	}
	return ps, nil
}

func (c *Client) accept() string {
	switch c.cfg.Format {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return xlsxMediaType
	}
	return "application/json"
}

func (c *Client) rows(contentType string, body []byte) ([]map[string]any, error) {
	if !hasMediaType(contentType, body, c.accept()) {
		return nil, fmt.Errorf("%w: %q", ErrContentType, contentType)
	}
	switch c.cfg.Format {
	case FormatCSV:
		return csvRows(bytes.NewReader(body))
	case FormatXLSX:
		return xlsxRows(bytes.NewReader(body))
	}
	return jsonRows(body, c.cfg.Strict)
}

// hasMediaType checks the declared content type. Responses without one
// are sniffed.
func hasMediaType(contentType string, body []byte, want string) bool {
	if contentType == "" {
		return mimetype.Detect(body).Is(want)
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mt, want)
}
