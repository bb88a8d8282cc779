// Package openalex fetches work-listing pages from the OpenAlex API.
package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
	"github.com/kailas-cloud/openalex4ml/internal/domain/work"
	"github.com/kailas-cloud/openalex4ml/internal/metrics"
)

// TypeFilter restricts listings to journal articles.
const TypeFilter = ",type:journal-article"

const maxErrorBody = 4 << 10

// StatusError reports a non-2xx listing response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", domain.ErrSourceUnavailable.Error(), e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrSourceUnavailable }

// Config holds the client settings.
type Config struct {
	// Mailto joins the OpenAlex polite pool when set.
	Mailto string
	// RequestsPerSecond paces requests; 0 disables pacing.
	RequestsPerSecond float64
	Timeout           time.Duration
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// Client requests listing pages one at a time. It never retries.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	mailto  string
	logger  *zap.Logger
}

// NewClient creates a listing client.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		mailto:  cfg.Mailto,
		logger:  logger,
	}
}

// PageURL builds the request URL of page n for a subject's works endpoint.
func (c *Client) PageURL(worksURL string, page int) string {
	u := worksURL + TypeFilter + "&page=" + strconv.Itoa(page)
	if c.mailto != "" {
		u += "&mailto=" + url.QueryEscape(c.mailto)
	}
	return u
}

// FetchPage fetches and decodes page n. Transport and status failures wrap
// domain.ErrSourceUnavailable, decode failures wrap domain.ErrSourcePayload.
func (c *Client) FetchPage(ctx context.Context, worksURL string, page int) (work.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return work.Page{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	pageURL := c.PageURL(worksURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return work.Page{}, fmt.Errorf("%w: build request: %w", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.SourceRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SourceRequestsTotal.WithLabelValues("transport").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return work.Page{}, fmt.Errorf("fetch page %d: %w", page, ctxErr)
		}
		return work.Page{}, fmt.Errorf("%w: fetch page %d: %w", domain.ErrSourceUnavailable, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.SourceRequestsTotal.WithLabelValues("http").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return work.Page{}, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var p work.Page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		metrics.SourceRequestsTotal.WithLabelValues("decode").Inc()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return work.Page{}, fmt.Errorf("decode page %d: %w", page, err)
		}
		return work.Page{}, fmt.Errorf("%w: decode page %d: %w", domain.ErrSourcePayload, page, err)
	}

	metrics.SourceRequestsTotal.WithLabelValues("ok").Inc()
	c.logger.Debug("Fetched works page",
		zap.String("url", pageURL),
		zap.Int("results", len(p.Results)),
	)
	return p, nil
}
