// Package news fetches a news site's front or tag page and reduces it to a
// short plain-text digest for the fetch_news tool.
// file: internal/news/fetcher.go
package news

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FetchOutcome is the classified result of one page fetch. It is one of
// Success, HTTPError, Timeout, NetworkError or UnexpectedError.
type FetchOutcome interface {
	outcome() string
}

// Success is a response with 200 <= status < 400.
type Success struct {
	StatusCode int
	Body       []byte
}

// HTTPError is a response with any other status.
type HTTPError struct {
	StatusCode int
}

// Timeout means the deadline passed before the body was read.
type Timeout struct{}

// NetworkError is a transport failure: DNS, dial, TLS or a broken read.
type NetworkError struct {
	Detail string
}

// UnexpectedError is a fault outside the transport, such as a request that
// could not be built.
type UnexpectedError struct {
	Detail string
}

func (Success) outcome() string         { return "success" }
func (HTTPError) outcome() string       { return "http_error" }
func (Timeout) outcome() string         { return "timeout" }
func (NetworkError) outcome() string    { return "network_error" }
func (UnexpectedError) outcome() string { return "unexpected_error" }

// DefaultMaxBodyBytes caps a page body when no explicit limit is given.
const DefaultMaxBodyBytes int64 = 5 << 20

// Fetcher performs single, unretried GET requests.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	logger       logging.Logger
}

// FetcherOption customises a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// NewFetcher creates a Fetcher that sends userAgent and reads at most
// maxBodyBytes of each body.
func NewFetcher(userAgent string, maxBodyBytes int64, logger logging.Logger, opts ...FetcherOption) *Fetcher {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	f := &Fetcher{
		client:       &http.Client{},
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.WithField("component", "news_fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs url once, bounded by timeout, and classifies what happened.
// It never returns an error: every failure is a FetchOutcome variant.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (result FetchOutcome) {
	ctx, span := telemetry.StartSpan(ctx, "news.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", url)),
	)
	start := time.Now()
	logger := f.logger.WithContext(ctx).WithField("url", url)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered panic during fetch.", "panic", fmt.Sprint(r))
			result = UnexpectedError{Detail: fmt.Sprint(r)}
		}
		span.SetAttributes(attribute.String("news.fetch.outcome", result.outcome()))
		var spanErr error
		switch o := result.(type) {
		case Success:
			span.SetAttributes(attribute.Int("http.status_code", o.StatusCode))
		case HTTPError:
			span.SetAttributes(attribute.Int("http.status_code", o.StatusCode))
			spanErr = errors.Newf("unexpected HTTP status %d", o.StatusCode)
		default:
			spanErr = errors.Newf("fetch failed: %s", result.outcome())
		}
		telemetry.EndSpan(span, spanErr)
		logger.Debug("Fetch finished.", "outcome", result.outcome(), "duration", time.Since(start))
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Error("Failed to build news request.", "error", fmt.Sprintf("%+v", errors.WithStack(err)))
		return UnexpectedError{Detail: err.Error()}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	return Success{StatusCode: resp.StatusCode, Body: body}
}

// classifyTransportError separates deadline expiry from other network faults.
func classifyTransportError(ctx context.Context, err error) FetchOutcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Timeout{}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout{}
	}
	return NetworkError{Detail: err.Error()}
}
