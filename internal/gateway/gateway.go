// Package gateway is the outbound HTTP chokepoint. Every network call the
// app makes goes through it: domain allowlisting, request body screening,
// fixed headers, per-request timeouts and bounded retries on transient
// network failures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/pathshala/dataguard/internal/errors"
	"github.com/pathshala/dataguard/internal/inputguard"
	"github.com/pathshala/dataguard/internal/masking"
	"github.com/pathshala/dataguard/internal/metrics"
)

const (
	// MaxResponseBytes is the point past which a response body is flagged
	// as oversized. Reading stops slightly beyond it.
	MaxResponseBytes = 10 << 20
	// previewBytes is how much of an error response body is logged.
	previewBytes = 512

	userAgent = "pathshala-app/1.0"
)

// DefaultAllowedDomains are the destinations reachable out of the box.
// Subdomains of an allowed domain are allowed too.
var DefaultAllowedDomains = []string{
	"openrouter.ai",
	"googleapis.com",
	"firebaseio.com",
}

// Doer issues HTTP requests. *http.Client satisfies it; tests substitute
// their own transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Gateway. Zero values fall back to the defaults noted
// on each field.
type Options struct {
	// AllowedDomains is the outbound allowlist. Nil means
	// DefaultAllowedDomains.
	AllowedDomains []string
	// DevMode bypasses the allowlist so any http/https destination is
	// reachable. Never enable in production builds.
	DevMode bool
	// Timeout bounds each attempt. Default 30s.
	Timeout time.Duration
	// MaxAttempts bounds retries on transient network errors. Default 3.
	MaxAttempts int
	// RetryDelay is the fixed pause between attempts. Default 2s.
	RetryDelay time.Duration
}

// Response is the gateway's view of an HTTP response with the body already
// drained.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Gateway screens and executes outbound requests. Safe for concurrent use.
type Gateway struct {
	client  Doer
	guard   *inputguard.Guard
	logger  *slog.Logger
	metrics metrics.BusinessMetrics

	allowedDomains []string
	devMode        bool
	timeout        time.Duration
	maxAttempts    int
	retryDelay     time.Duration
}

// NewGateway creates a Gateway using the given transport.
func NewGateway(client Doer, guard *inputguard.Guard, logger *slog.Logger, businessMetrics metrics.BusinessMetrics, opts Options) *Gateway {
	if opts.AllowedDomains == nil {
		opts.AllowedDomains = DefaultAllowedDomains
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Gateway{
		client:         client,
		guard:          guard,
		logger:         logger,
		metrics:        businessMetrics,
		allowedDomains: opts.AllowedDomains,
		devMode:        opts.DevMode,
		timeout:        opts.Timeout,
		maxAttempts:    opts.MaxAttempts,
		retryDelay:     opts.RetryDelay,
	}
}

// IsAllowed reports whether rawURL may be called. Only https URLs whose host
// is an allowed domain or one of its subdomains pass. In dev mode any
// http/https destination passes so tests and local servers are reachable.
// javascript: and data: URLs never pass, dev mode or not.
func (g *Gateway) IsAllowed(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())

	if (scheme != "http" && scheme != "https") || host == "" {
		return false
	}
	if g.devMode {
		return true
	}
	if scheme != "https" {
		return false
	}
	for _, domain := range g.allowedDomains {
		domain = strings.ToLower(domain)
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Get issues a GET request through the gateway pipeline. Caller headers
// override the gateway's fixed headers.
func (g *Gateway) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	return g.execute(ctx, http.MethodGet, rawURL, nil, headers)
}

// Post issues a POST request with a JSON object body. Every string field is
// screened before anything touches the network: fields matching an injection
// pattern are dropped with a logged security event, the rest are HTML
// sanitized. If screening drops every field of a non-empty body the call is
// refused with ErrSecurityViolation.
func (g *Gateway) Post(ctx context.Context, rawURL string, body map[string]any, headers map[string]string) (*Response, error) {
	var payload []byte
	if body != nil {
		cleaned := g.screenBody(ctx, body)
		if len(cleaned) == 0 && len(body) > 0 {
			return nil, apperrors.Wrap(apperrors.ErrSecurityViolation, "request body failed security screening")
		}
		var err error
		payload, err = json.Marshal(cleaned)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Join(apperrors.ErrInvalidInput, err), "request body is not encodable")
		}
	}
	return g.execute(ctx, http.MethodPost, rawURL, payload, headers)
}

// screenBody drops hostile string fields and sanitizes the remaining ones.
// Non-string values pass through untouched.
func (g *Gateway) screenBody(ctx context.Context, body map[string]any) map[string]any {
	cleaned := make(map[string]any, len(body))
	for key, value := range body {
		s, ok := value.(string)
		if !ok {
			cleaned[key] = value
			continue
		}
		if g.guard.ContainsInjectionPattern(ctx, s) {
			g.logger.Warn("dropping request field after security screening",
				slog.String("field", key))
			continue
		}
		cleaned[key] = g.guard.Sanitize(s)
	}
	return cleaned
}

// ValidateResponse rejects HTTP error statuses, logging a short body preview,
// and flags oversized bodies.
func (g *Gateway) ValidateResponse(resp *Response) error {
	if len(resp.Body) > MaxResponseBytes {
		g.logger.Warn("response body exceeds size limit",
			slog.Int("size", len(resp.Body)))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		preview := resp.Body
		if len(preview) > previewBytes {
			preview = preview[:previewBytes]
		}
		g.logger.Warn("upstream returned error status",
			slog.Int("status", resp.StatusCode),
			slog.String("body_preview", string(preview)))
		return apperrors.New(fmt.Sprintf("upstream returned status %d", resp.StatusCode))
	}
	return nil
}

func (g *Gateway) execute(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) (*Response, error) {
	start := time.Now()

	if !g.IsAllowed(rawURL) {
		g.logger.Warn("blocked request to disallowed destination",
			slog.String("url", masking.MaskURL(rawURL)))
		g.metrics.RecordSecurityEvent(ctx, "gateway", "domain_not_allowed")
		return nil, apperrors.Wrap(apperrors.ErrDomainNotAllowed, "destination is not on the allowlist")
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.retryDelay):
			}
			g.logger.Debug("retrying request",
				slog.String("url", masking.MaskURL(rawURL)),
				slog.Int("attempt", attempt))
		}

		resp, err := g.attempt(ctx, method, rawURL, body, headers)
		if err == nil {
			g.metrics.RecordOperation(ctx, "gateway", method, "success")
			g.metrics.RecordDuration(ctx, "gateway", method, time.Since(start), "success")
			return resp, nil
		}
		lastErr = err
		if !isTransient(ctx, err) {
			break
		}
	}

	g.metrics.RecordOperation(ctx, "gateway", method, "error")
	return nil, apperrors.Wrap(lastErr, "request failed")
}

func (g *Gateway) attempt(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	httpResp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	// Read a little past the limit so oversized bodies are detectable.
	data, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}, nil
}

// ParseJSON decodes a response body that must be a JSON object. Failures are
// logged with a bounded body preview before propagating.
func (g *Gateway) ParseJSON(resp *Response) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		preview := resp.Body
		if len(preview) > previewBytes {
			preview = preview[:previewBytes]
		}
		g.logger.Warn("response is not a JSON object",
			slog.String("body_preview", string(preview)),
			slog.String("error", err.Error()))
		return nil, apperrors.Wrap(apperrors.Join(apperrors.ErrInvalidInput, err), "response is not a JSON object")
	}
	return payload, nil
}

// isTransient reports whether an attempt error is worth retrying. An expired
// per-attempt timeout is transient (the connection stalled, the next attempt
// may succeed); once the caller's own context is done the budget is spent and
// nothing is retried. ctx is the caller's context, not the attempt's.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil || apperrors.Is(err, context.Canceled) {
		return false
	}
	if apperrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if apperrors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return apperrors.As(err, &opErr)
}
