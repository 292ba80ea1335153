package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/claimview/internal/logging"
	"github.com/ppiankov/claimview/internal/model"
	"github.com/ppiankov/claimview/internal/worker"
	"go.uber.org/zap"
)

const fetchMaxRetries = 3

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// HTTPOptions configures an HTTPSource
type HTTPOptions struct {
	BaseURL           string
	Timeout           time.Duration
	UserAgent         string
	MaxBodyBytes      int64
	RequestsPerSecond float64
	Burst             int
	EndpointRates     map[string]float64 // Per-kind overrides of RequestsPerSecond
	HTTPProxy         string
	HTTPSProxy        string
	Logger            *zap.Logger
}

// HTTPSource reads snapshots from the claims backend JSON API:
//
//	GET {base}/claims
//	GET {base}/claims/{id}/{documents|facts|assumptions|checks|history}
type HTTPSource struct {
	base       *url.URL
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	log        *zap.Logger
}

// StatusError is a non-2xx backend response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// NewHTTPSource creates an HTTP-backed source
func NewHTTPSource(opts HTTPOptions) (*HTTPSource, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("http source: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("http source: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("http source: unsupported scheme %q", base.Scheme)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 4_000_000
	}

	limiter := worker.NewLimiter(opts.RequestsPerSecond, opts.Burst)
	for kind, rps := range opts.EndpointRates {
		if !knownKind(Kind(kind)) {
			return nil, fmt.Errorf("http source: rate for unknown endpoint %q", kind)
		}
		limiter.SetRate(kind, rps, opts.Burst)
	}

	return &HTTPSource{
		base: base,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &http.Transport{Proxy: proxyFunc(opts.HTTPProxy, opts.HTTPSProxy)},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBodyBytes,
		limiter:   limiter,
		log:       logging.OrNop(opts.Logger).Named("source.http"),
	}, nil
}

// ListClaims fetches all claims
func (s *HTTPSource) ListClaims(ctx context.Context) ([]model.Claim, error) {
	var claims []model.Claim
	if err := s.get(ctx, KindClaims, "", &claims); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

// ListDocuments fetches a claim's documents
func (s *HTTPSource) ListDocuments(ctx context.Context, claimID string) ([]model.Document, error) {
	docs := []model.Document{}
	if err := s.get(ctx, KindDocuments, claimID, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetFacts fetches a claim's fact set
func (s *HTTPSource) GetFacts(ctx context.Context, claimID string) (model.ClaimFacts, error) {
	var facts model.ClaimFacts
	if err := s.get(ctx, KindFacts, claimID, &facts); err != nil {
		return model.ClaimFacts{}, err
	}
	if facts.Facts == nil {
		facts.Facts = []model.Fact{}
	}
	return facts, nil
}

// GetAssumptions fetches a claim's assumptions
func (s *HTTPSource) GetAssumptions(ctx context.Context, claimID string) ([]model.Assumption, error) {
	items := []model.Assumption{}
	if err := s.get(ctx, KindAssumptions, claimID, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetChecks fetches a claim's check results
func (s *HTTPSource) GetChecks(ctx context.Context, claimID string) ([]model.CheckResult, error) {
	items := []model.CheckResult{}
	if err := s.get(ctx, KindChecks, claimID, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetHistory fetches a claim's assessment runs
func (s *HTTPSource) GetHistory(ctx context.Context, claimID string) ([]model.HistoryEntry, error) {
	items := []model.HistoryEntry{}
	if err := s.get(ctx, KindHistory, claimID, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *HTTPSource) endpoint(kind Kind, claimID string) string {
	if kind == KindClaims {
		return s.base.JoinPath("claims").String()
	}
	return s.base.JoinPath("claims", url.PathEscape(claimID), string(kind)).String()
}

// get fetches and decodes one endpoint, retrying transient failures with
// exponential backoff
func (s *HTTPSource) get(ctx context.Context, kind Kind, claimID string, v any) error {
	if kind != KindClaims {
		switch claimID {
		case "":
			return fmt.Errorf("%s: empty claim id", kind)
		case ".", "..":
			// JoinPath would resolve these into another endpoint
			return fmt.Errorf("%s: invalid claim id %q", kind, claimID)
		}
	}
	target := s.endpoint(kind, claimID)

	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		if !s.limiter.Allow(string(kind)) {
			s.log.Debug("rate limited", zap.String("endpoint", string(kind)))
			if err := s.limiter.Wait(ctx, string(kind)); err != nil {
				return fmt.Errorf("rate limit: %w", err)
			}
		}

		body, err := s.fetch(ctx, target)
		if err == nil {
			if err := json.Unmarshal(body, v); err != nil {
				return fmt.Errorf("decode %s: %w", kind, err)
			}
			return nil
		}

		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < fetchMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			s.log.Debug("retrying backend request",
				zap.String("url", target), zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))
			fetchSleepFunc(backoff)
		}
	}

	var statusErr *StatusError
	if errors.As(lastErr, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %q: %w", kind, claimID, ErrNotFound)
	}
	return fmt.Errorf("fetch %s: %w", kind, lastErr)
}

func (s *HTTPSource) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", target, s.maxBytes)
	}
	return body, nil
}

// isRetryable reports whether an error indicates a transient failure
func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

// proxyFunc uses explicit proxies when configured, else the environment
func proxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
