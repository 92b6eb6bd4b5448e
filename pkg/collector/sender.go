package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/honeytracks/pkg/logger"
	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

// maxErrorBody limits how much of a failed response is read for diagnostics.
const maxErrorBody = 64 << 10

// Sender posts batches to the collector. It implements tracking.Transport.
//
// Each Send is a single attempt: retries and cooldowns belong to the
// pipeline, which requeues a failed batch at the head of its backlog.
type Sender struct {
	endpoint string
	client   *http.Client
	opts     *options
}

var _ tracking.Transport = (*Sender)(nil)

// NewSender creates a sender for an endpoint URL, usually Settings.Endpoint().
func NewSender(endpoint string, opts ...Option) (*Sender, error) {
	if err := validateURL(endpoint); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Sender{endpoint: endpoint, client: client, opts: o}, nil
}

// Endpoint returns the collector URL.
func (s *Sender) Endpoint() string {
	return s.endpoint
}

// Send delivers batch in one form POST. A 2xx response means the whole
// batch was accepted.
func (s *Sender) Send(ctx context.Context, batch []tracking.Event) error {
	if len(batch) == 0 {
		return fmt.Errorf("%w: %w", ErrPermanentFailure, ErrEmptyBatch)
	}

	cb := s.opts.circuitBreaker
	if cb != nil && !cb.Allow() {
		return ErrCircuitOpen
	}

	res := s.attempt(ctx, batch)

	if cb != nil {
		if res.Err == nil {
			cb.RecordSuccess()
		} else {
			cb.RecordFailure()
		}
	}
	if s.opts.onDelivery != nil {
		s.opts.onDelivery(res)
	}

	s.opts.logger.LogAttrs(ctx, slog.LevelDebug, "collector request finished",
		logger.BatchID(res.BatchID),
		logger.BatchSize(res.Size),
		logger.StatusCode(res.StatusCode),
		logger.Duration(res.Duration),
		logger.Error(res.Err),
	)
	return res.Err
}

func (s *Sender) attempt(ctx context.Context, batch []tracking.Event) Result {
	start := time.Now()
	res := Result{BatchID: uuid.NewString(), Size: len(batch)}
	fail := func(err error) Result {
		res.Duration = time.Since(start)
		res.Err = err
		return res
	}

	body := EncodeForm(batch)

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrPermanentFailure, err))
	}
	for k, v := range s.opts.headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.opts.userAgent)
	req.Header.Set(HeaderBatchID, res.BatchID)

	if s.opts.secret != "" {
		sig, err := Sign(s.opts.secret, body, start)
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrPermanentFailure, err))
		}
		sig.Apply(req.Header)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fail(fmt.Errorf("%w: %w", ErrTimeout, err))
		}
		return fail(fmt.Errorf("%w: %w", ErrTemporaryFailure, err))
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		res.Duration = time.Since(start)
		return res
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	kind := ErrTemporaryFailure
	if isPermanentStatus(resp.StatusCode) {
		kind = ErrPermanentFailure
	}
	return fail(fmt.Errorf("%w: status %d%s", kind, resp.StatusCode, sanitizeBody(respBody)))
}

// isPermanentStatus reports whether a status code will not change on resend.
// Timeouts, early data and rate limiting are worth retrying.
func isPermanentStatus(code int) bool {
	if code < 400 || code >= 500 {
		return false
	}
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}

// sanitizeBody flattens a response body into a short single-line suffix.
func sanitizeBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return ": " + s
}

func validateURL(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}
