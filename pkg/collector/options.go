package collector

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single collector request.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "honeytracks-go/1.0"

// Result describes one delivery attempt.
type Result struct {
	BatchID    string
	Size       int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// DeliveryHook is called after every attempt, successful or not.
type DeliveryHook func(Result)

type options struct {
	client         *http.Client
	timeout        time.Duration
	userAgent      string
	headers        http.Header
	secret         string
	circuitBreaker *CircuitBreaker
	onDelivery     DeliveryHook
	logger         *slog.Logger
}

func defaultOptions() *options {
	return &options{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		headers:   make(http.Header),
		logger:    slog.Default(),
	}
}

// Option configures a Sender.
type Option func(*options)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithTimeout bounds each request. Default is 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(o *options) {
		if key != "" && value != "" {
			o.headers.Set(key, value)
		}
	}
}

// WithSecretKey signs every request body, see Sign.
func WithSecretKey(secret string) Option {
	return func(o *options) { o.secret = secret }
}

// WithCircuitBreaker fails fast with ErrCircuitOpen while cb is open.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(o *options) { o.circuitBreaker = cb }
}

// WithOnDelivery registers a hook called after every attempt.
func WithOnDelivery(hook DeliveryHook) Option {
	return func(o *options) { o.onDelivery = hook }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
