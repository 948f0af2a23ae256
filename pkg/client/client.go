package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/cuemby/converge/pkg/config"
	"github.com/cuemby/converge/pkg/diag"
	"github.com/cuemby/converge/pkg/log"
	"github.com/cuemby/converge/pkg/metrics"
	"github.com/rs/zerolog"
)

// Doer performs a single HTTP round trip. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one Consul or Nomad cluster
type Client struct {
	dialect Dialect
	conn    config.Connection
	http    Doer
	sink    diag.Sink
	logger  zerolog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithSink mirrors every request to s
func WithSink(s diag.Sink) Option {
	return func(c *Client) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithDoer replaces the HTTP transport
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// New creates a client for the given dialect and connection
func New(d Dialect, conn config.Connection, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !conn.ValidateCerts, //nolint:gosec // opt-in via validateCerts=false
	}

	c := &Client{
		dialect: d,
		conn:    conn,
		http: &http.Client{
			Timeout:   conn.Timeout,
			Transport: transport,
		},
		sink:   diag.Nop{},
		logger: log.WithComponent(d.Name + "-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the dialect the client was built with
func (c *Client) Dialect() Dialect {
	return c.dialect
}

// Token returns the management token the client authenticates with
func (c *Client) Token() string {
	return c.conn.ManagementToken
}

// Request describes one API call
type Request struct {
	Method string
	// Path is appended to the base URL; callers escape path segments
	Path  string
	Query url.Values
	// Body is encoded as JSON when non-nil
	Body any
	// ExpectJSON decodes the response body as JSON; otherwise the raw text is
	// returned
	ExpectJSON bool
	// Ignore lists statuses that mean "nothing there" for this call
	Ignore []int
}

// Do issues the request.
//
// It returns the decoded JSON value (or the raw body as a string when
// ExpectJSON is false), or (nil, nil) when the response status is listed in
// Ignore. Every other failure is returned as one of *AuthError, *StatusError,
// *DecodeError or *TransportError.
func (c *Client) Do(ctx context.Context, req Request) (any, error) {
	target := c.conn.URL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	entry := diag.Entry{
		Caller: diag.Caller(ctx),
		Method: req.Method,
		URL:    target,
	}

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			entry.Err = err
			c.sink.Record(entry)
			return nil, fmt.Errorf("failed to encode request body for [%s] %s: %w", req.Method, target, err)
		}
	}
	entry.RequestBody = string(payload)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(payload))
	if err != nil {
		entry.Err = err
		c.sink.Record(entry)
		return nil, fmt.Errorf("failed to create request [%s] %s: %w", req.Method, target, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(c.dialect.TokenHeader, c.conn.ManagementToken)
	httpReq.Header.Set("User-Agent", c.dialect.UserAgent)

	timer := metrics.NewTimer()
	resp, err := c.http.Do(httpReq)
	timer.ObserveDurationVec(metrics.APIRequestDuration, c.dialect.Name, req.Method)

	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(c.dialect.Name, req.Method, "error").Inc()
		entry.Err = err
		c.sink.Record(entry)
		return nil, &TransportError{Method: req.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	metrics.APIRequestsTotal.WithLabelValues(c.dialect.Name, req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	entry.Status = resp.StatusCode
	entry.ResponseBody = string(raw)
	entry.Err = err
	c.sink.Record(entry)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: target, Err: err}
	}

	c.logger.Debug().
		Str("caller", entry.Caller).
		Str("method", req.Method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("took", timer.Duration()).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.classify(req, target, resp.StatusCode, string(raw))
	}

	if !req.ExpectJSON {
		return string(raw), nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &DecodeError{Method: req.Method, URL: target, Err: err}
	}
	return decoded, nil
}

// classify turns a non-2xx status into nil (expected absence) or an error
func (c *Client) classify(req Request, target string, status int, body string) error {
	ignored := slices.Contains(req.Ignore, status)
	auth := status == http.StatusUnauthorized || status == http.StatusForbidden

	switch {
	case ignored && (!auth || c.dialect.AuthOverridable):
		return nil
	case auth:
		return &AuthError{Status: status, Method: req.Method, URL: target, Body: body}
	default:
		return &StatusError{Status: status, Method: req.Method, URL: target, Body: body}
	}
}

// Object runs Do and requires the result to be a JSON object. An ignored
// status yields (nil, nil).
func (c *Client) Object(ctx context.Context, req Request) (map[string]any, error) {
	req.ExpectJSON = true
	v, err := c.Do(ctx, req)
	if err != nil || v == nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{
			Method: req.Method,
			URL:    c.conn.URL + req.Path,
			Err:    fmt.Errorf("expected a JSON object, got %T", v),
		}
	}
	return obj, nil
}

// List runs Do and requires the result to be a JSON array
func (c *Client) List(ctx context.Context, req Request) ([]any, error) {
	req.ExpectJSON = true
	v, err := c.Do(ctx, req)
	if err != nil || v == nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &DecodeError{
			Method: req.Method,
			URL:    c.conn.URL + req.Path,
			Err:    fmt.Errorf("expected a JSON array, got %T", v),
		}
	}
	return list, nil
}
