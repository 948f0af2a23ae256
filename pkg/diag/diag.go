// Package diag mirrors every management API request to an append-only file
// for troubleshooting.
//
// The mirror is off unless CONVERGE_DEBUG_LOGGER_ENABLED is "yes" or "true".
// Request bodies can carry secrets, so enabling it writes them to disk.
package diag

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// EnvEnabled gates the file sink
	EnvEnabled = "CONVERGE_DEBUG_LOGGER_ENABLED"

	// DefaultPath is where the file sink appends its entries
	DefaultPath = "/tmp/DEBUG_CONVERGE.log"
)

// Entry is one request/response pair
type Entry struct {
	Caller       string
	Method       string
	URL          string
	RequestBody  string
	Status       int
	ResponseBody string
	Err          error
}

// Sink receives a copy of every request the API client attempts.
// Implementations must not fail the request; errors are theirs to swallow.
type Sink interface {
	Record(e Entry)
}

// Nop discards every entry
type Nop struct{}

// Record implements Sink
func (Nop) Record(Entry) {}

// FileSink appends JSON lines to a file
type FileSink struct {
	mu     sync.Mutex
	file   *os.File
	logger zerolog.Logger
}

// OpenFile opens (or creates) path for appending
func OpenFile(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostic log %s: %w", path, err)
	}
	return &FileSink{
		file:   f,
		logger: zerolog.New(f).With().Timestamp().Logger(),
	}, nil
}

// Record implements Sink
func (s *FileSink) Record(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := s.logger.Log().
		Str("caller", e.Caller).
		Str("method", e.Method).
		Str("url", e.URL).
		Str("request_body", e.RequestBody).
		Str("response_body", e.ResponseBody)
	if e.Status != 0 {
		ev = ev.Int("status", e.Status)
	}
	if e.Err != nil {
		ev = ev.Err(e.Err)
	}
	ev.Msg("api request")
}

// Close closes the underlying file
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Enabled reports whether the env gate is switched on
func Enabled(getenv func(string) string) bool {
	switch strings.ToLower(strings.TrimSpace(getenv(EnvEnabled))) {
	case "yes", "true":
		return true
	}
	return false
}

// FromEnv returns a FileSink at DefaultPath when the env gate is on, and Nop
// otherwise. The returned close function is always safe to call.
func FromEnv(getenv func(string) string) (Sink, func() error, error) {
	if !Enabled(getenv) {
		return Nop{}, func() error { return nil }, nil
	}
	fs, err := OpenFile(DefaultPath)
	if err != nil {
		return nil, nil, err
	}
	return fs, fs.Close, nil
}

type callerKey struct{}

// WithCaller tags ctx with the name of the operation issuing requests
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// Caller returns the name stored by WithCaller, or "unknown"
func Caller(ctx context.Context) string {
	if c, ok := ctx.Value(callerKey{}).(string); ok && c != "" {
		return c
	}
	return "unknown"
}
