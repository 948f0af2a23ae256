package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// System identifies one of the managed clusters
type System string

const (
	SystemConsul System = "consul"
	SystemNomad  System = "nomad"
)

const (
	// DefaultTimeoutSeconds applies when no timeout is configured
	DefaultTimeoutSeconds = 10
)

// envVars holds the address/token fallbacks used by each system's own CLI
var envVars = map[System][2]string{
	SystemConsul: {"CONSUL_HTTP_ADDR", "CONSUL_HTTP_TOKEN"},
	SystemNomad:  {"NOMAD_ADDR", "NOMAD_TOKEN"},
}

// Params are connection settings as the user supplied them. Any field may be
// left empty; later layers and the environment fill the gaps.
type Params struct {
	URL                      string `yaml:"url,omitempty"`
	ManagementToken          string `yaml:"managementToken,omitempty"`
	ValidateCerts            *bool  `yaml:"validateCerts,omitempty"`
	ConnectionTimeoutSeconds *int   `yaml:"connectionTimeoutSeconds,omitempty"`
}

// Merge returns p with every field that is set in over replaced
func (p Params) Merge(over Params) Params {
	if over.URL != "" {
		p.URL = over.URL
	}
	if over.ManagementToken != "" {
		p.ManagementToken = over.ManagementToken
	}
	if over.ValidateCerts != nil {
		p.ValidateCerts = over.ValidateCerts
	}
	if over.ConnectionTimeoutSeconds != nil {
		p.ConnectionTimeoutSeconds = over.ConnectionTimeoutSeconds
	}
	return p
}

// Connection is the resolved, immutable connection configuration for one
// managed system.
type Connection struct {
	System          System
	URL             string
	ManagementToken string
	ValidateCerts   bool
	Timeout         time.Duration
}

// String hides the token
func (c Connection) String() string {
	return fmt.Sprintf("%s(%s, validateCerts=%t, timeout=%s)", c.System, c.URL, c.ValidateCerts, c.Timeout)
}

// EnvVars returns the address and token environment variables for sys
func EnvVars(sys System) (addr, token string) {
	v := envVars[sys]
	return v[0], v[1]
}

// Resolve applies environment fallback and defaults to p and validates the
// result.
func Resolve(sys System, p Params, getenv func(string) string) (Connection, error) {
	vars, ok := envVars[sys]
	if !ok {
		return Connection{}, &Error{Field: "system", Message: fmt.Sprintf("unknown system %q", sys)}
	}

	conn := Connection{
		System:          sys,
		URL:             strings.TrimSpace(p.URL),
		ManagementToken: p.ManagementToken,
		ValidateCerts:   true,
		Timeout:         DefaultTimeoutSeconds * time.Second,
	}

	if conn.URL == "" {
		conn.URL = strings.TrimSpace(getenv(vars[0]))
	}
	if conn.ManagementToken == "" {
		conn.ManagementToken = getenv(vars[1])
	}
	if p.ValidateCerts != nil {
		conn.ValidateCerts = *p.ValidateCerts
	}
	if p.ConnectionTimeoutSeconds != nil {
		if *p.ConnectionTimeoutSeconds <= 0 {
			return Connection{}, &Error{
				Field:   "connectionTimeoutSeconds",
				Message: fmt.Sprintf("must be positive, got %d", *p.ConnectionTimeoutSeconds),
			}
		}
		conn.Timeout = time.Duration(*p.ConnectionTimeoutSeconds) * time.Second
	}

	if conn.URL == "" {
		return Connection{}, &Error{Field: "url", Message: fmt.Sprintf("is required (or set %s)", vars[0])}
	}
	u, err := url.Parse(conn.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Connection{}, &Error{Field: "url", Message: fmt.Sprintf("%q is not an http(s) URL", conn.URL)}
	}
	conn.URL = strings.TrimRight(conn.URL, "/")

	if conn.ManagementToken == "" {
		return Connection{}, &Error{Field: "managementToken", Message: fmt.Sprintf("is required (or set %s)", vars[1])}
	}

	return conn, nil
}

// Error describes an invalid connection setting
type Error struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("invalid connection config: %s %s", e.Field, e.Message)
}
