/*
Package client provides the HTTP client converge uses to talk to the Consul and
Nomad management APIs.

Both APIs are JSON over HTTP with a bearer token in a system-specific header,
so a single Client type serves both, parameterized by a Dialect:

	┌──────────── reconcilers (pkg/consul, pkg/nomad) ────────────┐
	│   c.Object(ctx, client.Request{Method, Path, Ignore: ...})  │
	└──────────────────────────┬──────────────────────────────────┘
	                           │
	┌──────────────────────────▼──────── pkg/client ──────────────┐
	│  headers: Content-Type, <Dialect.TokenHeader>, User-Agent   │
	│  2xx      → decoded JSON (or raw text)                      │
	│  Ignore   → nil, nil   (expected absence)                   │
	│  401/403  → *AuthError (unless Dialect.AuthOverridable)     │
	│  other    → *StatusError                                    │
	│  bad JSON → *DecodeError                                    │
	│  no reply → *TransportError                                 │
	│  every attempt → diag.Sink, metrics                         │
	└─────────────────────────────────────────────────────────────┘

# Expected Absence

Lookups are idempotent: "not found" is a normal answer, not an error. Each call
lists the statuses that mean absence for that endpoint, because the two APIs do
not agree. Nomad answers 404 for a missing ACL token, Consul answers 403, so
the Consul dialect lets callers opt a 401/403 into absence while the Nomad
dialect always treats them as authorization failures.

# Usage

	c := client.New(client.Nomad, conn, client.WithSink(sink))

	ns, err := c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/namespace/" + url.PathEscape(name),
		Ignore: []int{http.StatusNotFound},
	})
	if err != nil {
		return err
	}
	if ns == nil {
		// namespace does not exist
	}

# Errors

All errors are fatal to the current reconciliation; nothing is retried. Use
errors.As to tell them apart:

	var authErr *client.AuthError
	if errors.As(err, &authErr) {
		// bad or insufficient management token
	}
*/
package client
