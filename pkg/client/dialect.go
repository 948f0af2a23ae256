package client

// Dialect captures what differs between the Consul and Nomad HTTP APIs from
// the client's point of view.
type Dialect struct {
	// Name labels metrics and log lines
	Name string
	// TokenHeader carries the management token
	TokenHeader string
	UserAgent   string
	// AuthOverridable lets a caller list 401/403 as expected absence. Consul
	// answers a token lookup for an unknown accessor with 403.
	AuthOverridable bool
}

var (
	// Consul talks to the Consul agent HTTP API
	Consul = Dialect{
		Name:            "consul",
		TokenHeader:     "X-Consul-Token",
		UserAgent:       "converge-consul",
		AuthOverridable: true,
	}

	// Nomad talks to the Nomad HTTP API
	Nomad = Dialect{
		Name:        "nomad",
		TokenHeader: "X-Nomad-Token",
		UserAgent:   "converge-nomad",
	}
)
