package manifest

import (
	"fmt"
	"sync"

	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/config"
	"github.com/cuemby/converge/pkg/diag"
)

// Connector hands out API clients for a system, given a document's
// connection overrides
type Connector interface {
	Connect(sys config.System, override config.Params) (*client.Client, error)
}

// Connections resolves connection settings in layers (document override,
// then Defaults, then the environment) and keeps one client per resolved
// connection.
type Connections struct {
	Defaults map[config.System]config.Params
	Getenv   func(string) string
	Sink     diag.Sink

	mu      sync.Mutex
	clients map[config.Connection]*client.Client
}

// Connect implements Connector
func (c *Connections) Connect(sys config.System, override config.Params) (*client.Client, error) {
	conn, err := config.Resolve(sys, c.Defaults[sys].Merge(override), c.Getenv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sys, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.clients[conn]; ok {
		return cl, nil
	}
	if c.clients == nil {
		c.clients = make(map[config.Connection]*client.Client)
	}

	dialect := client.Consul
	if sys == config.SystemNomad {
		dialect = client.Nomad
	}
	cl := client.New(dialect, conn, client.WithSink(c.Sink))
	c.clients[conn] = cl
	return cl, nil
}
