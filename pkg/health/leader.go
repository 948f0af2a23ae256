package health

import (
	"context"
	"net/http"
	"time"

	"github.com/cuemby/converge/pkg/client"
)

// LeaderChecker asks a Consul or Nomad agent which server it sees as the
// raft leader. An agent with no leader is unhealthy.
type LeaderChecker struct {
	Client *client.Client
}

// NewLeaderChecker creates a new leader checker
func NewLeaderChecker(c *client.Client) *LeaderChecker {
	return &LeaderChecker{Client: c}
}

// Check performs the leader lookup
func (l *LeaderChecker) Check(ctx context.Context) Result {
	start := time.Now()
	result := Result{
		System:    l.Client.Dialect().Name,
		CheckedAt: start,
	}

	v, err := l.Client.Do(ctx, client.Request{
		Method:     http.MethodGet,
		Path:       "/v1/status/leader",
		ExpectJSON: true,
	})
	result.Duration = time.Since(start)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	leader, _ := v.(string)
	if leader == "" {
		result.Message = "no cluster leader"
		return result
	}

	result.Healthy = true
	result.Leader = leader
	result.Message = "leader " + leader
	return result
}
