// Package health checks that the Consul and Nomad agents converge talks to
// are reachable and have elected a leader.
//
// A LeaderChecker performs one GET /v1/status/leader through the regular API
// client, so the request shows up in metrics and in the diagnostic log like
// any other call. Wait polls a Checker until it succeeds:
//
//	checker := health.NewLeaderChecker(c)
//	result, err := health.Wait(ctx, checker, health.DefaultConfig())
package health
