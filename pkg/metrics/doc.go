/*
Package metrics provides Prometheus metrics for converge.

All metrics are registered on the default registry at package init. converge is
a one-shot tool rather than a daemon, so instead of serving /metrics the apply
command can dump the registry to a file for the node exporter textfile
collector (see WriteTextfile).

# Metrics Catalog

converge_api_requests_total{system, method, status}:
  - Type: Counter
  - Every request issued to Consul or Nomad. status is the HTTP status code,
    or "error" when the transport failed before a response arrived.

converge_api_request_duration_seconds{system, method}:
  - Type: Histogram

converge_reconcile_total{kind, action}:
  - Type: Counter
  - action is one of create, update, delete, none, mismatch.

converge_reconcile_errors_total{kind}:
  - Type: Counter

converge_reconcile_duration_seconds{kind}:
  - Type: Histogram

converge_resources_changed:
  - Type: Gauge
  - Number of documents that reported changed=true in the last apply.

# Usage

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, kind)

	metrics.ReconcileTotal.WithLabelValues(kind, "create").Inc()
*/
package metrics
