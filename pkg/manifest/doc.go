/*
Package manifest reads converge manifests and applies them.

A manifest is a YAML stream of resource documents:

	kind: NomadNamespace
	state: present            # present (default), absent, or purged for NomadJob
	connection:               # optional, overrides flags and environment
	  url: https://nomad.service.consul:4646
	  managementToken: ...
	  validateCerts: true
	  connectionTimeoutSeconds: 10
	spec:
	  name: apps
	  description: Application workloads
	---
	kind: ConsulIntention
	spec:
	  source: web
	  destination: db
	  action: allow

The kind prefix selects the system. Specs are decoded strictly: a misspelled
field is an error rather than a silently ignored setting.
*/
package manifest
