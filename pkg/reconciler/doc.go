/*
Package reconciler implements the one decision every converge resource makes:
given what the user wants and what the remote system has, what should be done?

The answer depends only on the requested state, whether the object exists, and
whether the desired body is a subset of the existing object:

	┌─────────────────────────────────────────────────────────────┐
	│                 Reconcile(ctx, Request)                     │
	└──────────────┬──────────────────────────────────────────────┘
	               │ Resource.Lookup
	       ┌───────┴────────┐
	  state=absent     state=present
	       │                │
	  exists? ──► Delete    ├─ Planner? ──► Plan ──► Create/Update when changed
	       │                ├─ missing  ──► Create
	     none               ├─ desired ⊆ existing ──► none
	                        ├─ Immutable ──► mismatch flag, no write
	                        └─ otherwise ──► Update

Unset (nil) fields are stripped from the desired body before it is compared or
sent, so server defaults never register as drift. Fields listed in
Request.Exclude are sent on create and update but left out of the comparison,
for values the server normalizes or never echoes back.

Every decision is logged, counted in converge_reconcile_total and timed in
converge_reconcile_duration_seconds. Errors from the resource abort the
reconciliation and are returned wrapped; nothing is retried.

# Writing a Resource

	type namespace struct {
		c    *client.Client
		name string
	}

	func (n *namespace) Lookup(ctx context.Context) (reconciler.Object, error) {
		return n.c.Object(ctx, client.Request{
			Method: http.MethodGet,
			Path:   "/v1/namespace/" + url.PathEscape(n.name),
			Ignore: []int{http.StatusNotFound},
		})
	}

	result, err := reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      "NomadNamespace",
		Name:      name,
		ResultKey: "namespace",
		State:     reconciler.StatePresent,
		Resource:  &namespace{c: c, name: name},
		Desired:   desired,
	})
*/
package reconciler
