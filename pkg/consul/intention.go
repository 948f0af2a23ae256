package consul

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/reconciler"
)

// Intention is the desired state of a service mesh intention between two
// Consul services. Permissions are passed through as given, for L7 rules.
type Intention struct {
	Source      string           `yaml:"source"`
	Destination string           `yaml:"destination"`
	Description *string          `yaml:"description,omitempty"`
	Action      string           `yaml:"action,omitempty"`
	Permissions []map[string]any `yaml:"permissions,omitempty"`
}

func (i Intention) body() body.Body {
	var perms any
	if i.Permissions != nil {
		perms = i.Permissions
	}
	return body.Body{
		"SourceType":  "consul",
		"Description": body.Opt(i.Description),
		"Action":      body.NonZero(i.Action),
		"Permissions": perms,
	}
}

// ReconcileIntention drives an intention to state
func ReconcileIntention(ctx context.Context, c *client.Client, state reconciler.State, i Intention) (*reconciler.Result, error) {
	if err := required(KindIntention, "source", i.Source); err != nil {
		return nil, err
	}
	if err := required(KindIntention, "destination", i.Destination); err != nil {
		return nil, err
	}
	switch i.Action {
	case "", "allow", "deny":
	default:
		return nil, &reconciler.PolicyError{Kind: KindIntention, Reason: "action must be allow or deny, got " + i.Action}
	}

	return reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      KindIntention,
		Name:      i.Source + "->" + i.Destination,
		ResultKey: "intention",
		State:     state,
		Resource:  &intention{c: c, source: i.Source, destination: i.Destination},
		Desired:   i.body(),
	})
}

type intention struct {
	c                   *client.Client
	source, destination string
}

func (r *intention) query() url.Values {
	return url.Values{
		"source":      []string{r.source},
		"destination": []string{r.destination},
	}
}

func (r *intention) Lookup(ctx context.Context) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/connect/intentions/exact",
		Query:  r.query(),
		Ignore: []int{http.StatusNotFound},
	})
}

// write creates or replaces the intention, then reads it back since Consul
// only answers true.
func (r *intention) write(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	if _, err := r.c.Do(ctx, client.Request{
		Method:     http.MethodPut,
		Path:       "/v1/connect/intentions/exact",
		Query:      r.query(),
		Body:       desired,
		ExpectJSON: true,
	}); err != nil {
		return nil, err
	}
	return r.Lookup(ctx)
}

func (r *intention) Create(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	return r.write(ctx, desired)
}

func (r *intention) Update(ctx context.Context, _ reconciler.Object, desired body.Body) (reconciler.Object, error) {
	return r.write(ctx, desired)
}

func (r *intention) Delete(ctx context.Context, _ reconciler.Object) error {
	_, err := r.c.Do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   "/v1/connect/intentions/exact",
		Query:  r.query(),
		Ignore: []int{http.StatusNotFound},
	})
	return err
}
