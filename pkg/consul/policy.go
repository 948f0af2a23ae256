package consul

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/reconciler"
)

// ACLPolicy is the desired state of a Consul ACL policy.
//
// Policy IDs are generated by Consul and names are unique, so a policy is
// found by ID when one is given and by name otherwise. Giving both renames
// the policy with that ID.
type ACLPolicy struct {
	ID          string   `yaml:"id,omitempty"`
	Name        string   `yaml:"name"`
	Description *string  `yaml:"description,omitempty"`
	Rules       string   `yaml:"rules"`
	Datacenters []string `yaml:"datacenters,omitempty"`
}

// Validate checks the fields Consul requires
func (p ACLPolicy) Validate() error {
	if err := required(KindACLPolicy, "name", p.Name); err != nil {
		return err
	}
	return required(KindACLPolicy, "rules", p.Rules)
}

func (p ACLPolicy) body() body.Body {
	return body.Body{
		"Name":        p.Name,
		"Description": body.Opt(p.Description),
		"Rules":       p.Rules,
		"Datacenters": p.Datacenters,
	}
}

// ReconcileACLPolicy drives a policy to state
func ReconcileACLPolicy(ctx context.Context, c *client.Client, state reconciler.State, p ACLPolicy) (*reconciler.Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      KindACLPolicy,
		Name:      p.Name,
		ResultKey: "policy",
		State:     state,
		Resource:  &aclPolicy{c: c, spec: p, state: state},
		Desired:   p.body(),
	})
}

type aclPolicy struct {
	c     *client.Client
	spec  ACLPolicy
	state reconciler.State
}

func (r *aclPolicy) Lookup(ctx context.Context) (reconciler.Object, error) {
	if r.spec.ID != "" {
		existing, err := r.byID(ctx, r.spec.ID)
		// A stale ID must not keep a policy with the same name alive.
		if err != nil || existing != nil || r.state != reconciler.StateAbsent {
			return existing, err
		}
	}
	return r.byName(ctx, r.spec.Name)
}

func (r *aclPolicy) byID(ctx context.Context, id string) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/acl/policy/" + url.PathEscape(id),
		Ignore: []int{http.StatusNotFound},
	})
}

func (r *aclPolicy) byName(ctx context.Context, name string) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/acl/policy/name/" + url.PathEscape(name),
		Ignore: []int{http.StatusNotFound},
	})
}

func (r *aclPolicy) Create(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodPut,
		Path:   "/v1/acl/policy",
		Body:   desired,
	})
}

func (r *aclPolicy) Update(ctx context.Context, existing reconciler.Object, desired body.Body) (reconciler.Object, error) {
	id, err := reconciler.StringField(existing, "ID")
	if err != nil {
		return nil, fmt.Errorf("existing policy: %w", err)
	}
	return r.c.Object(ctx, client.Request{
		Method: http.MethodPut,
		Path:   "/v1/acl/policy/" + url.PathEscape(id),
		Body:   desired,
	})
}

func (r *aclPolicy) Delete(ctx context.Context, existing reconciler.Object) error {
	id, err := reconciler.StringField(existing, "ID")
	if err != nil {
		return fmt.Errorf("existing policy: %w", err)
	}
	_, err = r.c.Do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   "/v1/acl/policy/" + url.PathEscape(id),
		Ignore: []int{http.StatusNotFound},
	})
	return err
}
