package nomad

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/reconciler"
)

// JobACL scopes a policy to workload identities
type JobACL struct {
	Namespace string `yaml:"namespace,omitempty"`
	JobID     string `yaml:"jobID,omitempty"`
	Group     string `yaml:"group,omitempty"`
	Task      string `yaml:"task,omitempty"`
}

// ACLPolicy is the desired state of a Nomad ACL policy
type ACLPolicy struct {
	Name        string  `yaml:"name"`
	Description *string `yaml:"description,omitempty"`
	Rules       string  `yaml:"rules,omitempty"`
	JobACL      *JobACL `yaml:"jobACL,omitempty"`
}

func (p ACLPolicy) body() body.Body {
	b := body.Body{
		"Name":        p.Name,
		"Description": body.Opt(p.Description),
		"Rules":       body.NonZero(p.Rules),
	}
	if p.JobACL != nil {
		b["JobACL"] = body.Body{
			"Namespace": p.JobACL.Namespace,
			"JobID":     p.JobACL.JobID,
			"Group":     p.JobACL.Group,
			"Task":      p.JobACL.Task,
		}
	}
	return b
}

// ReconcileACLPolicy drives a policy to state
func ReconcileACLPolicy(ctx context.Context, c *client.Client, state reconciler.State, p ACLPolicy) (*reconciler.Result, error) {
	if err := required(KindACLPolicy, "name", p.Name); err != nil {
		return nil, err
	}
	if state == reconciler.StatePresent {
		if err := required(KindACLPolicy, "rules", p.Rules); err != nil {
			return nil, err
		}
	}

	return reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      KindACLPolicy,
		Name:      p.Name,
		ResultKey: "policy",
		State:     state,
		Resource:  &aclPolicy{c: c, name: p.Name},
		Desired:   p.body(),
	})
}

type aclPolicy struct {
	c    *client.Client
	name string
}

func (r *aclPolicy) path() string {
	return "/v1/acl/policy/" + url.PathEscape(r.name)
}

func (r *aclPolicy) Lookup(ctx context.Context) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   r.path(),
		Ignore: []int{http.StatusNotFound},
	})
}

func (r *aclPolicy) write(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	if _, err := r.c.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   r.path(),
		Body:   desired,
	}); err != nil {
		return nil, err
	}
	return readBack(ctx, r, "policy "+r.name)
}

func (r *aclPolicy) Create(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	return r.write(ctx, desired)
}

func (r *aclPolicy) Update(ctx context.Context, _ reconciler.Object, desired body.Body) (reconciler.Object, error) {
	return r.write(ctx, desired)
}

func (r *aclPolicy) Delete(ctx context.Context, _ reconciler.Object) error {
	_, err := r.c.Do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   r.path(),
		Ignore: []int{http.StatusNotFound},
	})
	return err
}

type lookuper interface {
	Lookup(ctx context.Context) (reconciler.Object, error)
}

// readBack looks the object up again after a write that returned no body
func readBack(ctx context.Context, r lookuper, what string) (reconciler.Object, error) {
	obj, err := r.Lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read back %s: %w", what, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%s not found after write", what)
	}
	return obj, nil
}
