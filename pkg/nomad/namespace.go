package nomad

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/reconciler"
)

// NamespaceCapabilities restricts the task drivers a namespace may use
type NamespaceCapabilities struct {
	EnabledTaskDrivers  []string `yaml:"enabledTaskDrivers,omitempty"`
	DisabledTaskDrivers []string `yaml:"disabledTaskDrivers,omitempty"`
}

// Namespace is the desired state of a Nomad namespace
type Namespace struct {
	Name         string                 `yaml:"name"`
	Description  *string                `yaml:"description,omitempty"`
	Meta         map[string]string      `yaml:"meta,omitempty"`
	Capabilities *NamespaceCapabilities `yaml:"capabilities,omitempty"`
}

func (n Namespace) body() body.Body {
	b := body.Body{
		"Name":        n.Name,
		"Description": body.Opt(n.Description),
		"Meta":        n.Meta,
	}
	if n.Capabilities != nil {
		b["Capabilities"] = body.Body{
			"EnabledTaskDrivers":  n.Capabilities.EnabledTaskDrivers,
			"DisabledTaskDrivers": n.Capabilities.DisabledTaskDrivers,
		}
	}
	return b
}

// ReconcileNamespace drives a namespace to state
func ReconcileNamespace(ctx context.Context, c *client.Client, state reconciler.State, n Namespace) (*reconciler.Result, error) {
	if err := required(KindNamespace, "name", n.Name); err != nil {
		return nil, err
	}
	return reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      KindNamespace,
		Name:      n.Name,
		ResultKey: "namespace",
		State:     state,
		Resource:  &namespace{c: c, name: n.Name},
		Desired:   n.body(),
	})
}

type namespace struct {
	c    *client.Client
	name string
}

func (r *namespace) path() string {
	return "/v1/namespace/" + url.PathEscape(r.name)
}

func (r *namespace) Lookup(ctx context.Context) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   r.path(),
		Ignore: []int{http.StatusNotFound},
	})
}

func (r *namespace) write(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	if _, err := r.c.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   r.path(),
		Body:   desired,
	}); err != nil {
		return nil, err
	}
	return readBack(ctx, r, "namespace "+r.name)
}

func (r *namespace) Create(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	return r.write(ctx, desired)
}

func (r *namespace) Update(ctx context.Context, _ reconciler.Object, desired body.Body) (reconciler.Object, error) {
	return r.write(ctx, desired)
}

func (r *namespace) Delete(ctx context.Context, _ reconciler.Object) error {
	_, err := r.c.Do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   r.path(),
		Ignore: []int{http.StatusNotFound},
	})
	return err
}
