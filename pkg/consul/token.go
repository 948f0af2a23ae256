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

// ServiceIdentity grants a token the permissions of a service
type ServiceIdentity struct {
	ServiceName string   `yaml:"serviceName"`
	Datacenters []string `yaml:"datacenters,omitempty"`
}

// ACLToken is the desired state of a Consul ACL token.
//
// Consul tokens have no unique name, so an existing token can only be found
// through AccessorID. Without one every present reconciliation creates a new
// token.
type ACLToken struct {
	AccessorID        string            `yaml:"accessorID,omitempty"`
	SecretID          string            `yaml:"secretID,omitempty"`
	Description       *string           `yaml:"description,omitempty"`
	Policies          []Link            `yaml:"policies,omitempty"`
	Roles             []Link            `yaml:"roles,omitempty"`
	ServiceIdentities []ServiceIdentity `yaml:"serviceIdentities,omitempty"`
	Local             bool              `yaml:"local,omitempty"`
	// ExpirationTTL is sent on create but never compared; Consul reports an
	// absolute ExpirationTime instead.
	ExpirationTTL string `yaml:"expirationTTL,omitempty"`
}

func (t ACLToken) body() body.Body {
	var identities []any
	for _, si := range t.ServiceIdentities {
		var dcs any
		if si.Datacenters != nil {
			dcs = si.Datacenters
		}
		identities = append(identities, body.Strip(body.Body{
			"ServiceName": si.ServiceName,
			"Datacenters": dcs,
		}))
	}

	return body.Body{
		"AccessorID":        body.NonZero(t.AccessorID),
		"SecretID":          body.NonZero(t.SecretID),
		"Description":       body.Opt(t.Description),
		"Policies":          links(t.Policies),
		"Roles":             links(t.Roles),
		"ServiceIdentities": identities,
		"Local":             t.Local,
		"ExpirationTTL":     body.NonZero(t.ExpirationTTL),
	}
}

func (t ACLToken) name() string {
	if t.AccessorID != "" {
		return t.AccessorID
	}
	if t.Description != nil && *t.Description != "" {
		return *t.Description
	}
	return "new"
}

// ReconcileACLToken drives a token to state
func ReconcileACLToken(ctx context.Context, c *client.Client, state reconciler.State, t ACLToken) (*reconciler.Result, error) {
	for _, si := range t.ServiceIdentities {
		if err := required(KindACLToken, "serviceIdentities.serviceName", si.ServiceName); err != nil {
			return nil, err
		}
	}
	return reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      KindACLToken,
		Name:      t.name(),
		ResultKey: "token",
		State:     state,
		Resource:  &aclToken{c: c, accessorID: t.AccessorID},
		Desired:   t.body(),
		Exclude:   []string{"ExpirationTTL"},
	})
}

type aclToken struct {
	c          *client.Client
	accessorID string
}

func (r *aclToken) Lookup(ctx context.Context) (reconciler.Object, error) {
	if r.accessorID == "" {
		return nil, nil
	}
	// Consul answers 403 "ACL not found" for a missing token.
	return r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/acl/token/" + url.PathEscape(r.accessorID),
		Ignore: []int{http.StatusForbidden},
	})
}

func (r *aclToken) Create(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodPut,
		Path:   "/v1/acl/token",
		Body:   desired,
	})
}

func (r *aclToken) Update(ctx context.Context, existing reconciler.Object, desired body.Body) (reconciler.Object, error) {
	id, err := reconciler.StringField(existing, "AccessorID")
	if err != nil {
		return nil, fmt.Errorf("existing token: %w", err)
	}
	return r.c.Object(ctx, client.Request{
		Method: http.MethodPut,
		Path:   "/v1/acl/token/" + url.PathEscape(id),
		Body:   desired,
	})
}

func (r *aclToken) Delete(ctx context.Context, existing reconciler.Object) error {
	id, err := reconciler.StringField(existing, "AccessorID")
	if err != nil {
		return fmt.Errorf("existing token: %w", err)
	}
	_, err = r.c.Do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   "/v1/acl/token/" + url.PathEscape(id),
		Ignore: []int{http.StatusNotFound},
	})
	return err
}
