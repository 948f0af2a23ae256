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

// Token types
const (
	TokenTypeClient     = "client"
	TokenTypeManagement = "management"
)

// ACLToken is the desired state of a Nomad ACL token.
//
// An existing token is found by AccessorID when given. Otherwise, unless
// MatchOnName is false, the first token with the same Name is used.
type ACLToken struct {
	AccessorID    string   `yaml:"accessorID,omitempty"`
	Name          string   `yaml:"name,omitempty"`
	Type          string   `yaml:"type,omitempty"`
	Policies      []string `yaml:"policies,omitempty"`
	Global        bool     `yaml:"global,omitempty"`
	ExpirationTTL string   `yaml:"expirationTTL,omitempty"`
	MatchOnName   *bool    `yaml:"matchOnName,omitempty"`
}

func (t ACLToken) tokenType() string {
	if t.Type == "" {
		return TokenTypeClient
	}
	return t.Type
}

func (t ACLToken) matchOnName() bool {
	return t.MatchOnName == nil || *t.MatchOnName
}

func (t ACLToken) body() body.Body {
	return body.Body{
		"AccessorID":    body.NonZero(t.AccessorID),
		"Name":          body.NonZero(t.Name),
		"Type":          t.tokenType(),
		"Policies":      t.Policies,
		"Global":        t.Global,
		"ExpirationTTL": body.NonZero(t.ExpirationTTL),
	}
}

func (t ACLToken) validate(state reconciler.State) error {
	switch t.tokenType() {
	case TokenTypeClient, TokenTypeManagement:
	default:
		return fmt.Errorf("%s: type must be client or management, got %q", KindACLToken, t.Type)
	}
	if t.AccessorID == "" && t.Name == "" {
		return fmt.Errorf("%s: one of accessorID or name is required", KindACLToken)
	}
	if state == reconciler.StatePresent && t.tokenType() == TokenTypeClient && len(t.Policies) == 0 {
		return fmt.Errorf("%s: client tokens need at least one policy", KindACLToken)
	}
	return nil
}

// ReconcileACLToken drives a token to state
func ReconcileACLToken(ctx context.Context, c *client.Client, state reconciler.State, t ACLToken) (*reconciler.Result, error) {
	if err := t.validate(state); err != nil {
		return nil, err
	}

	name := t.Name
	if t.AccessorID != "" {
		name = t.AccessorID
	}
	return reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      KindACLToken,
		Name:      name,
		ResultKey: "token",
		State:     state,
		Resource:  &aclToken{c: c, spec: t},
		Desired:   t.body(),
		Exclude:   []string{"ExpirationTTL"},
	})
}

type aclToken struct {
	c    *client.Client
	spec ACLToken
}

func (r *aclToken) get(ctx context.Context, accessorID string) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/acl/token/" + url.PathEscape(accessorID),
		Ignore: []int{http.StatusNotFound},
	})
}

func (r *aclToken) Lookup(ctx context.Context) (reconciler.Object, error) {
	if r.spec.AccessorID != "" {
		return r.get(ctx, r.spec.AccessorID)
	}
	if !r.spec.matchOnName() || r.spec.Name == "" {
		return nil, nil
	}

	// The list endpoint returns stubs without policies.
	stubs, err := r.c.List(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/acl/tokens",
	})
	if err != nil {
		return nil, err
	}
	for _, s := range stubs {
		stub, ok := s.(map[string]any)
		if !ok || stub["Name"] != r.spec.Name {
			continue
		}
		id, err := reconciler.StringField(stub, "AccessorID")
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", r.spec.Name, err)
		}
		return r.get(ctx, id)
	}
	return nil, nil
}

func (r *aclToken) Create(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/v1/acl/token",
		Body:   desired,
	})
}

func (r *aclToken) Update(ctx context.Context, existing reconciler.Object, desired body.Body) (reconciler.Object, error) {
	id, err := reconciler.StringField(existing, "AccessorID")
	if err != nil {
		return nil, fmt.Errorf("existing token: %w", err)
	}
	update := body.Without(desired)
	update["AccessorID"] = id

	return r.c.Object(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/v1/acl/token/" + url.PathEscape(id),
		Body:   update,
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
