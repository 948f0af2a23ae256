package consul

import (
	"context"
	"net/http"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/reconciler"
)

// Bootstrap bootstraps the Consul ACL system with the client's management
// token as the bootstrap secret. On an already bootstrapped cluster it only
// verifies that the token is a management token.
func Bootstrap(ctx context.Context, c *client.Client) (*reconciler.Result, error) {
	return reconciler.Reconcile(ctx, reconciler.Request{
		Kind:     KindACLBootstrap,
		Name:     "acl",
		State:    reconciler.StatePresent,
		Resource: &bootstrap{c: c},
		Desired:  body.Body{},
	})
}

type bootstrap struct {
	c *client.Client
}

// Lookup reads the management token. Consul answers 403 until ACLs are
// bootstrapped.
func (r *bootstrap) Lookup(ctx context.Context) (reconciler.Object, error) {
	self, err := r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/acl/token/self",
		Ignore: []int{http.StatusForbidden},
	})
	if err != nil || self == nil {
		return nil, err
	}

	policies, _ := self["Policies"].([]any)
	for _, p := range policies {
		if policy, ok := p.(map[string]any); ok && policy["Name"] == GlobalManagementPolicy {
			return self, nil
		}
	}
	return nil, &reconciler.PolicyError{Kind: KindACLBootstrap, Reason: "token provided is not of management type"}
}

func (r *bootstrap) Create(ctx context.Context, _ body.Body) (reconciler.Object, error) {
	token, err := r.c.Object(ctx, client.Request{
		Method: http.MethodPut,
		Path:   "/v1/acl/bootstrap",
		Body:   map[string]string{"BootstrapSecret": r.c.Token()},
	})
	if err != nil {
		return nil, err
	}
	if secret, _ := token["SecretID"].(string); secret != r.c.Token() {
		return nil, &reconciler.PolicyError{Kind: KindACLBootstrap, Reason: "bootstrap token does not match the management token"}
	}
	return token, nil
}

func (r *bootstrap) Update(context.Context, reconciler.Object, body.Body) (reconciler.Object, error) {
	return nil, &reconciler.PolicyError{Kind: KindACLBootstrap, Reason: "bootstrap cannot be updated"}
}

func (r *bootstrap) Delete(context.Context, reconciler.Object) error {
	return &reconciler.PolicyError{Kind: KindACLBootstrap, Reason: "bootstrap cannot be undone"}
}
