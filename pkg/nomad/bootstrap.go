package nomad

import (
	"context"
	"net/http"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/reconciler"
)

// Bootstrap bootstraps the Nomad ACL system with the client's management
// token as the bootstrap secret. On an already bootstrapped cluster it only
// verifies that the token has the management type.
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

func (r *bootstrap) Lookup(ctx context.Context) (reconciler.Object, error) {
	self, err := r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/acl/token/self",
		Ignore: []int{http.StatusNotFound},
	})
	if err != nil || self == nil {
		return nil, err
	}
	if self["Type"] != TokenTypeManagement {
		return nil, &reconciler.PolicyError{Kind: KindACLBootstrap, Reason: "token provided is not of management type"}
	}
	return self, nil
}

func (r *bootstrap) Create(ctx context.Context, _ body.Body) (reconciler.Object, error) {
	token, err := r.c.Object(ctx, client.Request{
		Method: http.MethodPost,
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
