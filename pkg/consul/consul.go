// Package consul reconciles Consul ACL and service mesh resources through the
// Consul HTTP API.
//
// Every resource follows the same shape: a spec type decoded from a manifest,
// a body built from it with unset fields left nil, and a reconciler.Resource
// that knows the endpoints. Read-only lookups return a reconciler.Result with
// Changed always false.
package consul

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/diag"
	"github.com/cuemby/converge/pkg/reconciler"
)

// Resource kinds as they appear in manifests
const (
	KindACLPolicy     = "ConsulACLPolicy"
	KindACLToken      = "ConsulACLToken"
	KindIntention     = "ConsulIntention"
	KindACLBootstrap  = "ConsulACLBootstrap"
	KindGetToken      = "ConsulGetToken"
	KindServiceDetail = "ConsulServiceDetail"
)

// GlobalManagementPolicy is the builtin policy every management token carries
const GlobalManagementPolicy = "global-management"

// Link references an ACL policy or role by ID or name
type Link struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name,omitempty"`
}

func links(in []Link) []any {
	if in == nil {
		return nil
	}
	out := make([]any, 0, len(in))
	for _, l := range in {
		out = append(out, body.Strip(body.Body{
			"ID":   body.NonZero(l.ID),
			"Name": body.NonZero(l.Name),
		}))
	}
	return out
}

func required(kind, field, value string) error {
	if value == "" {
		return fmt.Errorf("%s: %s is required", kind, field)
	}
	return nil
}

// GetToken reads an ACL token by accessor ID. A missing token yields a nil
// object, not an error.
func GetToken(ctx context.Context, c *client.Client, accessorID string) (*reconciler.Result, error) {
	if err := required(KindGetToken, "accessorID", accessorID); err != nil {
		return nil, err
	}
	ctx = diag.WithCaller(ctx, KindGetToken+"/"+accessorID)

	token, err := c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/acl/token/" + url.PathEscape(accessorID),
		Ignore: []int{http.StatusForbidden},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read token %s: %w", accessorID, err)
	}

	return &reconciler.Result{
		Kind:      KindGetToken,
		Name:      accessorID,
		ResultKey: "token",
		Action:    reconciler.ActionNone,
		Object:    token,
	}, nil
}

// ServiceDetail lists the catalog instances of a service. A service with no
// instances is an error.
func ServiceDetail(ctx context.Context, c *client.Client, name string) (*reconciler.Result, error) {
	if err := required(KindServiceDetail, "name", name); err != nil {
		return nil, err
	}
	ctx = diag.WithCaller(ctx, KindServiceDetail+"/"+name)

	instances, err := c.List(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/v1/catalog/service/" + url.PathEscape(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read service %s: %w", name, err)
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("could not find consul service named %s", name)
	}

	result := &reconciler.Result{
		Kind:   KindServiceDetail,
		Name:   name,
		Action: reconciler.ActionNone,
	}
	result.SetDiagnostic("instances", instances)
	return result, nil
}
