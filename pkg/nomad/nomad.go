package nomad

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/diag"
	"github.com/cuemby/converge/pkg/reconciler"
)

// Resource kinds as they appear in manifests
const (
	KindACLPolicy    = "NomadACLPolicy"
	KindACLToken     = "NomadACLToken"
	KindNamespace    = "NomadNamespace"
	KindACLBootstrap = "NomadACLBootstrap"
	KindCSIVolume    = "NomadCSIVolume"
	KindJob          = "NomadJob"
	KindJobParse     = "NomadJobParse"
	KindScheduler    = "NomadScheduler"
)

// DefaultNamespace is used when a spec leaves the namespace empty
const DefaultNamespace = "default"

func required(kind, field, value string) error {
	if value == "" {
		return fmt.Errorf("%s: %s is required", kind, field)
	}
	return nil
}

func namespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}

// JobParse converts an HCL job specification into its JSON form without
// registering it.
func JobParse(ctx context.Context, c *client.Client, namespace, hcl string) (*reconciler.Result, error) {
	if err := required(KindJobParse, "hcl", hcl); err != nil {
		return nil, err
	}
	ctx = diag.WithCaller(ctx, KindJobParse)

	parsed, err := parseJob(ctx, c, namespaceOrDefault(namespace), hcl)
	if err != nil {
		return nil, err
	}

	result := &reconciler.Result{
		Kind:   KindJobParse,
		Name:   fmt.Sprint(parsed["ID"]),
		Action: reconciler.ActionNone,
	}
	result.SetDiagnostic("parsed", parsed)
	return result, nil
}

func parseJob(ctx context.Context, c *client.Client, namespace, hcl string) (reconciler.Object, error) {
	parsed, err := c.Object(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/v1/jobs/parse",
		Body: map[string]string{
			"JobHCL":    hcl,
			"namespace": namespace,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return parsed, nil
}
