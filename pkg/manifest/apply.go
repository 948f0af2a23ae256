package manifest

import (
	"context"
	"fmt"

	"github.com/cuemby/converge/pkg/consul"
	"github.com/cuemby/converge/pkg/nomad"
	"github.com/cuemby/converge/pkg/reconciler"
)

// Apply reconciles one document against its system. Errors carry the
// document index and kind.
func Apply(ctx context.Context, d Document, connector Connector) (*reconciler.Result, error) {
	result, err := apply(ctx, d, connector)
	if err != nil {
		return nil, fmt.Errorf("document %d (%s): %w", d.Index, d.Kind, err)
	}
	return result, nil
}

func apply(ctx context.Context, d Document, connector Connector) (*reconciler.Result, error) {
	sys, err := d.System()
	if err != nil {
		return nil, err
	}
	state, err := d.state()
	if err != nil {
		return nil, err
	}
	c, err := connector.Connect(sys, d.Connection)
	if err != nil {
		return nil, err
	}

	switch d.Kind {
	case consul.KindACLPolicy:
		var spec consul.ACLPolicy
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return consul.ReconcileACLPolicy(ctx, c, state, spec)

	case consul.KindACLToken:
		var spec consul.ACLToken
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return consul.ReconcileACLToken(ctx, c, state, spec)

	case consul.KindIntention:
		var spec consul.Intention
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return consul.ReconcileIntention(ctx, c, state, spec)

	case consul.KindACLBootstrap:
		return consul.Bootstrap(ctx, c)

	case consul.KindGetToken:
		var spec struct {
			AccessorID string `yaml:"accessorID"`
		}
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return consul.GetToken(ctx, c, spec.AccessorID)

	case consul.KindServiceDetail:
		var spec struct {
			Name string `yaml:"name"`
		}
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return consul.ServiceDetail(ctx, c, spec.Name)

	case nomad.KindACLPolicy:
		var spec nomad.ACLPolicy
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return nomad.ReconcileACLPolicy(ctx, c, state, spec)

	case nomad.KindACLToken:
		var spec nomad.ACLToken
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return nomad.ReconcileACLToken(ctx, c, state, spec)

	case nomad.KindNamespace:
		var spec nomad.Namespace
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return nomad.ReconcileNamespace(ctx, c, state, spec)

	case nomad.KindACLBootstrap:
		return nomad.Bootstrap(ctx, c)

	case nomad.KindCSIVolume:
		var spec nomad.CSIVolume
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return nomad.ReconcileCSIVolume(ctx, c, state, spec)

	case nomad.KindJob:
		var spec nomad.Job
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return nomad.ReconcileJob(ctx, c, state, spec)

	case nomad.KindJobParse:
		var spec struct {
			Namespace string `yaml:"namespace"`
			HCL       string `yaml:"hcl"`
		}
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return nomad.JobParse(ctx, c, spec.Namespace, spec.HCL)

	case nomad.KindScheduler:
		var spec nomad.SchedulerConfig
		if err := d.DecodeSpec(&spec); err != nil {
			return nil, err
		}
		return nomad.ReconcileScheduler(ctx, c, spec)
	}

	return nil, fmt.Errorf("unsupported resource kind: %q", d.Kind)
}

// state validates the document's state for its kind
func (d Document) state() (reconciler.State, error) {
	switch d.Kind {
	case nomad.KindJob:
		if reconciler.State(d.State) == nomad.StatePurged {
			return nomad.StatePurged, nil
		}
	case consul.KindACLBootstrap, consul.KindGetToken, consul.KindServiceDetail,
		nomad.KindACLBootstrap, nomad.KindJobParse, nomad.KindScheduler:
		if d.State != "" && reconciler.State(d.State) != reconciler.StatePresent {
			return "", fmt.Errorf("state %q is not supported", d.State)
		}
	}

	return reconciler.ParseState(d.State)
}
