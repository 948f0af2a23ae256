package reconciler

import (
	"context"
	"fmt"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/diag"
	"github.com/cuemby/converge/pkg/log"
	"github.com/cuemby/converge/pkg/metrics"
	"github.com/cuemby/converge/pkg/subset"
)

// Object is a remote object as decoded from the managed API
type Object = map[string]any

// Resource is the per-type half of a reconciliation: how to find, create,
// update and delete one object.
type Resource interface {
	// Lookup returns the existing object, or nil when it does not exist
	Lookup(ctx context.Context) (Object, error)
	Create(ctx context.Context, desired body.Body) (Object, error)
	// Update replaces the object with desired. existing is the object Lookup
	// returned, for resources that address updates by a server-side ID.
	Update(ctx context.Context, existing Object, desired body.Body) (Object, error)
	Delete(ctx context.Context, existing Object) error
}

// Planner is implemented by resources whose server computes the diff. When a
// Resource is also a Planner, the plan decides whether to write and the
// subset comparison is skipped.
type Planner interface {
	Plan(ctx context.Context, desired body.Body) (diff Object, changed bool, err error)
}

// Request is everything needed to reconcile one resource
type Request struct {
	Kind string
	Name string
	// ResultKey names the object in the rendered result record
	ResultKey string
	State     State
	Resource  Resource
	Desired   body.Body
	// Exclude lists top-level fields that are sent but never compared
	Exclude []string
	// Immutable resources are never updated; drift is flagged instead
	Immutable bool
}

// Reconcile drives one resource to its desired state.
//
//	existing  desired   action
//	absent    absent    none
//	absent    present   create
//	present   absent    delete
//	present   present   none when desired ⊆ existing, else update
//	                    (mismatch flag instead of update when Immutable)
func Reconcile(ctx context.Context, req Request) (*Result, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, req.Kind)

	logger := log.WithResource(req.Kind, req.Name)
	ctx = diag.WithCaller(ctx, req.Kind+"/"+req.Name)

	result, err := reconcile(ctx, req)
	if err != nil {
		metrics.ReconcileErrorsTotal.WithLabelValues(req.Kind).Inc()
		return nil, fmt.Errorf("failed to reconcile %s %q: %w", req.Kind, req.Name, err)
	}

	metrics.ReconcileTotal.WithLabelValues(req.Kind, string(result.Action)).Inc()
	logger.Info().
		Str("state", string(req.State)).
		Str("action", string(result.Action)).
		Bool("changed", result.Changed).
		Dur("took", timer.Duration()).
		Msg("reconciled")

	return result, nil
}

func reconcile(ctx context.Context, req Request) (*Result, error) {
	if req.Resource == nil {
		return nil, fmt.Errorf("no resource handler for kind %s", req.Kind)
	}

	result := &Result{
		Kind:      req.Kind,
		Name:      req.Name,
		ResultKey: req.ResultKey,
		Action:    ActionNone,
	}
	desired := body.Strip(req.Desired)

	existing, err := req.Resource.Lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing object: %w", err)
	}

	switch req.State {
	case StateAbsent:
		if existing == nil {
			return result, nil
		}
		if err := req.Resource.Delete(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to delete: %w", err)
		}
		result.Action = ActionDelete
		result.Changed = true
		return result, nil

	case StatePresent:
		if planner, ok := req.Resource.(Planner); ok {
			return planAndWrite(ctx, req, planner, existing, desired, result)
		}

		if existing == nil {
			obj, err := req.Resource.Create(ctx, desired)
			if err != nil {
				return nil, fmt.Errorf("failed to create: %w", err)
			}
			result.Action = ActionCreate
			result.Changed = true
			result.Object = obj
			return result, nil
		}

		compared := body.Without(desired, req.Exclude...)
		if subset.Match(compared, existing) {
			result.Object = existing
			return result, nil
		}
		result.setDiagnostic("diff", subset.Diff(compared, existing))

		if req.Immutable {
			result.Action = ActionMismatch
			result.Mismatched = true
			result.Object = existing
			return result, nil
		}

		obj, err := req.Resource.Update(ctx, existing, desired)
		if err != nil {
			return nil, fmt.Errorf("failed to update: %w", err)
		}
		result.Action = ActionUpdate
		result.Changed = true
		result.Object = obj
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported state %q", req.State)
	}
}

func planAndWrite(ctx context.Context, req Request, planner Planner, existing Object, desired body.Body, result *Result) (*Result, error) {
	diff, changed, err := planner.Plan(ctx, desired)
	if err != nil {
		return nil, fmt.Errorf("failed to plan: %w", err)
	}
	result.setDiagnostic("plan_diff", diff)

	if !changed {
		result.Object = existing
		return result, nil
	}

	var obj Object
	if existing == nil {
		obj, err = req.Resource.Create(ctx, desired)
		result.Action = ActionCreate
	} else {
		obj, err = req.Resource.Update(ctx, existing, desired)
		result.Action = ActionUpdate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to submit: %w", err)
	}
	result.Changed = true
	result.Object = obj
	return result, nil
}
