package nomad

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/diag"
	"github.com/cuemby/converge/pkg/reconciler"
)

// StatePurged removes a job and its history. Only jobs accept it.
const StatePurged reconciler.State = "purged"

// Job is the desired state of a Nomad job. Exactly one of Name and HCL is
// set; HCL is required to make a job present.
type Job struct {
	Name      string `yaml:"name,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
	HCL       string `yaml:"hcl,omitempty"`
}

func (j Job) validate(state reconciler.State) error {
	switch state {
	case reconciler.StatePresent, reconciler.StateAbsent, StatePurged:
	default:
		return fmt.Errorf("%s: invalid state %q: must be present, absent or purged", KindJob, state)
	}
	if j.Name != "" && j.HCL != "" {
		return fmt.Errorf("%s: name and hcl are mutually exclusive", KindJob)
	}
	if j.Name == "" && j.HCL == "" {
		return fmt.Errorf("%s: one of name or hcl is required", KindJob)
	}
	if state == reconciler.StatePresent && j.HCL == "" {
		return fmt.Errorf("%s: hcl is required when state is present", KindJob)
	}
	return nil
}

// ReconcileJob drives a job to state. A present job is planned first and only
// submitted when Nomad reports a diff.
func ReconcileJob(ctx context.Context, c *client.Client, state reconciler.State, j Job) (*reconciler.Result, error) {
	if err := j.validate(state); err != nil {
		return nil, err
	}

	r := &job{
		c:         c,
		id:        j.Name,
		namespace: namespaceOrDefault(j.Namespace),
		hcl:       j.HCL,
		purge:     state == StatePurged,
		stopOnly:  state == reconciler.StateAbsent,
	}
	if j.HCL != "" {
		parsed, err := parseJob(diag.WithCaller(ctx, KindJob), c, r.namespace, j.HCL)
		if err != nil {
			return nil, err
		}
		if r.id, err = reconciler.StringField(parsed, "ID"); err != nil {
			return nil, fmt.Errorf("parsed job: %w", err)
		}
		r.parsed = parsed
	}

	reconcileState := state
	if state == StatePurged {
		reconcileState = reconciler.StateAbsent
	}

	result, err := reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      KindJob,
		Name:      r.id,
		ResultKey: "job",
		State:     reconcileState,
		Resource:  r,
		Desired:   body.Body{"Job": r.parsed},
	})
	if err != nil {
		return nil, err
	}
	if r.submitResponse != nil {
		result.SetDiagnostic("submit_response", r.submitResponse)
	}
	return result, nil
}

type job struct {
	c         *client.Client
	id        string
	namespace string
	hcl       string
	parsed    reconciler.Object
	purge     bool
	stopOnly  bool

	submitResponse reconciler.Object
}

func (r *job) path(suffix string) string {
	return "/v1/job/" + url.PathEscape(r.id) + suffix
}

func (r *job) query() url.Values {
	return url.Values{"namespace": []string{r.namespace}}
}

// Lookup treats a stopped job as gone when the job is only to be stopped, so
// that stopping an already stopped job is a no-op.
func (r *job) Lookup(ctx context.Context) (reconciler.Object, error) {
	existing, err := r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   r.path(""),
		Query:  r.query(),
		Ignore: []int{http.StatusNotFound},
	})
	if err != nil || existing == nil {
		return existing, err
	}
	if r.stopOnly {
		if stopped, _ := existing["Stop"].(bool); stopped {
			return nil, nil
		}
	}
	return existing, nil
}

func (r *job) Plan(ctx context.Context, _ body.Body) (reconciler.Object, bool, error) {
	plan, err := r.c.Object(ctx, client.Request{
		Method: http.MethodPost,
		Path:   r.path("/plan"),
		Query:  r.query(),
		Body: map[string]any{
			"Job":  r.parsed,
			"Diff": true,
		},
	})
	if err != nil {
		return nil, false, err
	}
	diff, _ := plan["Diff"].(map[string]any)
	return diff, diff != nil && diff["Type"] != "None", nil
}

func (r *job) submit(ctx context.Context) (reconciler.Object, error) {
	resp, err := r.c.Object(ctx, client.Request{
		Method: http.MethodPost,
		Path:   r.path(""),
		Query:  r.query(),
		Body: map[string]any{
			"Job": r.parsed,
			"Submission": map[string]string{
				"Format": "hcl2",
				"Source": r.hcl,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	r.submitResponse = resp
	return readBack(ctx, r, "job "+r.id)
}

func (r *job) Create(ctx context.Context, _ body.Body) (reconciler.Object, error) {
	return r.submit(ctx)
}

func (r *job) Update(ctx context.Context, _ reconciler.Object, _ body.Body) (reconciler.Object, error) {
	return r.submit(ctx)
}

func (r *job) Delete(ctx context.Context, _ reconciler.Object) error {
	q := r.query()
	q.Set("purge", strconv.FormatBool(r.purge))
	_, err := r.c.Do(ctx, client.Request{
		Method:     http.MethodDelete,
		Path:       r.path(""),
		Query:      q,
		ExpectJSON: true,
	})
	return err
}
