package nomad

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/reconciler"
)

const schedulerPath = "/v1/operator/scheduler/configuration"

// PreemptionConfig selects the schedulers allowed to preempt allocations.
// SystemSchedulerEnabled defaults to true, the rest to false.
type PreemptionConfig struct {
	SystemSchedulerEnabled   *bool `yaml:"systemSchedulerEnabled,omitempty"`
	SysBatchSchedulerEnabled bool  `yaml:"sysBatchSchedulerEnabled,omitempty"`
	BatchSchedulerEnabled    bool  `yaml:"batchSchedulerEnabled,omitempty"`
	ServiceSchedulerEnabled  bool  `yaml:"serviceSchedulerEnabled,omitempty"`
}

// SchedulerConfig is the desired cluster scheduler configuration. Every field
// has a default, so an empty spec resets the cluster to Nomad's defaults.
type SchedulerConfig struct {
	SchedulerAlgorithm            string           `yaml:"schedulerAlgorithm,omitempty"`
	MemoryOversubscriptionEnabled bool             `yaml:"memoryOversubscriptionEnabled,omitempty"`
	RejectJobRegistration         bool             `yaml:"rejectJobRegistration,omitempty"`
	PauseEvalBroker               bool             `yaml:"pauseEvalBroker,omitempty"`
	PreemptionConfig              PreemptionConfig `yaml:"preemptionConfig,omitempty"`
}

func (s SchedulerConfig) body() body.Body {
	algorithm := s.SchedulerAlgorithm
	if algorithm == "" {
		algorithm = "binpack"
	}
	system := true
	if s.PreemptionConfig.SystemSchedulerEnabled != nil {
		system = *s.PreemptionConfig.SystemSchedulerEnabled
	}

	return body.Body{
		"SchedulerAlgorithm":            algorithm,
		"MemoryOversubscriptionEnabled": s.MemoryOversubscriptionEnabled,
		"RejectJobRegistration":         s.RejectJobRegistration,
		"PauseEvalBroker":               s.PauseEvalBroker,
		"PreemptionConfig": body.Body{
			"SystemSchedulerEnabled":   system,
			"SysBatchSchedulerEnabled": s.PreemptionConfig.SysBatchSchedulerEnabled,
			"BatchSchedulerEnabled":    s.PreemptionConfig.BatchSchedulerEnabled,
			"ServiceSchedulerEnabled":  s.PreemptionConfig.ServiceSchedulerEnabled,
		},
	}
}

// ReconcileScheduler applies the scheduler configuration. The configuration
// always exists, so only updates are possible.
func ReconcileScheduler(ctx context.Context, c *client.Client, s SchedulerConfig) (*reconciler.Result, error) {
	switch s.SchedulerAlgorithm {
	case "", "binpack", "spread":
	default:
		return nil, fmt.Errorf("%s: schedulerAlgorithm must be binpack or spread, got %q", KindScheduler, s.SchedulerAlgorithm)
	}

	return reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      KindScheduler,
		Name:      "cluster",
		ResultKey: "scheduler_config",
		State:     reconciler.StatePresent,
		Resource:  &scheduler{c: c},
		Desired:   s.body(),
	})
}

type scheduler struct {
	c *client.Client
}

func (r *scheduler) Lookup(ctx context.Context) (reconciler.Object, error) {
	resp, err := r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   schedulerPath,
	})
	if err != nil {
		return nil, err
	}
	cfg, ok := resp["SchedulerConfig"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("scheduler configuration response has no SchedulerConfig")
	}
	return cfg, nil
}

func (r *scheduler) Create(context.Context, body.Body) (reconciler.Object, error) {
	return nil, fmt.Errorf("scheduler configuration cannot be created")
}

func (r *scheduler) Update(ctx context.Context, _ reconciler.Object, desired body.Body) (reconciler.Object, error) {
	if _, err := r.c.Object(ctx, client.Request{
		Method: http.MethodPut,
		Path:   schedulerPath,
		Body:   desired,
	}); err != nil {
		return nil, err
	}
	return readBack(ctx, r, "scheduler configuration")
}

func (r *scheduler) Delete(context.Context, reconciler.Object) error {
	return fmt.Errorf("scheduler configuration cannot be deleted")
}
