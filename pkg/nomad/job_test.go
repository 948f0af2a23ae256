package nomad

import (
	"context"
	"net/http"
	"testing"

	"github.com/cuemby/converge/pkg/reconciler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webHCL = `job "web" {
  group "web" {
    task "nginx" {
      driver = "docker"
      config { image = "nginx:1.27" }
    }
  }
}`

func parsedWeb(f *fakeNomad) {
	f.handle("POST /v1/jobs/parse", http.StatusOK, `{"ID":"web","Name":"web","Type":"service","TaskGroups":[{"Name":"web"}]}`)
}

func TestJobSubmitWhenPlanHasDiff(t *testing.T) {
	f, c := newFakeNomad(t)
	parsedWeb(f)
	submitted := false
	f.mux.HandleFunc("GET /v1/job/web", func(w http.ResponseWriter, r *http.Request) {
		if !submitted {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"ID":"web","Stop":false,"Version":0}`))
	})
	f.handle("POST /v1/job/web/plan", http.StatusOK, `{"Diff":{"Type":"Added","ID":"web"}}`)
	f.mux.HandleFunc("POST /v1/job/web", func(w http.ResponseWriter, r *http.Request) {
		submitted = true
		_, _ = w.Write([]byte(`{"EvalID":"e-1","JobModifyIndex":10}`))
	})

	result, err := ReconcileJob(context.Background(), c, reconciler.StatePresent, Job{HCL: webHCL})
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, reconciler.ActionCreate, result.Action)
	rec := result.Record()
	assert.Equal(t, map[string]any{"Type": "Added", "ID": "web"}, rec["plan_diff"])
	assert.Equal(t, "e-1", rec["submit_response"].(reconciler.Object)["EvalID"])
	assert.Equal(t, "web", rec["job"].(reconciler.Object)["ID"])

	plan := f.bodies["POST /v1/job/web/plan"]
	assert.Equal(t, true, plan["Diff"])
	assert.Equal(t, "web", plan["Job"].(map[string]any)["ID"])

	submit := f.bodies["POST /v1/job/web"]
	assert.Equal(t, map[string]any{"Format": "hcl2", "Source": webHCL}, submit["Submission"])
	assert.Equal(t, webHCL, f.bodies["POST /v1/jobs/parse"]["JobHCL"])
	assert.Equal(t, "namespace=default", f.query["GET /v1/job/web"])
}

func TestJobNoDiffIsNoop(t *testing.T) {
	f, c := newFakeNomad(t)
	parsedWeb(f)
	f.handle("GET /v1/job/web", http.StatusOK, `{"ID":"web","Stop":false}`)
	f.handle("POST /v1/job/web/plan", http.StatusOK, `{"Diff":{"Type":"None"}}`)

	result, err := ReconcileJob(context.Background(), c, reconciler.StatePresent, Job{HCL: webHCL})
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, 0, f.count("POST /v1/job/web"))
	assert.NotContains(t, result.Record(), "submit_response")
	assert.Equal(t, map[string]any{"Type": "None"}, result.Record()["plan_diff"])
}

func TestJobAbsent(t *testing.T) {
	tests := []struct {
		name       string
		state      reconciler.State
		job        string
		wantDelete bool
		wantQuery  string
	}{
		{"running job is stopped", reconciler.StateAbsent, `{"ID":"web","Stop":false}`, true, "namespace=default&purge=false"},
		{"stopped job is left alone", reconciler.StateAbsent, `{"ID":"web","Stop":true}`, false, ""},
		{"stopped job is purged", StatePurged, `{"ID":"web","Stop":true}`, true, "namespace=default&purge=true"},
		{"running job is purged", StatePurged, `{"ID":"web","Stop":false}`, true, "namespace=default&purge=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := newFakeNomad(t)
			f.handle("GET /v1/job/web", http.StatusOK, tt.job)
			f.handle("DELETE /v1/job/web", http.StatusOK, `{"EvalID":"e-2"}`)

			result, err := ReconcileJob(context.Background(), c, tt.state, Job{Name: "web"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantDelete, result.Changed)
			assert.Equal(t, tt.wantDelete, f.count("DELETE /v1/job/web") == 1)
			if tt.wantDelete {
				assert.Equal(t, tt.wantQuery, f.query["DELETE /v1/job/web"])
			}
			assert.Equal(t, 0, f.count("POST /v1/jobs/parse"))
		})
	}
}

func TestJobAbsentMissing(t *testing.T) {
	f, c := newFakeNomad(t)
	f.handle("GET /v1/job/web", http.StatusNotFound, "job not found")

	result, err := ReconcileJob(context.Background(), c, StatePurged, Job{Name: "web"})
	require.NoError(t, err)
	assert.False(t, result.Changed)
}

func TestJobValidation(t *testing.T) {
	_, c := newFakeNomad(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		state reconciler.State
		job   Job
		want  string
	}{
		{"both", reconciler.StatePresent, Job{Name: "web", HCL: webHCL}, "mutually exclusive"},
		{"neither", reconciler.StateAbsent, Job{}, "one of name or hcl"},
		{"present by name", reconciler.StatePresent, Job{Name: "web"}, "hcl is required"},
		{"bad state", "stopped", Job{Name: "web"}, "invalid state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReconcileJob(ctx, c, tt.state, tt.job)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestJobParse(t *testing.T) {
	f, c := newFakeNomad(t)
	parsedWeb(f)

	result, err := JobParse(context.Background(), c, "", webHCL)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, "web", result.Record()["parsed"].(reconciler.Object)["ID"])
	assert.Equal(t, "default", f.bodies["POST /v1/jobs/parse"]["namespace"])
}
