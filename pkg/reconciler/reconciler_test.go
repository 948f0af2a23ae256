package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/cuemby/converge/pkg/body"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	existing Object
	err      error

	creates, updates, deletes int
	sent                      body.Body
}

func (f *fakeResource) Lookup(ctx context.Context) (Object, error) {
	return f.existing, f.err
}

func (f *fakeResource) Create(ctx context.Context, desired body.Body) (Object, error) {
	f.creates++
	f.sent = desired
	obj := Object{"ID": "new"}
	for k, v := range desired {
		obj[k] = v
	}
	return obj, nil
}

func (f *fakeResource) Update(ctx context.Context, existing Object, desired body.Body) (Object, error) {
	f.updates++
	f.sent = desired
	obj := Object{}
	for k, v := range existing {
		obj[k] = v
	}
	for k, v := range desired {
		obj[k] = v
	}
	return obj, nil
}

func (f *fakeResource) Delete(ctx context.Context, existing Object) error {
	f.deletes++
	return nil
}

type fakePlanner struct {
	fakeResource
	changed bool
	planned int
}

func (f *fakePlanner) Plan(ctx context.Context, desired body.Body) (Object, bool, error) {
	f.planned++
	diffType := "None"
	if f.changed {
		diffType = "Edited"
	}
	return Object{"Type": diffType}, f.changed, nil
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name        string
		state       State
		existing    Object
		desired     body.Body
		wantAction  Action
		wantChanged bool
		wantCalls   [3]int // creates, updates, deletes
	}{
		{
			name:       "absent and already gone",
			state:      StateAbsent,
			wantAction: ActionNone,
		},
		{
			name:        "absent and exists",
			state:       StateAbsent,
			existing:    Object{"Name": "apps"},
			wantAction:  ActionDelete,
			wantChanged: true,
			wantCalls:   [3]int{0, 0, 1},
		},
		{
			name:        "present and missing",
			state:       StatePresent,
			desired:     body.Body{"Name": "apps"},
			wantAction:  ActionCreate,
			wantChanged: true,
			wantCalls:   [3]int{1, 0, 0},
		},
		{
			name:       "present and matching",
			state:      StatePresent,
			existing:   Object{"Name": "apps", "Description": "x", "CreateIndex": 7.0},
			desired:    body.Body{"Name": "apps", "Description": "x"},
			wantAction: ActionNone,
		},
		{
			name:       "unset fields never count as drift",
			state:      StatePresent,
			existing:   Object{"Name": "apps", "Description": "set by someone"},
			desired:    body.Body{"Name": "apps", "Description": nil},
			wantAction: ActionNone,
		},
		{
			name:        "present and drifted",
			state:       StatePresent,
			existing:    Object{"Name": "apps", "Description": "old"},
			desired:     body.Body{"Name": "apps", "Description": "new"},
			wantAction:  ActionUpdate,
			wantChanged: true,
			wantCalls:   [3]int{0, 1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &fakeResource{existing: tt.existing}
			result, err := Reconcile(context.Background(), Request{
				Kind:      "Test",
				Name:      "apps",
				ResultKey: "object",
				State:     tt.state,
				Resource:  res,
				Desired:   tt.desired,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantAction, result.Action)
			assert.Equal(t, tt.wantChanged, result.Changed)
			assert.Equal(t, tt.wantCalls, [3]int{res.creates, res.updates, res.deletes})
		})
	}
}

func TestReconcileSecondRunIsNoop(t *testing.T) {
	res := &fakeResource{}
	req := Request{
		Kind:     "Test",
		Name:     "apps",
		State:    StatePresent,
		Resource: res,
		Desired:  body.Body{"Name": "apps", "Quota": nil},
	}

	first, err := Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, first.Changed)

	res.existing = first.Object
	second, err := Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, 1, res.creates)
}

func TestReconcileStripsBeforeSending(t *testing.T) {
	res := &fakeResource{}
	_, err := Reconcile(context.Background(), Request{
		Kind:     "Test",
		Name:     "apps",
		State:    StatePresent,
		Resource: res,
		Desired:  body.Body{"Name": "apps", "Description": nil, "Meta": body.Body{"a": nil, "b": "1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, body.Body{"Name": "apps", "Meta": body.Body{"b": "1"}}, res.sent)
}

func TestReconcileExclude(t *testing.T) {
	res := &fakeResource{existing: Object{"Name": "vol", "Secrets": nil}}
	result, err := Reconcile(context.Background(), Request{
		Kind:     "Test",
		Name:     "vol",
		State:    StatePresent,
		Resource: res,
		Desired:  body.Body{"Name": "vol", "Secrets": map[string]any{"k": "v"}},
		Exclude:  []string{"Secrets"},
	})
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, 0, res.updates)
}

func TestReconcileImmutable(t *testing.T) {
	res := &fakeResource{existing: Object{"ID": "vol", "PluginID": "ebs"}}
	result, err := Reconcile(context.Background(), Request{
		Kind:      "Test",
		Name:      "vol",
		ResultKey: "volume",
		State:     StatePresent,
		Resource:  res,
		Desired:   body.Body{"ID": "vol", "PluginID": "nfs"},
		Immutable: true,
	})
	require.NoError(t, err)

	assert.Equal(t, ActionMismatch, result.Action)
	assert.False(t, result.Changed)
	assert.True(t, result.Mismatched)
	assert.Equal(t, 0, res.updates)
	assert.Equal(t, []string{"PluginID"}, result.Diagnostics["diff"])

	rec := result.Record()
	assert.Equal(t, true, rec["mismatched"])
	assert.Equal(t, res.existing, rec["volume"])
}

func TestReconcilePlanner(t *testing.T) {
	tests := []struct {
		name        string
		existing    Object
		changed     bool
		wantAction  Action
		wantCreates int
		wantUpdates int
	}{
		{"no diff", Object{"ID": "web"}, false, ActionNone, 0, 0},
		{"diff on existing job", Object{"ID": "web"}, true, ActionUpdate, 0, 1},
		{"new job", nil, true, ActionCreate, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &fakePlanner{fakeResource: fakeResource{existing: tt.existing}, changed: tt.changed}
			result, err := Reconcile(context.Background(), Request{
				Kind:     "Test",
				Name:     "web",
				State:    StatePresent,
				Resource: res,
				// Would match the existing object; the plan still decides.
				Desired: body.Body{"ID": "web"},
			})
			require.NoError(t, err)

			assert.Equal(t, 1, res.planned)
			assert.Equal(t, tt.wantAction, result.Action)
			assert.Equal(t, tt.changed, result.Changed)
			assert.Equal(t, tt.wantCreates, res.creates)
			assert.Equal(t, tt.wantUpdates, res.updates)
			assert.NotNil(t, result.Diagnostics["plan_diff"])
		})
	}
}

func TestReconcileLookupError(t *testing.T) {
	boom := errors.New("connection refused")
	res := &fakeResource{err: boom}

	_, err := Reconcile(context.Background(), Request{Kind: "Test", Name: "x", State: StatePresent, Resource: res})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, res.creates)
}

func TestReconcileInvalidState(t *testing.T) {
	_, err := Reconcile(context.Background(), Request{Kind: "Test", Name: "x", State: "gone", Resource: &fakeResource{}})
	assert.Error(t, err)
}

func TestParseState(t *testing.T) {
	s, err := ParseState("")
	require.NoError(t, err)
	assert.Equal(t, StatePresent, s)

	s, err = ParseState("absent")
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, s)

	_, err = ParseState("purged")
	assert.Error(t, err)
}

func TestResultRecord(t *testing.T) {
	r := &Result{
		ResultKey:   "namespace",
		Changed:     true,
		Object:      Object{"Name": "apps"},
		Diagnostics: map[string]any{"diff": []string{"Description"}, "changed": false},
	}
	rec := r.Record()

	assert.Equal(t, true, rec["changed"])
	assert.Equal(t, Object{"Name": "apps"}, rec["namespace"])
	assert.Equal(t, []string{"Description"}, rec["diff"])
	_, hasMismatch := rec["mismatched"]
	assert.False(t, hasMismatch)

	deleted := (&Result{ResultKey: "namespace", Changed: true}).Record()
	v, ok := deleted["namespace"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestPolicyError(t *testing.T) {
	var err error = &PolicyError{Kind: "ConsulACLBootstrap", Reason: "token mismatch"}
	var pe *PolicyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "ConsulACLBootstrap: token mismatch", err.Error())
}

func TestStringField(t *testing.T) {
	id, err := StringField(Object{"ID": "abc"}, "ID")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = StringField(Object{"ID": 7.0}, "ID")
	assert.Error(t, err)

	_, err = StringField(Object{}, "ID")
	assert.Error(t, err)
}
