package subset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		desired  any
		actual   any
		expected bool
	}{
		{
			name:     "empty mapping matches any mapping",
			desired:  map[string]any{},
			actual:   map[string]any{"Name": "readers"},
			expected: true,
		},
		{
			name:     "non-empty mapping against empty mapping",
			desired:  map[string]any{"Name": "readers"},
			actual:   map[string]any{},
			expected: false,
		},
		{
			name:     "extra actual keys are ignored",
			desired:  map[string]any{"Name": "readers"},
			actual:   map[string]any{"Name": "readers", "ID": "abc", "CreateIndex": 12.0},
			expected: true,
		},
		{
			name:     "differing scalar",
			desired:  map[string]any{"Rules": "node_prefix \"\" { policy = \"read\" }"},
			actual:   map[string]any{"Rules": "node_prefix \"\" { policy = \"write\" }"},
			expected: false,
		},
		{
			name:     "nested mapping mismatch",
			desired:  map[string]any{"JobACL": map[string]any{"Namespace": "apps"}},
			actual:   map[string]any{"JobACL": map[string]any{"Namespace": "default", "JobID": "web"}},
			expected: false,
		},
		{
			name:     "sequence element present",
			desired:  []any{"a"},
			actual:   []any{"a", "b"},
			expected: true,
		},
		{
			name:     "sequence element missing",
			desired:  []any{"c"},
			actual:   []any{"a", "b"},
			expected: false,
		},
		{
			name:     "sequence order is ignored",
			desired:  []string{"b", "a"},
			actual:   []any{"a", "b"},
			expected: true,
		},
		{
			name:     "sequence of mappings matches partially",
			desired:  []any{map[string]any{"Name": "global-management"}},
			actual:   []any{map[string]any{"ID": "00000000-0000-0000-0000-000000000001", "Name": "global-management"}},
			expected: true,
		},
		{
			name:     "int matches decoded float",
			desired:  map[string]any{"Capacity": 10},
			actual:   map[string]any{"Capacity": 10.0},
			expected: true,
		},
		{
			name:     "int matches json.Number",
			desired:  10,
			actual:   json.Number("10"),
			expected: true,
		},
		{
			name:     "bool mismatch",
			desired:  map[string]any{"Global": true},
			actual:   map[string]any{"Global": false},
			expected: false,
		},
		{
			name:     "string does not equal number",
			desired:  "10",
			actual:   10,
			expected: false,
		},
		{
			name:     "mapping against non-mapping",
			desired:  map[string]any{"a": 1},
			actual:   "a",
			expected: false,
		},
		{
			name:     "sequence against non-sequence",
			desired:  []any{"a"},
			actual:   map[string]any{"a": "a"},
			expected: false,
		},
		{
			name:     "scalar against mapping",
			desired:  "a",
			actual:   map[string]any{"a": "a"},
			expected: false,
		},
		{
			name:     "mapping against nil",
			desired:  map[string]any{"a": 1},
			actual:   nil,
			expected: false,
		},
		{
			name:     "nil against nil",
			desired:  nil,
			actual:   nil,
			expected: true,
		},
		{
			name:     "nil against value",
			desired:  nil,
			actual:   "x",
			expected: false,
		},
		{
			name:     "typed string map against any map",
			desired:  map[string]string{"owner": "platform"},
			actual:   map[string]any{"owner": "platform", "tier": "1"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Match(tt.desired, tt.actual))
		})
	}
}

func TestMatchReflexive(t *testing.T) {
	values := []any{
		nil,
		"readers",
		42,
		3.5,
		true,
		[]any{},
		map[string]any{},
		[]any{"a", map[string]any{"b": []any{1.0, 2.0}}},
		map[string]any{
			"Name":     "apps",
			"Meta":     map[string]any{"owner": "platform"},
			"Policies": []any{map[string]any{"ID": "1"}, map[string]any{"Name": "ops"}},
		},
	}

	for _, v := range values {
		assert.True(t, Match(v, v), "Match(%v, %v) should be true", v, v)
	}
}

func TestMatchDoesNotMutate(t *testing.T) {
	desired := map[string]any{"Meta": map[string]any{"a": "1"}}
	actual := map[string]any{"Meta": map[string]any{"a": "1", "b": "2"}}

	Match(desired, actual)

	assert.Equal(t, map[string]any{"Meta": map[string]any{"a": "1"}}, desired)
	assert.Equal(t, map[string]any{"Meta": map[string]any{"a": "1", "b": "2"}}, actual)
}

func TestDiff(t *testing.T) {
	desired := map[string]any{
		"Name":        "apps",
		"Description": "application workloads",
		"Meta":        map[string]any{"owner": "platform", "tier": "1"},
		"Policies":    []any{"readers", "writers"},
	}
	actual := map[string]any{
		"Name":     "apps",
		"Meta":     map[string]any{"owner": "platform", "tier": "2"},
		"Policies": []any{"readers"},
	}

	assert.Equal(t, []string{"Description", "Meta.tier", "Policies[1]"}, Diff(desired, actual))
	assert.False(t, Match(desired, actual))
}

func TestDiffEmptyWhenMatching(t *testing.T) {
	desired := map[string]any{"Name": "apps"}
	actual := map[string]any{"Name": "apps", "CreateIndex": 10.0}

	assert.Empty(t, Diff(desired, actual))
	assert.True(t, Match(desired, actual))
}

func TestDiffShapeMismatch(t *testing.T) {
	assert.Equal(t, []string{"."}, Diff(map[string]any{"a": 1}, "a"))
	assert.Equal(t, []string{"Meta"}, Diff(map[string]any{"Meta": map[string]any{"a": "1"}}, map[string]any{"Meta": nil}))
}
