package synonyms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_GroupedToken(t *testing.T) {
	d := New()

	// Given: a token from a built-in group
	expanded := d.Expand("smartphone")

	// Then: the canonical and all members come back, including the token
	assert.Contains(t, expanded, "phone")
	assert.Contains(t, expanded, "mobile")
	assert.Contains(t, expanded, "smartphone")
}

func TestExpand_UngroupedToken(t *testing.T) {
	d := New()
	assert.Equal(t, []string{"zyzzyva"}, d.Expand("zyzzyva"))
}

func TestWeight(t *testing.T) {
	d := New()

	tests := []struct {
		name   string
		t1, t2 string
		want   float64
	}{
		{"equal", "phone", "phone", 1.0},
		{"equal ungrouped", "xyz", "xyz", 1.0},
		{"co-grouped", "phone", "smartphone", DefaultGroupWeight},
		{"co-grouped members", "mobile", "cell", DefaultGroupWeight},
		{"different groups", "phone", "laptop", 0},
		{"unrelated", "phone", "xyz", 0},
		{"case insensitive", "Phone", "SMARTPHONE", DefaultGroupWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Weight(tt.t1, tt.t2))
			assert.Equal(t, d.Weight(tt.t1, tt.t2), d.Weight(tt.t2, tt.t1), "weight must be symmetric")
		})
	}
}

func TestAdd_CreatesGroup(t *testing.T) {
	d := Empty()
	d.Add("widget", []string{"gadget", "doohickey"})

	assert.Equal(t, DefaultGroupWeight, d.Weight("widget", "gadget"))
	assert.Equal(t, DefaultGroupWeight, d.Weight("gadget", "doohickey"))
	assert.Contains(t, d.Expand("doohickey"), "widget")
}

func TestAdd_Idempotent(t *testing.T) {
	d := Empty()
	d.Add("widget", []string{"gadget"})
	d.Add("widget", []string{"gadget"})
	d.Add("widget", []string{"gadget", "gizmo"})

	require.Equal(t, 1, d.Len())
	expanded := d.Expand("widget")
	assert.ElementsMatch(t, []string{"widget", "gadget", "gizmo"}, expanded)
}

func TestAdd_MergesIntoExistingGroup(t *testing.T) {
	d := New()
	d.Add("phone", []string{"blower"})

	// The group keeps its original members and weight.
	assert.Equal(t, DefaultGroupWeight, d.Weight("blower", "smartphone"))
}

func TestFirstMatchWins(t *testing.T) {
	d := Empty()
	d.Add("alpha", []string{"shared"})
	d.Add("beta", []string{"shared"})

	// "shared" stays bound to its first group.
	assert.Equal(t, DefaultGroupWeight, d.Weight("shared", "alpha"))
	assert.Equal(t, float64(0), d.Weight("shared", "beta"))
}

func TestInstanceIsolation(t *testing.T) {
	// Given: two dictionaries
	d1 := New()
	d2 := New()

	// When: one learns a new group at runtime
	d1.Add("sprocket", []string{"cog"})

	// Then: the other is unaffected
	assert.Equal(t, DefaultGroupWeight, d1.Weight("sprocket", "cog"))
	assert.Equal(t, float64(0), d2.Weight("sprocket", "cog"))
}
