package bot

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRand returns fixed draws.
type stubRand struct {
	f float64
	n int
}

func (s stubRand) Float64() float64 { return s.f }
func (s stubRand) IntN(n int) int   { return s.n % n }

func seeded() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func testTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := LoadTable([]byte(`
roles: [tank, healer, mage]
upgrades: [armor, damage, speed]
archetypes:
  bruiser:
    - { option: armor, weight: 3 }
    - { option: damage, weight: 1 }
`))
	require.NoError(t, err)
	return tbl
}

func TestSelect_SingleOptionIsForced(t *testing.T) {
	sel := NewSelector(testTable(t), seeded())
	// even a role held by the whole team is returned when it is the only choice
	counts := RoleCount{"tank": 5}
	for i := 0; i < 100; i++ {
		require.Equal(t, "tank", sel.Select([]string{"tank"}, Bot{Archetype: "bruiser"}, counts))
	}
}

func TestSelect_RoleCapExcludesSaturatedRole(t *testing.T) {
	sel := NewSelector(testTable(t), seeded())
	counts := CountRoles([]string{"tank", "tank", "mage"})

	for i := 0; i < 1000; i++ {
		got := sel.Select([]string{"tank", "healer", "armor"}, Bot{Archetype: "bruiser"}, counts)
		require.Equal(t, "healer", got, "trial %d", i)
	}
}

func TestSelect_OpenRoleBeatsPreference(t *testing.T) {
	// armor weighs 3 for bruiser but an under-cap role must still win
	sel := NewSelector(testTable(t), stubRand{f: 0, n: 0})
	got := sel.Select([]string{"armor", "mage"}, Bot{Archetype: "bruiser"}, RoleCount{"mage": 1})
	assert.Equal(t, "mage", got)
}

func TestSelect_SaturatedRolesFallBackToWeights(t *testing.T) {
	sel := NewSelector(testTable(t), seeded())
	counts := RoleCount{"tank": 2, "healer": 3}

	seen := map[string]int{}
	for i := 0; i < 2000; i++ {
		seen[sel.Select([]string{"tank", "healer"}, Bot{Archetype: "bruiser"}, counts)]++
	}
	// both roles are at cap, so both stay in the weighted pool
	assert.Greater(t, seen["tank"], 0)
	assert.Greater(t, seen["healer"], 0)
}

func TestSelect_WeightedConvergesToRatio(t *testing.T) {
	sel := NewSelector(testTable(t), seeded())
	const trials = 10000

	armor := 0
	for i := 0; i < trials; i++ {
		switch sel.Select([]string{"armor", "damage"}, Bot{Archetype: "bruiser"}, nil) {
		case "armor":
			armor++
		case "damage":
		default:
			t.Fatalf("picked an option that was not offered")
		}
	}
	assert.InDelta(t, 0.75, float64(armor)/trials, 0.03)
}

func TestSelect_UnknownOptionsWeighOne(t *testing.T) {
	sel := NewSelector(testTable(t), seeded())
	const trials = 10000

	speed := 0
	for i := 0; i < trials; i++ {
		if sel.Select([]string{"speed", "damage"}, Bot{Archetype: "bruiser"}, nil) == "speed" {
			speed++
		}
	}
	assert.InDelta(t, 0.5, float64(speed)/trials, 0.03)
}

func TestSelect_StableWalkOrder(t *testing.T) {
	sel := NewSelector(testTable(t), stubRand{f: 0.70})
	// total 4: 0.70*4=2.8, armor (3) absorbs it
	assert.Equal(t, "armor", sel.Select([]string{"armor", "damage"}, Bot{Archetype: "bruiser"}, nil))

	sel = NewSelector(testTable(t), stubRand{f: 0.80})
	// 3.2 - 3 leaves 0.2 for damage
	assert.Equal(t, "damage", sel.Select([]string{"armor", "damage"}, Bot{Archetype: "bruiser"}, nil))
}

func TestSelect_SoleNonzeroWeightAlwaysWins(t *testing.T) {
	tbl := &Table{
		isRole:  map[string]bool{},
		weights: map[string]map[string]float64{"picky": {"armor": 0, "damage": 2}},
	}
	for _, f := range []float64{0, 0.25, 0.5, 0.999} {
		sel := NewSelector(tbl, stubRand{f: f})
		assert.Equal(t, "damage", sel.Select([]string{"armor", "damage"}, Bot{Archetype: "picky"}, nil), "draw %v", f)
	}
}

func TestSelect_ZeroTotalFallsBackToUniform(t *testing.T) {
	tbl := &Table{
		isRole:  map[string]bool{},
		weights: map[string]map[string]float64{"none": {"armor": 0, "damage": 0}},
	}
	sel := NewSelector(tbl, stubRand{n: 1})
	assert.Equal(t, "damage", sel.Select([]string{"armor", "damage"}, Bot{Archetype: "none"}, nil))
}

func TestFilterRoles(t *testing.T) {
	counts := CountRoles([]string{"tank", "", "tank", "mage"})
	assert.Equal(t, RoleCount{"tank": 2, "mage": 1}, counts)
	assert.Equal(t, []string{"healer", "mage"}, FilterRoles([]string{"tank", "healer", "mage"}, counts, RoleCap))
	assert.Empty(t, FilterRoles([]string{"tank"}, counts, RoleCap))
}
