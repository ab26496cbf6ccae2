package bot

import "math/rand/v2"

// Rand is the random source used by Selector. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// globalRand uses the top-level math/rand/v2 functions, which are safe for
// concurrent use.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// Bot is the part of a participant the selector looks at.
type Bot struct {
	Archetype string
}

type Selector struct {
	table *Table
	rng   Rand
}

// NewSelector returns a Selector over table. A nil table means DefaultTable
// and a nil rng the shared math/rand/v2 source.
func NewSelector(table *Table, rng Rand) *Selector {
	if table == nil {
		table = DefaultTable()
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &Selector{table: table, rng: rng}
}

func (s *Selector) Table() *Table { return s.table }

// Select picks one option from offered, which must not be empty.
//
// An offered role held by fewer than RoleCap teammates always wins over
// preference: one such role is chosen uniformly. Otherwise every offered
// option, saturated roles included, competes by the archetype's weights.
func (s *Selector) Select(offered []string, b Bot, counts RoleCount) string {
	if len(offered) == 1 {
		return offered[0]
	}

	var roles []string
	for _, opt := range offered {
		if s.table.IsRole(opt) {
			roles = append(roles, opt)
		}
	}
	if open := FilterRoles(roles, counts, RoleCap); len(open) > 0 {
		return open[s.rng.IntN(len(open))]
	}

	return s.weighted(offered, b.Archetype)
}

func (s *Selector) weighted(offered []string, archetype string) string {
	weights := make([]float64, len(offered))
	var total float64
	for i, opt := range offered {
		weights[i] = s.table.WeightOf(archetype, opt)
		total += weights[i]
	}
	if total <= 0 {
		return offered[s.rng.IntN(len(offered))]
	}

	r := s.rng.Float64() * total
	last := 0
	for i, opt := range offered {
		if weights[i] <= 0 {
			continue
		}
		last = i
		r -= weights[i]
		if r <= 0 {
			return opt
		}
	}
	// float rounding can leave a sliver past the last weight
	return offered[last]
}
