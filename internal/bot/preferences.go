// Package bot holds the reward selection used by bot participants: a static
// preference table keyed by build archetype, a role-diversity filter, and the
// selector that combines them.
package bot

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultWeight is the weight of an option an archetype has no entry for.
const DefaultWeight = 1.0

//go:embed preferences.yaml
var defaultTableYAML []byte

type Entry struct {
	Option string  `yaml:"option"`
	Weight float64 `yaml:"weight"`
}

type tableDoc struct {
	Roles      []string           `yaml:"roles"`
	Upgrades   []string           `yaml:"upgrades"`
	Archetypes map[string][]Entry `yaml:"archetypes"`
}

// Table maps archetype to its ordered preference entries. It is read-only
// once loaded and safe for concurrent use.
type Table struct {
	roles      []string
	upgrades   []string
	isRole     map[string]bool
	entries    map[string][]Entry
	weights    map[string]map[string]float64
	archetypes []string
}

var defaultTable = sync.OnceValues(func() (*Table, error) {
	return LoadTable(defaultTableYAML)
})

// DefaultTable returns the embedded table, parsed on first use.
func DefaultTable() *Table {
	t, err := defaultTable()
	if err != nil {
		// The embedded document is covered by tests.
		panic(fmt.Sprintf("bot: embedded preference table: %v", err))
	}
	return t
}

// LoadTable parses a YAML preference document. Weights must be positive.
func LoadTable(data []byte) (*Table, error) {
	var doc tableDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse preference table: %w", err)
	}

	t := &Table{
		roles:    doc.Roles,
		upgrades: doc.Upgrades,
		isRole:   make(map[string]bool, len(doc.Roles)),
		entries:  make(map[string][]Entry, len(doc.Archetypes)),
		weights:  make(map[string]map[string]float64, len(doc.Archetypes)),
	}
	for _, r := range doc.Roles {
		t.isRole[r] = true
	}

	for archetype, entries := range doc.Archetypes {
		w := make(map[string]float64, len(entries))
		for _, e := range entries {
			if e.Option == "" {
				return nil, fmt.Errorf("archetype %q: entry without option", archetype)
			}
			if e.Weight <= 0 {
				return nil, fmt.Errorf("archetype %q option %q: weight must be positive, got %v", archetype, e.Option, e.Weight)
			}
			w[e.Option] = e.Weight
		}
		t.entries[archetype] = entries
		t.weights[archetype] = w
		t.archetypes = append(t.archetypes, archetype)
	}
	sort.Strings(t.archetypes)

	return t, nil
}

// WeightOf returns the preference weight of option for archetype, or
// DefaultWeight when the pair is not in the table.
func (t *Table) WeightOf(archetype, option string) float64 {
	if w, ok := t.weights[archetype][option]; ok {
		return w
	}
	return DefaultWeight
}

// Entries returns archetype's entries in document order.
func (t *Table) Entries(archetype string) []Entry {
	return slices.Clone(t.entries[archetype])
}

// IsRole reports whether option is a mutually exclusive role choice.
func (t *Table) IsRole(option string) bool {
	return t.isRole[option]
}

// Options returns every offerable option, roles first.
func (t *Table) Options() []string {
	return slices.Concat(t.roles, t.upgrades)
}

// Archetypes returns the archetype keys in sorted order.
func (t *Table) Archetypes() []string {
	return slices.Clone(t.archetypes)
}
