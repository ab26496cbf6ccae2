// Package match runs the live round that follows a lobby hand-off: every
// reward interval each bot is offered a few options and keeps one.
package match

import (
	"context"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/lobby-backend/internal/bot"
	"github.com/DoyleJ11/lobby-backend/internal/engine"
)

type Participant struct {
	OccupantID  string   `json:"occupant_id"`
	DisplayName string   `json:"display_name"`
	IsBot       bool     `json:"is_bot"`
	Archetype   string   `json:"archetype,omitempty"`
	Role        string   `json:"role,omitempty"`
	Upgrades    []string `json:"upgrades,omitempty"`
}

// Pick is one bot's choice from one offer.
type Pick struct {
	Team       engine.Team
	OccupantID string
	Offered    []string
	Choice     string
	IsRole     bool
}

type side struct {
	team    engine.Team
	members []Participant
	rng     bot.Rand
	sel     *bot.Selector
}

// Round is owned by a single goroutine; OfferAll fans out internally.
type Round struct {
	code    string
	catalog []string
	sides   []*side
}

// NewRound seats the hand-off roster. newRand is called once per team; a nil
// func or a nil result gets a PCG source seeded from math/rand/v2.
func NewRound(code string, h engine.Handoff, table *bot.Table, newRand func() bot.Rand) *Round {
	if table == nil {
		table = bot.DefaultTable()
	}
	r := &Round{code: code, catalog: table.Options()}
	for _, t := range engine.Teams {
		slots := h.Blue
		if t == engine.TeamRed {
			slots = h.Red
		}
		s := &side{team: t}
		for _, slot := range slots {
			s.members = append(s.members, Participant{
				OccupantID:  slot.OccupantID,
				DisplayName: slot.DisplayName,
				IsBot:       slot.IsBot,
				Archetype:   slot.Archetype,
			})
		}
		if newRand != nil {
			s.rng = newRand()
		}
		if s.rng == nil {
			s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
		s.sel = bot.NewSelector(table, s.rng)
		r.sides = append(r.sides, s)
	}
	return r
}

func (r *Round) Code() string { return r.code }

// Team returns a copy of a team's participants.
func (r *Round) Team(t engine.Team) []Participant {
	for _, s := range r.sides {
		if s.team == t {
			out := slices.Clone(s.members)
			for i := range out {
				out[i].Upgrades = slices.Clone(out[i].Upgrades)
			}
			return out
		}
	}
	return nil
}

// Preferences returns the preference entries behind a seated bot's current
// archetype, in table order. Humans and unknown occupants have none.
func (r *Round) Preferences(t engine.Team, occupantID string) []bot.Entry {
	for _, s := range r.sides {
		if s.team != t {
			continue
		}
		for _, p := range s.members {
			if p.OccupantID == occupantID && p.IsBot {
				return s.sel.Table().Entries(p.Archetype)
			}
		}
	}
	return nil
}

// OfferAll gives every bot one offer of up to size options and applies its
// choice. Teams run concurrently; within a team bots pick in seat order so
// each pick sees the roles chosen before it. Picks are returned blue first.
func (r *Round) OfferAll(ctx context.Context, size int) ([]Pick, error) {
	picks := make([][]Pick, len(r.sides))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range r.sides {
		g.Go(func() error {
			var err error
			picks[i], err = r.offerTeam(ctx, s, size)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(picks...), nil
}

func (r *Round) offerTeam(ctx context.Context, s *side, size int) ([]Pick, error) {
	var picks []Pick
	for i := range s.members {
		if err := ctx.Err(); err != nil {
			return picks, err
		}
		p := &s.members[i]
		if !p.IsBot {
			continue
		}
		offered := Offer(s.rng, r.catalog, size)
		if len(offered) == 0 {
			continue
		}

		choice := s.sel.Select(offered, bot.Bot{Archetype: p.Archetype}, bot.CountRoles(s.roles()))
		pick := Pick{Team: s.team, OccupantID: p.OccupantID, Offered: offered, Choice: choice}
		if s.sel.Table().IsRole(choice) {
			pick.IsRole = true
			p.Role = choice
			p.Archetype = choice
		} else {
			p.Upgrades = append(p.Upgrades, choice)
		}
		picks = append(picks, pick)
	}
	return picks, nil
}

func (s *side) roles() []string {
	roles := make([]string, len(s.members))
	for i, p := range s.members {
		roles[i] = p.Role
	}
	return roles
}

// Offer draws up to n distinct options from catalog without replacement.
func Offer(rng bot.Rand, catalog []string, n int) []string {
	pool := slices.Clone(catalog)
	n = min(max(n, 0), len(pool))
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
