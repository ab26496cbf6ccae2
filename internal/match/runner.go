package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lobby-backend/internal/bot"
	"github.com/DoyleJ11/lobby-backend/internal/engine"
	"github.com/DoyleJ11/lobby-backend/internal/random"
)

const (
	DefaultRewardInterval = 5 * time.Second
	DefaultRewardRounds   = 6
	DefaultOfferSize      = 3
)

type RunnerConfig struct {
	Interval  time.Duration
	Rounds    int
	OfferSize int
	Table     *bot.Table
	// NewRand seeds each team's source; defaults to random.New.
	NewRand func() bot.Rand

	// OnOffer is called after every reward interval with that interval's
	// picks. OnFinish is called once with the final rosters.
	OnOffer  func(code string, n int, picks []Pick)
	OnFinish func(code string, r *Round)

	Logger *zap.Logger
}

// Runner starts one goroutine per handed-off lobby.
type Runner struct {
	cfg RunnerConfig
	log *zap.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRewardInterval
	}
	if cfg.Rounds < 0 {
		cfg.Rounds = DefaultRewardRounds
	}
	if cfg.OfferSize <= 0 {
		cfg.OfferSize = DefaultOfferSize
	}
	if cfg.NewRand == nil {
		cfg.NewRand = seededRand
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, log: log}
}

// Start runs the round for h in the background until all reward intervals
// have passed or ctx is done. It does not block, and it reports false without
// starting anything once ctx is done or Stop has been called.
func (r *Runner) Start(ctx context.Context, code string, h engine.Handoff) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || ctx.Err() != nil {
		r.log.Debug("round not started, shutting down", zap.String("lobby", code))
		return false
	}

	round := NewRound(code, h, r.cfg.Table, r.cfg.NewRand)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, round)
	}()
	return true
}

// Wait blocks until every started round has returned.
func (r *Runner) Wait() { r.wg.Wait() }

// Stop refuses further Starts and waits for running rounds. Callers cancel
// the rounds' context first.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, round *Round) {
	log := r.log.With(zap.String("lobby", round.Code()))
	log.Info("round started", zap.Int("intervals", r.cfg.Rounds))
	for _, team := range engine.Teams {
		for _, p := range round.Team(team) {
			if !p.IsBot {
				continue
			}
			log.Debug("bot seated",
				zap.String("team", string(team)),
				zap.String("bot", p.OccupantID),
				zap.String("archetype", p.Archetype),
				zap.Any("preferences", round.Preferences(team, p.OccupantID)))
		}
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for n := 1; n <= r.cfg.Rounds; n++ {
		select {
		case <-ctx.Done():
			log.Info("round cancelled", zap.Int("interval", n))
			return
		case <-ticker.C:
		}

		picks, err := round.OfferAll(ctx, r.cfg.OfferSize)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error("offer failed", zap.Int("interval", n), zap.Error(err))
			}
			return
		}
		for _, p := range picks {
			log.Debug("bot picked",
				zap.Int("interval", n),
				zap.String("team", string(p.Team)),
				zap.String("bot", p.OccupantID),
				zap.Strings("offered", p.Offered),
				zap.String("choice", p.Choice))
		}
		if r.cfg.OnOffer != nil {
			r.cfg.OnOffer(round.Code(), n, picks)
		}
	}

	log.Info("round finished")
	if r.cfg.OnFinish != nil {
		r.cfg.OnFinish(round.Code(), round)
	}
}

func seededRand() bot.Rand {
	rng, err := random.New()
	if err != nil {
		return nil
	}
	return rng
}
