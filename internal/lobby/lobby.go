package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lobby-backend/internal/engine"
)

const (
	DefaultGracePeriod = 30 * time.Second
	DefaultSettleDelay = 2 * time.Second
)

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	Cmd engine.Command
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Posted by timers back into the loop.
type graceExpired struct{}

func (graceExpired) isLobbyMsg() {}

type disposeNow struct{}

func (disposeNow) isLobbyMsg() {}

// Snapshot is what clients receive. Handoff is set only on the broadcast
// that accompanies the start of the game.
type Snapshot struct {
	Version int
	State   engine.State
	Handoff *engine.Handoff
}

type View struct {
	Version    int
	NumClients int
	State      engine.State
}

type Config struct {
	// GracePeriod is how long an empty lobby waits for a human to return.
	GracePeriod time.Duration
	// SettleDelay is how long a started lobby stays up after broadcasting
	// the hand-off.
	SettleDelay time.Duration
	// BotArchetypes are assigned round-robin to bots filling vacant seats.
	BotArchetypes []string

	OnHandoff func(code string, h engine.Handoff)
	OnDispose func(code string)

	Logger *zap.Logger
}

type Lobby struct {
	code    string
	cfg     Config
	log     *zap.Logger
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan Snapshot
	ctx     context.Context
	cancel  context.CancelFunc

	graceTimer  *time.Timer
	settleTimer *time.Timer
	// emptySince is when the room last lost its final human.
	emptySince time.Time
}

func NewLobby(parent context.Context, code string, initial engine.State, cfg Config) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	l := &Lobby{
		code:    code,
		cfg:     cfg,
		log:     log.With(zap.String("lobby", code)),
		inbox:   make(chan Msg, 64), // Small buffer
		state:   initial,
		version: 0,
		clients: make(map[string]chan Snapshot),
		ctx:     ctx,
		cancel:  cancel,
	}

	// A room nobody has joined yet is as empty as one everybody left.
	if initial.HumanCount() == 0 {
		l.armGrace()
	}

	go l.loop()
	return l
}

func (l *Lobby) Code() string { return l.code }

// Done is closed once the lobby has shut down or been disposed.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Send delivers m to the lobby. It reports false if the lobby is gone.
func (l *Lobby) Send(m Msg) bool {
	if l.ctx.Err() != nil {
		return false
	}
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	}
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = msg.Outbox
				if !l.apply(engine.Command{Type: engine.CmdJoin, ClientID: msg.ClientID}) {
					// Not seated (full or already starting); still show them the room.
					l.sendTo(msg.ClientID, Snapshot{Version: l.version, State: l.state})
				}

			case Leave:
				delete(l.clients, msg.ClientID)
				l.apply(engine.Command{Type: engine.CmdLeave, ClientID: msg.ClientID})

			case FromClient:
				l.apply(msg.Cmd)

			case graceExpired:
				l.graceTimer = nil
				if n := l.state.HumanCount(); n > 0 {
					l.log.Debug("grace period over, humans present", zap.Int("humans", n))
					break
				}
				if left := l.cfg.GracePeriod - time.Since(l.emptySince); left > 0 {
					// Emptied again after this timer was armed.
					l.graceTimer = time.AfterFunc(left, func() { l.Send(graceExpired{}) })
					break
				}
				l.log.Info("disposing empty lobby")
				l.dispose()
				return

			case disposeNow:
				l.log.Info("disposing started lobby")
				l.dispose()
				return

			case GetState:
				// test-only: reflect internal state without data races
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.state,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// apply runs cmd through the engine. Rejected commands change nothing and are
// not reported to the sender. It reports whether a snapshot was broadcast.
func (l *Lobby) apply(cmd engine.Command) bool {
	events, newState, err := engine.Apply(l.state, cmd)
	if err != nil {
		l.log.Debug("command ignored",
			zap.String("cmd", string(cmd.Type)),
			zap.String("client", cmd.ClientID),
			zap.Error(err))
		return false
	}
	if len(events) == 0 {
		return false
	}

	l.state = newState
	l.version++

	snap := Snapshot{Version: l.version, State: l.state}
	if engine.ContainsEvent(events, engine.EvtGameStarting) {
		h := engine.BuildHandoff(l.state, l.cfg.BotArchetypes)
		snap.Handoff = &h
	}
	l.broadcast(snap)

	for _, ev := range events {
		switch ev.Type {
		case engine.EvtRoomEmptied:
			l.armGrace()
		case engine.EvtGameStarting:
			l.startHandoff(*snap.Handoff)
		}
	}
	return true
}

// armGrace schedules a recheck of the room after the grace period. A pending
// timer is left alone; the recheck at fire time decides, measuring from the
// latest emptySince.
func (l *Lobby) armGrace() {
	if l.state.Phase != engine.PhaseWaiting {
		return
	}
	l.emptySince = time.Now()
	if l.graceTimer != nil {
		return
	}
	l.log.Debug("lobby empty, grace timer armed", zap.Duration("grace", l.cfg.GracePeriod))
	l.graceTimer = time.AfterFunc(l.cfg.GracePeriod, func() { l.Send(graceExpired{}) })
}

func (l *Lobby) startHandoff(h engine.Handoff) {
	l.log.Info("game starting",
		zap.Int("team_size", h.TeamSize),
		zap.Int("humans", l.state.HumanCount()))

	if l.cfg.OnHandoff != nil {
		l.cfg.OnHandoff(l.code, h)
	}
	l.settleTimer = time.AfterFunc(l.cfg.SettleDelay, func() { l.Send(disposeNow{}) })
}

func (l *Lobby) dispose() {
	if l.cfg.OnDispose != nil {
		l.cfg.OnDispose(l.code)
	}
	l.shutdown()
}

func (l *Lobby) shutdown() {
	for _, t := range []*time.Timer{l.graceTimer, l.settleTimer} {
		if t != nil {
			t.Stop()
		}
	}
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) sendTo(clientID string, snap Snapshot) {
	ch, ok := l.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- snap:
	default:
		close(ch)
		delete(l.clients, clientID)
	}
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			l.log.Debug("dropping slow client", zap.String("client", id))
			close(ch)
			delete(l.clients, id)
		}
	}
}
