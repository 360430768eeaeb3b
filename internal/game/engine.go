package game

import (
	"context"

	"github.com/curbz/planeguess/internal/airspace"
	"github.com/curbz/planeguess/internal/clock"
	"github.com/curbz/planeguess/internal/hub"
	"github.com/curbz/planeguess/internal/metrics"
	"github.com/curbz/planeguess/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Broadcaster is the engine's view of the hub.
type Broadcaster interface {
	Add(s hub.Sink)
	Publish(snap protocol.Snapshot)
	SendTo(s hub.Sink, snap protocol.Snapshot) bool
}

// Engine is the single owner of State. Every command and every clock fire
// is handled by the goroutine running Run, one at a time, in arrival order.
type Engine struct {
	inbox   chan any
	done    chan struct{}
	state   *State
	out     Broadcaster
	ticker  clock.Ticker
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// EngineInterface is what viewers and HTTP handlers may ask of the engine.
type EngineInterface interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Toggle(ctx context.Context) (Mode, error)
	Guess(ctx context.Context, g Guess) (Result, error)
	Snapshot(ctx context.Context) (protocol.Snapshot, error)
	Leaderboard(ctx context.Context) ([]PlayerStats, error)
	Subscribe(ctx context.Context, s hub.Sink) error
}

// commands, each answered on its own reply channel
type startCmd struct{ reply chan error }
type stopCmd struct{ reply chan error }
type toggleCmd struct{ reply chan toggleReply }
type guessCmd struct {
	guess Guess
	reply chan guessReply
}
type snapshotCmd struct{ reply chan protocol.Snapshot }
type leaderboardCmd struct{ reply chan []PlayerStats }
type subscribeCmd struct {
	sink  hub.Sink
	reply chan struct{}
}

type toggleReply struct {
	mode Mode
	err  error
}

type guessReply struct {
	result Result
	err    error
}

func NewEngine(state *State, out Broadcaster, ticker clock.Ticker, inboxSize int, log logrus.FieldLogger, m *metrics.Metrics) *Engine {
	if inboxSize <= 0 {
		inboxSize = 256
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Engine{
		inbox:   make(chan any, inboxSize),
		done:    make(chan struct{}),
		state:   state,
		out:     out,
		ticker:  ticker,
		log:     log.WithField("component", "engine"),
		metrics: m,
	}
}

// Run processes commands and ticks until ctx is cancelled. It must be
// called exactly once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.ticker.Stop()

	e.log.Info("engine running")
	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopping")
			return ctx.Err()
		case cmd := <-e.inbox:
			e.handleCommand(cmd)
		case <-e.ticker.C():
			e.handleTick()
		}
	}
}

func (e *Engine) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case startCmd:
		err := e.state.Start()
		if err == nil {
			e.publish()
		}
		c.reply <- err
	case stopCmd:
		err := e.state.Stop()
		if err == nil {
			e.publish()
		}
		c.reply <- err
	case toggleCmd:
		mode, err := e.state.Toggle()
		if err == nil {
			e.publish()
		}
		c.reply <- toggleReply{mode: mode, err: err}
	case guessCmd:
		res, err := e.state.Evaluate(c.guess)
		switch {
		case err != nil:
			e.metrics.IncrementGuessesRejected()
		case res.Correct:
			e.metrics.IncrementGuessesCorrect()
			e.metrics.IncrementAircraftResolved()
			e.publish()
		default:
			e.metrics.IncrementGuessesWrong()
		}
		c.reply <- guessReply{result: res, err: err}
	case snapshotCmd:
		c.reply <- e.state.Snapshot()
	case leaderboardCmd:
		c.reply <- e.state.Scoreboard().Leaders()
	case subscribeCmd:
		e.out.Add(c.sink)
		e.out.SendTo(c.sink, e.state.Snapshot())
		c.reply <- struct{}{}
	default:
		e.log.Warnf("unknown command %T", cmd)
	}
}

func (e *Engine) handleTick() {
	res := e.state.Advance()
	e.metrics.IncrementTicks()
	if !res.Advanced {
		return
	}
	e.metrics.AddAircraftSpawned(len(res.Spawned))
	departed := 0
	for _, ac := range res.Removed {
		if ac.Status != airspace.Resolved {
			departed++
		}
	}
	e.metrics.AddAircraftDeparted(departed)
	e.publish()
}

func (e *Engine) publish() {
	e.out.Publish(e.state.Snapshot())
}

// request enqueues a command built around a fresh reply channel and waits
// for the answer. Once enqueued a command always runs, even if ctx is
// cancelled while waiting.
func request[T any](ctx context.Context, e *Engine, build func(chan T) any) (T, error) {
	var zero T
	reply := make(chan T, 1)

	select {
	case e.inbox <- build(reply):
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-e.done:
		return zero, ErrEngineStopped
	}

	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-e.done:
		select {
		case r := <-reply:
			return r, nil
		default:
			return zero, ErrEngineStopped
		}
	}
}

func (e *Engine) Start(ctx context.Context) error {
	result, err := request(ctx, e, func(r chan error) any { return startCmd{reply: r} })
	if err != nil {
		return err
	}
	return result
}

func (e *Engine) Stop(ctx context.Context) error {
	result, err := request(ctx, e, func(r chan error) any { return stopCmd{reply: r} })
	if err != nil {
		return err
	}
	return result
}

// Toggle starts an idle game or stops a running one, decided when the
// command executes.
func (e *Engine) Toggle(ctx context.Context) (Mode, error) {
	r, err := request(ctx, e, func(r chan toggleReply) any { return toggleCmd{reply: r} })
	if err != nil {
		return Idle, err
	}
	return r.mode, r.err
}

func (e *Engine) Guess(ctx context.Context, g Guess) (Result, error) {
	r, err := request(ctx, e, func(r chan guessReply) any { return guessCmd{guess: g, reply: r} })
	if err != nil {
		return Result{}, err
	}
	return r.result, r.err
}

func (e *Engine) Snapshot(ctx context.Context) (protocol.Snapshot, error) {
	return request(ctx, e, func(r chan protocol.Snapshot) any { return snapshotCmd{reply: r} })
}

func (e *Engine) Leaderboard(ctx context.Context) ([]PlayerStats, error) {
	return request(ctx, e, func(r chan []PlayerStats) any { return leaderboardCmd{reply: r} })
}

// Subscribe registers s with the hub and sends it the current snapshot
// before any later publish can reach it.
func (e *Engine) Subscribe(ctx context.Context, s hub.Sink) error {
	_, err := request(ctx, e, func(r chan struct{}) any { return subscribeCmd{sink: s, reply: r} })
	return err
}
