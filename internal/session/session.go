// Package session runs one player's game as a single-threaded event loop.
//
// All game state is owned by the goroutine executing Run. Public methods
// enqueue a command and wait for its result; the delayed opponent move is a
// timer that enqueues a command too, so nothing else ever touches the game.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

const (
	humanMark    = entity.PlayerX
	opponentMark = entity.PlayerO

	trackUserTimeout = 10 * time.Second
)

var ErrClosed = errors.New("session is closed")

type Opponent interface {
	ChooseMove(board entity.Board) (int, error)
}

type Notifier interface {
	OnTransition(ctx context.Context, identity entity.Identity, transition entity.Transition) *entity.Outcome
}

type UserTracker interface {
	Track(ctx context.Context, identity entity.Identity) (*entity.User, bool, error)
}

type Deps struct {
	Opponent Opponent
	Notifier Notifier
	Users    UserTracker
}

type Options struct {
	OpponentDelay time.Duration
	AutoStart     bool
}

// Event is published after every successful change of the game.
type Event struct {
	Transition entity.Transition
	Outcome    *entity.Outcome
}

type Listener func(Event)

type Session struct {
	id     string
	logger *slog.Logger

	deps     Deps
	opts     Options
	listener Listener

	commands chan func()
	done     chan struct{}
	baseCtx  context.Context //nolint: containedctx // set once by Run, read only by the loop

	// owned by the loop
	game        *entity.Game
	identity    *entity.Identity
	userTracked bool
	pending     *time.Timer
}

func New(logger *slog.Logger, deps Deps, opts Options, listener Listener) *Session {
	id := uuid.NewString()

	return &Session{
		id:       id,
		logger:   logger.With("component", "session", "session_id", id),
		deps:     deps,
		opts:     opts,
		listener: listener,
		commands: make(chan func()),
		done:     make(chan struct{}),
		baseCtx:  context.Background(),
		game:     entity.NewGame(),
	}
}

func (that *Session) ID() string {
	return that.id
}

// Run processes commands until ctx is canceled. It must be called exactly once.
func (that *Session) Run(ctx context.Context) {
	that.baseCtx = ctx

	defer close(that.done)
	defer that.cancelOpponent()

	that.logger.Debug("session started")

	for {
		select {
		case <-ctx.Done():
			that.logger.Debug("session stopped")
			return
		case cmd := <-that.commands:
			cmd()
		}
	}
}

// Identify attaches the chat-platform user to the session. A nil identity
// returns apperror.ErrNoIdentity and the game cannot be started.
func (that *Session) Identify(ctx context.Context, identity *entity.Identity) error {
	return that.do(ctx, func() error {
		return that.identify(identity)
	})
}

func (that *Session) Start(ctx context.Context) error {
	return that.do(ctx, that.start)
}

func (that *Session) Reset(ctx context.Context) error {
	return that.do(ctx, func() error {
		that.reset()
		return nil
	})
}

// Move applies the human player's move. Rejections wrap apperror.ErrMoveRejected.
func (that *Session) Move(ctx context.Context, cell int) error {
	return that.do(ctx, func() error {
		return that.move(cell)
	})
}

func (that *Session) Snapshot(ctx context.Context) (entity.Game, error) {
	var game entity.Game

	err := that.do(ctx, func() error {
		game = *that.game
		return nil
	})

	return game, err
}

func (that *Session) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)

	select {
	case that.commands <- func() { result <- fn() }:
	case <-that.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// an accepted command always runs to completion
	return <-result
}

func (that *Session) post(cmd func()) {
	select {
	case that.commands <- cmd:
	case <-that.done:
	}
}

func (that *Session) identify(identity *entity.Identity) error {
	if identity == nil || identity.ID == 0 {
		return apperror.ErrNoIdentity
	}

	if that.identity == nil || that.identity.ID != identity.ID {
		that.userTracked = false
	}

	user := *identity
	that.identity = &user
	that.trackUser(user)

	if that.opts.AutoStart && that.game.IsIdle() {
		return that.start()
	}

	return nil
}

func (that *Session) start() error {
	if that.identity == nil {
		return apperror.ErrNoIdentity
	}

	that.publish(that.game.Start())

	return nil
}

func (that *Session) reset() {
	that.publish(that.game.Reset())
}

func (that *Session) move(cell int) error {
	if that.game.IsInProgress() && that.game.Turn != humanMark {
		return fmt.Errorf("%w: %w", apperror.ErrMoveRejected, apperror.ErrNotYourTurn)
	}

	transition, err := that.game.ApplyMove(cell)
	if err != nil {
		return err
	}

	that.publish(transition)

	return nil
}

// publish runs the subscribers of a transition once the game is fully updated:
// the notifier first, then the opponent scheduler, then the listener.
func (that *Session) publish(transition entity.Transition) {
	that.cancelOpponent()

	event := Event{Transition: transition}

	if that.identity != nil && that.deps.Notifier != nil {
		event.Outcome = that.deps.Notifier.OnTransition(that.baseCtx, *that.identity, transition)
	}

	that.scheduleOpponent(transition)

	if that.listener != nil {
		that.listener(event)
	}
}

func (that *Session) scheduleOpponent(transition entity.Transition) {
	game := transition.Game
	if game.Status != entity.StatusInProgress || game.Turn != opponentMark {
		return
	}

	version := game.Version
	that.pending = time.AfterFunc(that.opts.OpponentDelay, func() {
		that.post(func() {
			that.playOpponent(version)
		})
	})
}

func (that *Session) cancelOpponent() {
	if that.pending != nil {
		that.pending.Stop()
		that.pending = nil
	}
}

// playOpponent applies the computer's move unless the game changed since it was scheduled.
func (that *Session) playOpponent(version uint64) {
	log := that.logger.With("method", "playOpponent", "scheduled_version", version)

	if that.game.Version != version || !that.game.IsInProgress() || that.game.Turn != opponentMark {
		log.Debug("stale opponent move dropped", "version", that.game.Version, "status", that.game.Status)
		return
	}

	that.pending = nil

	cell, err := that.deps.Opponent.ChooseMove(that.game.Board)
	if err != nil {
		log.Error("opponent failed to choose a move", "error", err)
		return
	}

	transition, err := that.game.ApplyMove(cell)
	if err != nil {
		log.Error("opponent move rejected", "cell", cell, "error", err)
		return
	}

	that.publish(transition)
}

func (that *Session) trackUser(identity entity.Identity) {
	if that.userTracked || that.deps.Users == nil {
		return
	}

	that.userTracked = true

	log := that.logger.With("method", "trackUser", "user_id", identity.ID)
	ctx := context.WithoutCancel(that.baseCtx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, trackUserTimeout)
		defer cancel()

		_, created, err := that.deps.Users.Track(ctx, identity)
		if err != nil {
			log.Error("failed to track user", "error", err)
			return
		}

		log.Info("user tracked", "created", created)
	}()
}
