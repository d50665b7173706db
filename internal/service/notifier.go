package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-promo/internal/config"
	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

type messenger interface {
	Deliver(ctx context.Context, identity, text string) error
}

// OutcomeNotifier tells the player about a finished game through the bot.
// It reacts to transitions, not to states, so each win or loss is announced once.
type OutcomeNotifier struct {
	logger *slog.Logger

	messenger messenger
	rewards   *RewardGenerator
	messages  config.Messages
	timeout   time.Duration

	inFlight sync.WaitGroup
}

func NewOutcomeNotifier(
	logger *slog.Logger,
	messenger messenger,
	rewards *RewardGenerator,
	messages config.Messages,
	timeout time.Duration,
) *OutcomeNotifier {
	return &OutcomeNotifier{
		logger:    logger.With("component", "notifier"),
		messenger: messenger,
		rewards:   rewards,
		messages:  messages,
		timeout:   timeout,
	}
}

// OnTransition returns the outcome shown to the player, or nil when the
// transition did not end the game with a winner. Delivery happens in the
// background and never blocks the caller.
func (that *OutcomeNotifier) OnTransition(ctx context.Context, identity entity.Identity, transition entity.Transition) *entity.Outcome {
	if !transition.IsTerminalEntry() {
		return nil
	}

	var outcome *entity.Outcome

	switch transition.To {
	case entity.StatusWonByX:
		code := that.rewards.Generate()
		outcome = &entity.Outcome{
			Result:     entity.ResultWon,
			RewardCode: code,
			Message:    fmt.Sprintf("%s %s", that.messages.Win, code),
		}
	case entity.StatusWonByO:
		outcome = &entity.Outcome{
			Result:  entity.ResultLost,
			Message: that.messages.Loss,
		}
	default:
		return nil
	}

	that.deliver(ctx, identity.DeliveryTarget(), outcome)

	return outcome
}

// Wait blocks until every started delivery has finished.
func (that *OutcomeNotifier) Wait() {
	that.inFlight.Wait()
}

func (that *OutcomeNotifier) deliver(ctx context.Context, target string, outcome *entity.Outcome) {
	log := that.logger.With("method", "deliver", "target", target, "result", outcome.Result)

	that.inFlight.Add(1)
	go func() {
		defer that.inFlight.Done()

		ctx = context.WithoutCancel(ctx)
		if that.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, that.timeout)
			defer cancel()
		}

		err := that.messenger.Deliver(ctx, target, outcome.Message)
		switch {
		case errors.Is(err, apperror.ErrBotNotConfigured):
			log.Warn("outcome not delivered", "error", err)
		case err != nil:
			log.Error("failed to deliver outcome", "error", err)
		default:
			log.Info("outcome delivered")
		}
	}()
}
