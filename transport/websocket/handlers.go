package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
	"github.com/rocketscienceinc/tictactoe-promo/internal/session"
)

func (that *Server) handleConnect(ctx context.Context, conn *connection, msg *Message) error {
	log := that.logger.With("method", "handleConnect", "session_id", conn.session.ID())

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return conn.sendError(msg.Action, err.Error())
	}

	err = conn.session.Identify(ctx, payloadReq.User)
	if errors.Is(err, apperror.ErrNoIdentity) {
		log.Info("connected without identity")
		return conn.send(actionIdentityRequired, Payload{SessionID: conn.session.ID()})
	}
	if err != nil {
		return fmt.Errorf("failed to identify user: %w", err)
	}

	log.Info("successfully connected player", "user_id", payloadReq.User.ID)

	return conn.send(msg.Action, Payload{SessionID: conn.session.ID(), User: payloadReq.User})
}

func (that *Server) handleGameStart(ctx context.Context, conn *connection, _ *Message) error {
	err := conn.session.Start(ctx)
	if errors.Is(err, apperror.ErrNoIdentity) {
		return conn.send(actionIdentityRequired, Payload{SessionID: conn.session.ID()})
	}

	return err
}

func (that *Server) handleGameTurn(ctx context.Context, conn *connection, msg *Message) error {
	log := that.logger.With("method", "handleGameTurn", "session_id", conn.session.ID())

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return conn.sendError(msg.Action, err.Error())
	}

	if payloadReq.Cell == nil {
		return conn.sendError(msg.Action, "cell is required")
	}

	err = conn.session.Move(ctx, *payloadReq.Cell)
	if errors.Is(err, apperror.ErrMoveRejected) {
		log.Debug("move rejected", "cell", *payloadReq.Cell, "error", err)
		return conn.sendError(msg.Action, err.Error())
	}

	return err
}

func (that *Server) handleGameReset(ctx context.Context, conn *connection, _ *Message) error {
	return conn.session.Reset(ctx)
}

// publish returns the session listener pushing every change to the client.
func (that *Server) publish(conn *connection) session.Listener {
	log := that.logger.With("method", "publish")

	return func(event session.Event) {
		game := event.Transition.Game

		payload := Payload{
			Game:    &game,
			Result:  entity.ResultOf(game.Status),
			Outcome: event.Outcome,
		}

		if err := conn.send(actionGameState, payload); err != nil {
			log.Warn("failed to send game state", "error", err)
		}
	}
}

func decodePayload(msg *Message) (*Payload, error) {
	var payload Payload

	if len(msg.Payload) == 0 {
		return &payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	return &payload, nil
}
