package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-promo/internal/config"
	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
	"github.com/rocketscienceinc/tictactoe-promo/internal/service"
	"github.com/rocketscienceinc/tictactoe-promo/internal/session"
)

const testUser = `{"id":42,"first_name":"Ivan","username":"ivan"}`

// queueOpponent plays the queued cells in order.
type queueOpponent struct {
	mu    sync.Mutex
	cells []int
}

func (that *queueOpponent) ChooseMove(board entity.Board) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.cells) == 0 {
		return board.LegalMoves()[0], nil
	}

	cell := that.cells[0]
	that.cells = that.cells[1:]

	return cell, nil
}

type recordingMessenger struct {
	mu    sync.Mutex
	texts []string
}

func (that *recordingMessenger) Deliver(_ context.Context, _, text string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.texts = append(that.texts, text)
	return nil
}

func (that *recordingMessenger) delivered() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]string(nil), that.texts...)
}

type testEnv struct {
	url       string
	messenger *recordingMessenger
	notifier  *service.OutcomeNotifier
}

func newTestEnv(t *testing.T, autoStart bool, opponentCells ...int) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{messenger: &recordingMessenger{}}
	env.notifier = service.NewOutcomeNotifier(
		logger,
		env.messenger,
		service.NewRewardGenerator(rand.New(rand.NewPCG(3, 4))),
		config.Messages{Win: "win", Loss: "loss"},
		time.Second,
	)

	server := New(logger, session.Deps{
		Opponent: &queueOpponent{cells: opponentCells},
		Notifier: env.notifier,
	}, session.Options{OpponentDelay: 5 * time.Millisecond, AutoStart: autoStart})

	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)

	env.url = "ws" + strings.TrimPrefix(httpServer.URL, "http")

	return env
}

func (that *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(that.url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action, payload string) {
	t.Helper()

	msg := Message{Action: action}
	if payload != "" {
		msg.Payload = json.RawMessage(payload)
	}

	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil reads messages until one with action satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, action string, match func(Payload) bool) Payload {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))

		if msg.Action != action {
			continue
		}

		var payload Payload
		if len(msg.Payload) > 0 {
			require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		}

		if match == nil || match(payload) {
			return payload
		}
	}
}

func stateWith(cell int, mark entity.Mark) func(Payload) bool {
	return func(p Payload) bool {
		return p.Game != nil && p.Game.Board[cell] == mark
	}
}

func TestServer_Connect(t *testing.T) {
	t.Run("Without user", func(t *testing.T) {
		// Given: a fresh connection
		env := newTestEnv(t, true)
		conn := env.dial(t)

		// When: connecting without a user
		send(t, conn, actionConnect, `{}`)

		// Then: the client is asked for an identity and starting is refused
		payload := readUntil(t, conn, actionIdentityRequired, nil)
		assert.NotEmpty(t, payload.SessionID)

		send(t, conn, actionGameStart, "")
		readUntil(t, conn, actionIdentityRequired, nil)
	})

	t.Run("With user and auto start", func(t *testing.T) {
		env := newTestEnv(t, true)
		conn := env.dial(t)

		send(t, conn, actionConnect, `{"user":`+testUser+`}`)

		state := readUntil(t, conn, actionGameState, nil)
		require.NotNil(t, state.Game)
		assert.Equal(t, entity.StatusInProgress, state.Game.Status)
		assert.Equal(t, entity.PlayerX, state.Game.Turn)

		connected := readUntil(t, conn, actionConnect, nil)
		assert.NotEmpty(t, connected.SessionID)
		require.NotNil(t, connected.User)
		assert.Equal(t, int64(42), connected.User.ID)
	})

	t.Run("Without auto start", func(t *testing.T) {
		env := newTestEnv(t, false)
		conn := env.dial(t)

		send(t, conn, actionConnect, `{"user":`+testUser+`}`)
		readUntil(t, conn, actionConnect, nil)

		send(t, conn, actionGameStart, "")
		state := readUntil(t, conn, actionGameState, nil)
		assert.Equal(t, entity.StatusInProgress, state.Game.Status)
	})
}

func TestServer_GameTurn(t *testing.T) {
	t.Run("Opponent answers the human move", func(t *testing.T) {
		// Given: a started game
		env := newTestEnv(t, true, 8)
		conn := env.dial(t)
		send(t, conn, actionConnect, `{"user":`+testUser+`}`)
		readUntil(t, conn, actionConnect, nil)

		// When: the human plays the center
		send(t, conn, actionGameTurn, `{"cell":4}`)

		// Then: the human move and then the opponent move are pushed
		readUntil(t, conn, actionGameState, stateWith(4, entity.PlayerX))
		state := readUntil(t, conn, actionGameState, stateWith(8, entity.PlayerO))
		assert.Equal(t, entity.PlayerX, state.Game.Turn)
		assert.Empty(t, state.Result)
	})

	t.Run("Rejected moves are reported", func(t *testing.T) {
		env := newTestEnv(t, true, 8)
		conn := env.dial(t)
		send(t, conn, actionConnect, `{"user":`+testUser+`}`)
		readUntil(t, conn, actionConnect, nil)
		send(t, conn, actionGameTurn, `{"cell":4}`)
		readUntil(t, conn, actionGameState, stateWith(8, entity.PlayerO))

		for _, payload := range []string{`{"cell":4}`, `{"cell":9}`, `{}`, `{"cell":"x"}`} {
			send(t, conn, actionGameTurn, payload)
			reply := readUntil(t, conn, actionGameTurn, nil)
			assert.NotEmpty(t, reply.Error, payload)
		}
	})

	t.Run("Unknown action", func(t *testing.T) {
		env := newTestEnv(t, true)
		conn := env.dial(t)

		send(t, conn, "game:join", "")

		reply := readUntil(t, conn, "game:join", nil)
		assert.Equal(t, "unknown action", reply.Error)
	})
}

func TestServer_Outcome(t *testing.T) {
	t.Run("Human win carries a reward code", func(t *testing.T) {
		// Given: the opponent answers 3 and 4
		env := newTestEnv(t, true, 3, 4)
		conn := env.dial(t)
		send(t, conn, actionConnect, `{"user":`+testUser+`}`)
		readUntil(t, conn, actionConnect, nil)

		// When: the human takes the top row
		send(t, conn, actionGameTurn, `{"cell":0}`)
		readUntil(t, conn, actionGameState, stateWith(3, entity.PlayerO))
		send(t, conn, actionGameTurn, `{"cell":1}`)
		readUntil(t, conn, actionGameState, stateWith(4, entity.PlayerO))
		send(t, conn, actionGameTurn, `{"cell":2}`)

		// Then: the final state shows the win and the code is sent once
		final := readUntil(t, conn, actionGameState, stateWith(2, entity.PlayerX))
		assert.Equal(t, entity.StatusWonByX, final.Game.Status)
		assert.Equal(t, entity.ResultWon, final.Result)
		require.NotNil(t, final.Outcome)
		assert.Len(t, final.Outcome.RewardCode, 5)

		env.notifier.Wait()
		assert.Equal(t, []string{"win " + final.Outcome.RewardCode}, env.messenger.delivered())
	})

	t.Run("Reset returns to idle", func(t *testing.T) {
		env := newTestEnv(t, true, 3)
		conn := env.dial(t)
		send(t, conn, actionConnect, `{"user":`+testUser+`}`)
		readUntil(t, conn, actionConnect, nil)
		send(t, conn, actionGameTurn, `{"cell":0}`)
		readUntil(t, conn, actionGameState, stateWith(3, entity.PlayerO))

		send(t, conn, actionGameReset, "")

		state := readUntil(t, conn, actionGameState, func(p Payload) bool {
			return p.Game != nil && p.Game.Status == entity.StatusIdle
		})
		assert.Equal(t, entity.Board{}, state.Game.Board)
		assert.Nil(t, state.Outcome)

		env.notifier.Wait()
		assert.Empty(t, env.messenger.delivered())
	})
}
