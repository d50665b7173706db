package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-promo/internal/session"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

type handlerFunc func(ctx context.Context, conn *connection, msg *Message) error

// Server upgrades /ws requests and runs one game session per connection.
type Server struct {
	logger *slog.Logger

	deps     session.Deps
	opts     session.Options
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, deps session.Deps, opts session.Options) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		deps:   deps,
		opts:   opts,
		upgrader: websocket.Upgrader{
			// the game page is served by the chat platform, not by us
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionGameStart] = server.handleGameStart
	server.handlers[actionGameTurn] = server.handleGameTurn
	server.handlers[actionGameReset] = server.handleGameReset

	return server
}

// connection serializes writes to one client socket.
type connection struct {
	socket  *websocket.Conn
	session *session.Session

	writeMu sync.Mutex
}

func (that *connection) send(action string, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.socket.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.socket.WriteJSON(Message{Action: action, Payload: raw}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connection) sendError(action, msg string) error {
	return that.send(action, Payload{Error: msg})
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	socket, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn := &connection{socket: socket}
	conn.session = session.New(that.logger, that.deps, that.opts, that.publish(conn))

	log = log.With("session_id", conn.session.ID())
	log.Info("WebSocket connection established")

	stopped := make(chan struct{})
	go func() {
		conn.session.Run(ctx)
		close(stopped)
	}()

	// unblocks the read loop on shutdown
	go func() {
		<-ctx.Done()
		_ = socket.Close()
	}()

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Debug("connection closed", "error", err)
	}

	cancel()
	<-stopped

	log.Info("WebSocket connection closed")
}

// handleMessages processes messages from the client until the socket fails.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages", "session_id", conn.session.ID())

	conn.socket.SetReadLimit(maxMessageSize)

	for {
		_, data, err := conn.socket.ReadMessage()
		if err != nil {
			return err
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			if err = conn.sendError("", "invalid message"); err != nil {
				return err
			}
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			if err = conn.sendError(message.Action, "unknown action"); err != nil {
				return err
			}
			continue
		}

		if err = handler(ctx, conn, &message); err != nil {
			if errors.Is(err, session.ErrClosed) || errors.Is(err, context.Canceled) {
				return err
			}
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}
