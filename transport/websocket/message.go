package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

const (
	actionConnect          = "connect"
	actionIdentityRequired = "identity:required"
	actionGameStart        = "game:start"
	actionGameTurn         = "game:turn"
	actionGameReset        = "game:reset"
	actionGameState        = "game:state"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	SessionID string           `json:"session_id,omitempty"`
	User      *entity.Identity `json:"user,omitempty"`
	Game      *entity.Game     `json:"game,omitempty"`
	Result    string           `json:"result,omitempty"`
	Outcome   *entity.Outcome  `json:"outcome,omitempty"`
	Cell      *int             `json:"cell,omitempty"`
	Error     string           `json:"error,omitempty"`
}
