package entity

import "strconv"

// Identity is the chat-platform user supplied when a session starts.
type Identity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DeliveryTarget is the handle messages for this user are sent to.
func (that Identity) DeliveryTarget() string {
	return strconv.FormatInt(that.ID, 10)
}

// Outcome is what the player is told when a game ends with a winner.
type Outcome struct {
	Result     string `json:"result"`
	RewardCode string `json:"reward_code,omitempty"`
	Message    string `json:"message"`
}

const (
	ResultWon  = "won"
	ResultLost = "lost"
	ResultDraw = "draw"
)

// ResultOf maps a game status to the human player's point of view.
func ResultOf(status Status) string {
	switch status {
	case StatusWonByX:
		return ResultWon
	case StatusWonByO:
		return ResultLost
	case StatusDrawn:
		return ResultDraw
	default:
		return ""
	}
}
