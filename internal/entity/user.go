package entity

import "time"

const (
	RoleClient              = "client"
	FunnelStageLeadCaptured = "lead_captured"
)

// User is the stored record of a player seen at least once.
type User struct {
	UserID      int64     `json:"userId"`
	UserName    string    `json:"userName,omitempty"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName,omitempty"`
	ChatID      int64     `json:"chatId"`
	Role        string    `json:"role"`
	FunnelStage string    `json:"funnelStage"`
	Tags        []string  `json:"tags"`
	IsActive    bool      `json:"isActive"`
	Blocked     bool      `json:"blocked"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewUser builds a first-seen user record. Telegram private chats share the user ID.
func NewUser(identity Identity, now time.Time) *User {
	return &User{
		UserID:      identity.ID,
		UserName:    identity.Username,
		FirstName:   identity.FirstName,
		LastName:    identity.LastName,
		ChatID:      identity.ID,
		Role:        RoleClient,
		FunnelStage: FunnelStageLeadCaptured,
		Tags:        []string{FunnelStageLeadCaptured},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
