package rest

import (
	"encoding/json"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

type trackRequest struct {
	UserID    int64  `json:"userId"`
	UserName  string `json:"userName,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
}

type trackResponse struct {
	Success bool         `json:"success"`
	Exists  bool         `json:"exists"`
	Created bool         `json:"created"`
	User    *entity.User `json:"user"`
}

func (that *handlers) trackUser(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "trackUser")

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == 0 || req.FirstName == "" {
		that.writeError(w, http.StatusBadRequest, "userId and firstName are required")
		return
	}

	user, created, err := that.userService.Track(r.Context(), entity.Identity{
		ID:        req.UserID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.UserName,
	})
	if err != nil {
		log.Error("failed to track user", "user_id", req.UserID, "error", err)
		that.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	that.writeJSON(w, http.StatusOK, trackResponse{
		Success: true,
		Exists:  !created,
		Created: created,
		User:    user,
	})
}
