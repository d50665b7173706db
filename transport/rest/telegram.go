package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
)

type telegramRequest struct {
	TelegramID string `json:"telegramId"`
	Message    string `json:"message"`
	PromoCode  string `json:"promoCode,omitempty"`
}

type telegramResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// sendTelegram relays a message to the player. Delivery problems are reported
// in the body with status 200 so the game page never breaks on them.
func (that *handlers) sendTelegram(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "sendTelegram")

	var req telegramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.TelegramID == "" || req.Message == "" {
		that.writeError(w, http.StatusBadRequest, "telegramId and message are required")
		return
	}

	text := req.Message
	if req.PromoCode != "" {
		text = req.Message + " " + req.PromoCode
	}

	err := that.messenger.Deliver(r.Context(), req.TelegramID, text)
	switch {
	case errors.Is(err, apperror.ErrBotNotConfigured):
		log.Warn("bot token is not configured")
		that.writeJSON(w, http.StatusOK, telegramResponse{Error: "Bot token not configured"})
	case err != nil:
		log.Error("failed to deliver message", "telegram_id", req.TelegramID, "error", err)
		that.writeJSON(w, http.StatusOK, telegramResponse{Error: err.Error()})
	default:
		that.writeJSON(w, http.StatusOK, telegramResponse{Success: true})
	}
}
