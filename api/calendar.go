package api

import (
	"errors"
	"net/http"

	"BotDeck/internal/calendar"

	"go.uber.org/zap"
)

func (s *Server) HandleCalendarCreate(w http.ResponseWriter, r *http.Request) {
	var req calendar.Request
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, calendar.Result{Error: err.Error()})
		return
	}

	res, err := s.calendar.Create(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, calendar.ErrInvalidRequest), errors.Is(err, calendar.ErrNotConnected):
			status = http.StatusBadRequest
		case errors.Is(err, calendar.ErrWebhookFailed), errors.Is(err, calendar.ErrProviderRequestFailed):
			status = http.StatusBadGateway
		}
		s.logger.Warn("Calendar create failed",
			zap.String("user_discord_id", req.UserDiscordID),
			zap.Error(err))
		writeJSON(w, status, calendar.Result{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}
