package api

import (
	"errors"
	"net/http"

	"BotDeck/db"

	"go.uber.org/zap"
)

// Endpoints used by the bot and other trusted callers. Routed behind
// RequireServiceKey.

func (s *Server) HandleBotPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC(),
	})
}

func (s *Server) HandleBotStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GetBotStatus(r.Context())
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Failed to read bot status, reporting active", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, map[string]bool{"isActive": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isActive": st.IsActive})
}

func (s *Server) HandleBotCommands(w http.ResponseWriter, r *http.Request) {
	cmds, err := s.store.ListCommands(r.Context(), true)
	if err != nil {
		s.internalError(w, "Failed to list commands", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds})
}

func (s *Server) HandleBotServers(w http.ResponseWriter, r *http.Request) {
	servers, err := s.store.ListServers(r.Context(), true)
	if err != nil {
		s.internalError(w, "Failed to list servers", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

func (s *Server) HandleBotServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.store.ListServices(r.Context(), true)
	if err != nil {
		s.internalError(w, "Failed to list services", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *Server) HandleLogCommand(w http.ResponseWriter, r *http.Request) {
	var req logCommandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserDiscordID == "" {
		writeError(w, http.StatusBadRequest, "user_discord_id is required")
		return
	}

	entry := &db.CommandLog{
		CommandID:     req.CommandID,
		ServerID:      req.ServerID,
		UserDiscordID: req.UserDiscordID,
		CommandName:   req.CommandName,
		Success:       req.Success,
		ErrorMessage:  req.ErrorMessage,
	}
	if err := s.store.CreateCommandLog(r.Context(), entry); err != nil {
		s.internalError(w, "Failed to log command", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) HandleUserConnections(w http.ResponseWriter, r *http.Request) {
	var req userConnectionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserDiscordID == "" {
		writeError(w, http.StatusBadRequest, msgMissingUserID)
		return
	}

	conns, err := s.store.ListConnections(r.Context(), req.UserDiscordID)
	if err != nil {
		s.internalError(w, "Failed to list connections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": conns})
}

// HandleDisconnectService serves both /api/bot/disconnect-service and
// /oauth/disconnect.
func (s *Server) HandleDisconnectService(w http.ResponseWriter, r *http.Request) {
	var req serviceUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ServiceID == "" || req.UserDiscordID == "" {
		writeError(w, http.StatusBadRequest, msgMissingParams)
		return
	}

	if err := s.linker.Disconnect(r.Context(), req.UserDiscordID, req.ServiceID); err != nil {
		s.internalError(w, "Failed to disconnect service", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
