package api

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"BotDeck/db"
	"BotDeck/internal/operations"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Slash command names: 1-32 lowercase letters, digits, '-' or '_'.
var commandNamePattern = regexp.MustCompile(`^[-_a-z0-9]{1,32}$`)

func (s *Server) HandleDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	servers, err := s.store.ListServers(ctx, true)
	if err != nil {
		s.internalError(w, "Failed to load servers", err)
		return
	}
	cmds, err := s.store.ListCommands(ctx, false)
	if err != nil {
		s.internalError(w, "Failed to load commands", err)
		return
	}
	recent, err := s.store.CountCommandLogsSince(ctx, s.now().Add(-24*time.Hour))
	if err != nil {
		s.internalError(w, "Failed to count command logs", err)
		return
	}

	stats := statsResponse{
		TotalServers:    len(servers),
		TotalCommands:   len(cmds),
		CommandsLast24h: recent,
	}
	for _, c := range cmds {
		if c.Enabled {
			stats.ActiveCommands++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// Commands

func (s *Server) HandleListCommands(w http.ResponseWriter, r *http.Request) {
	cmds, err := s.store.ListCommands(r.Context(), false)
	if err != nil {
		s.internalError(w, "Failed to list commands", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds})
}

func (req commandRequest) validate() string {
	if !commandNamePattern.MatchString(req.Name) {
		return "command_name must be 1-32 lowercase letters, digits, '-' or '_'"
	}
	if len(req.Description) > 100 {
		return "description must be at most 100 characters"
	}
	if req.Type != "" && req.Type != db.CommandTypeSlash {
		return "command_type must be slash"
	}
	return ""
}

func (req commandRequest) apply(cmd *db.BotCommand) {
	cmd.Name = req.Name
	cmd.Description = req.Description
	cmd.Type = db.CommandTypeSlash
	cmd.AdminOnly = req.AdminOnly
	if req.Enabled != nil {
		cmd.Enabled = *req.Enabled
	}
}

func (s *Server) HandleCreateCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	cmd := &db.BotCommand{Enabled: true}
	req.apply(cmd)
	if user, ok := UserFromContext(r.Context()); ok {
		cmd.CreatedBy = &user.ID
	}
	if err := s.store.CreateCommand(r.Context(), cmd); err != nil {
		s.internalError(w, "Failed to create command", err)
		return
	}
	writeJSON(w, http.StatusCreated, cmd)
}

func (s *Server) HandleUpdateCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	cmd, err := s.store.GetCommand(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Command not found")
		return
	}
	if err != nil {
		s.internalError(w, "Failed to load command", err)
		return
	}

	req.apply(cmd)
	if err := s.store.UpdateCommand(r.Context(), cmd); err != nil {
		s.internalError(w, "Failed to update command", err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

func (s *Server) HandleDeleteCommand(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteCommand(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Command not found")
		return
	}
	if err != nil {
		s.internalError(w, "Failed to delete command", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Servers

func (s *Server) HandleListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := s.store.ListServers(r.Context(), false)
	if err != nil {
		s.internalError(w, "Failed to list servers", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

func (s *Server) HandleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req serverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ServerID == "" || req.ServerName == "" {
		writeError(w, http.StatusBadRequest, "server_id and server_name are required")
		return
	}

	srv := &db.DiscordServer{
		ServerID:   req.ServerID,
		ServerName: req.ServerName,
		IconURL:    req.IconURL,
		IsActive:   true,
	}
	if user, ok := UserFromContext(r.Context()); ok {
		srv.AddedBy = &user.ID
	}
	if err := s.store.UpsertServer(r.Context(), srv); err != nil {
		s.internalError(w, "Failed to save server", err)
		return
	}
	writeJSON(w, http.StatusCreated, srv)
}

func (s *Server) HandleDeleteServer(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteServer(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Server not found")
		return
	}
	if err != nil {
		s.internalError(w, "Failed to delete server", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Status

func (s *Server) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GetBotStatus(r.Context())
	if errors.Is(err, db.ErrNotFound) {
		writeJSON(w, http.StatusOK, statusResponse{IsActive: true})
		return
	}
	if err != nil {
		s.internalError(w, "Failed to load bot status", err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{IsActive: st.IsActive, UpdatedAt: &st.UpdatedAt, UpdatedBy: st.UpdatedBy})
}

func (s *Server) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "isActive is required")
		return
	}

	by := userID(r)
	st, err := s.store.SetBotStatus(r.Context(), *req.IsActive, by)
	if err != nil {
		s.internalError(w, "Failed to update bot status", err)
		return
	}
	s.logger.Info("Bot status set", zap.Bool("is_active", st.IsActive), zap.String("user_id", by))
	writeJSON(w, http.StatusOK, statusResponse{IsActive: st.IsActive, UpdatedAt: &st.UpdatedAt, UpdatedBy: st.UpdatedBy})
}

// Read-only views

func (s *Server) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.store.ListConnections(r.Context(), "")
	if err != nil {
		s.internalError(w, "Failed to list connections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": conns})
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultLogLimit
	}
	return min(limit, maxLogLimit)
}

func (s *Server) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.ListCommandLogs(r.Context(), limitParam(r))
	if err != nil {
		s.internalError(w, "Failed to list command logs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// Operations

func (s *Server) HandleListOperations(w http.ResponseWriter, r *http.Request) {
	ops, err := s.store.ListOperations(r.Context(), limitParam(r))
	if err != nil {
		s.internalError(w, "Failed to list operations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"operations": ops})
}

func (s *Server) HandleRunOperation(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.operations.Run(r.Context(), req.Operation, userID(r))
	if errors.Is(err, operations.ErrMissingOperation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, "Failed to execute operation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}
