package api

import (
	"errors"
	"net/http"
	"strings"

	"BotDeck/internal/oauth"

	"go.uber.org/zap"
)

func (s *Server) HandleOAuthInit(w http.ResponseWriter, r *http.Request) {
	var req serviceUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	authURL, err := s.linker.Initiate(r.Context(), req.ServiceID, req.UserDiscordID)
	switch {
	case errors.Is(err, oauth.ErrMissingParams):
		writeError(w, http.StatusBadRequest, msgMissingParams)
		return
	case errors.Is(err, oauth.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, msgServiceNotFound)
		return
	case err != nil:
		s.internalError(w, "Failed to build authorization URL", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authUrl": authURL})
}

// HandleOAuthCallback never answers with JSON: it redirects to the dashboard
// or renders a terminal page.
func (s *Server) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		s.logger.Warn("OAuth provider returned error", zap.String("error", providerErr))
		s.oauthFailure(w, r, "Authorization was cancelled or denied.")
		return
	}

	conn, err := s.linker.Callback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		s.logger.Error("OAuth callback failed", zap.Error(err))
		s.oauthFailure(w, r, callbackErrorMessage(err))
		return
	}

	s.logger.Info("OAuth callback succeeded",
		zap.String("user_discord_id", conn.UserDiscordID),
		zap.String("service_id", conn.ServiceID))
	if s.appURL != "" {
		http.Redirect(w, r, strings.TrimRight(s.appURL, "/")+oauthSuccessPath, http.StatusFound)
		return
	}
	renderPage(w, http.StatusOK, successPage)
}

func (s *Server) oauthFailure(w http.ResponseWriter, r *http.Request, message string) {
	if s.appURL != "" {
		http.Redirect(w, r, strings.TrimRight(s.appURL, "/")+oauthErrorPath, http.StatusFound)
		return
	}
	page := errorPage
	page.Message = message
	renderPage(w, http.StatusBadRequest, page)
}

func callbackErrorMessage(err error) string {
	switch {
	case errors.Is(err, oauth.ErrMissingParams):
		return "Missing code or state."
	case errors.Is(err, oauth.ErrInvalidState):
		return "This link is invalid or has expired. Run /connect again."
	case errors.Is(err, oauth.ErrServiceNotFound):
		return "This service is no longer available."
	case errors.Is(err, oauth.ErrTokenExchange):
		return "The provider rejected the authorization. Please try again."
	}
	return "We could not save your connection. Please try again."
}
