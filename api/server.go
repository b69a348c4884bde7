package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"BotDeck/db"
	"BotDeck/internal/calendar"
	"BotDeck/internal/identity"
	"BotDeck/internal/operations"

	"go.uber.org/zap"
)

type Linker interface {
	Initiate(ctx context.Context, serviceID, userDiscordID string) (string, error)
	Callback(ctx context.Context, code, state string) (*db.UserServiceConnection, error)
	Disconnect(ctx context.Context, userDiscordID, serviceID string) error
}

type EventCreator interface {
	Create(ctx context.Context, req calendar.Request) (*calendar.Result, error)
}

type OperationRunner interface {
	Run(ctx context.Context, operation, initiatedBy string) (*operations.Result, error)
}

type IdentityProvider interface {
	User(ctx context.Context, accessToken string) (*identity.User, error)
}

// Server holds the dependencies of every HTTP handler.
type Server struct {
	store      db.Store
	linker     Linker
	calendar   EventCreator
	operations OperationRunner
	identity   IdentityProvider
	appURL     string
	serviceKey string
	logger     *zap.Logger
	now        func() time.Time
}

type Deps struct {
	Store      db.Store
	Linker     Linker
	Calendar   EventCreator
	Operations OperationRunner
	Identity   IdentityProvider
	// AppURL is the dashboard origin the OAuth callback redirects to. When
	// empty the callback renders its own page.
	AppURL string
	// ServiceKey guards the bot API, OAuth init/disconnect and calendar
	// routes. An empty key rejects every request to them.
	ServiceKey string
	Logger     *zap.Logger
}

func NewServer(d Deps) *Server {
	return &Server{
		store:      d.Store,
		linker:     d.Linker,
		calendar:   d.Calendar,
		operations: d.Operations,
		identity:   d.Identity,
		appURL:     d.AppURL,
		serviceKey: d.ServiceKey,
		logger:     d.Logger,
		now:        time.Now,
	}
}

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs err and answers with a fixed message.
func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

func (s *Server) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("Health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("❌ BotDeck database unreachable"))
		return
	}
	w.Write([]byte("✅ BotDeck is alive"))
}
