// Package oauth links a Discord user to a third-party account through the
// OAuth2 authorization code flow and hands stored tokens to features that
// call the provider.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"BotDeck/db"
	"BotDeck/utils"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var (
	ErrMissingParams   = errors.New("missing required parameters")
	ErrInvalidState    = errors.New("invalid state parameter")
	ErrServiceNotFound = errors.New("service not found")
	ErrTokenExchange   = errors.New("failed to exchange code for tokens")
	ErrNotConnected    = errors.New("account not connected")
)

type Store interface {
	db.ServiceStore
	db.ConnectionStore
}

type TokenCipher interface {
	Encrypt(plainText string) (string, error)
	Decrypt(encrypted string) (string, error)
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint defaults to Google's.
	Endpoint oauth2.Endpoint
	// HTTPClient is used for the token exchange.
	HTTPClient *http.Client
}

type Linker struct {
	store  Store
	cipher TokenCipher
	signer *utils.StateSigner
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func NewLinker(store Store, cipher TokenCipher, signer *utils.StateSigner, cfg Config, logger *zap.Logger) *Linker {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = endpoints.Google
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Linker{
		store:  store,
		cipher: cipher,
		signer: signer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (l *Linker) oauthConfig(svc *db.Service) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     l.cfg.ClientID,
		ClientSecret: l.cfg.ClientSecret,
		RedirectURL:  l.cfg.RedirectURL,
		Endpoint:     l.cfg.Endpoint,
		Scopes:       strings.Fields(svc.OAuthScope),
	}
}

func (l *Linker) activeService(ctx context.Context, serviceID string) (*db.Service, error) {
	svc, err := l.store.GetService(ctx, serviceID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service %s: %w", serviceID, err)
	}
	if !svc.Active {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

// Initiate returns the provider authorization URL for the user. Nothing is
// persisted until the callback succeeds.
func (l *Linker) Initiate(ctx context.Context, serviceID, userDiscordID string) (string, error) {
	if serviceID == "" || userDiscordID == "" {
		return "", ErrMissingParams
	}

	svc, err := l.activeService(ctx, serviceID)
	if err != nil {
		return "", err
	}

	state, err := l.signer.Sign(svc.ID, userDiscordID)
	if err != nil {
		return "", err
	}

	authURL := l.oauthConfig(svc).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	l.logger.Info("OAuth flow initiated",
		zap.String("service", svc.Name),
		zap.String("user_discord_id", userDiscordID))
	return authURL, nil
}

// Callback verifies state, exchanges the code and stores the connection.
// Every check on the request happens before the token exchange.
func (l *Linker) Callback(ctx context.Context, code, state string) (*db.UserServiceConnection, error) {
	if code == "" || state == "" {
		return nil, ErrMissingParams
	}

	st, err := l.signer.Verify(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	svc, err := l.activeService(ctx, st.ServiceID)
	if err != nil {
		return nil, err
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, l.cfg.HTTPClient)
	token, err := l.oauthConfig(svc).Exchange(exchangeCtx, code)
	if err != nil {
		l.logger.Error("Token exchange failed", zap.String("service", svc.Name), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	accessToken, err := l.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	now := l.now().UTC()
	conn := &db.UserServiceConnection{
		UserDiscordID: st.UserDiscordID,
		ServiceID:     svc.ID,
		IsConnected:   true,
		AccessToken:   &accessToken,
		ConnectedAt:   &now,
	}
	if token.RefreshToken != "" {
		refreshToken, err := l.cipher.Encrypt(token.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		conn.RefreshToken = &refreshToken
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		conn.TokenExpiresAt = &expiry
	}

	if err := l.store.UpsertConnection(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	l.logger.Info("Service connected",
		zap.String("service", svc.Name),
		zap.String("user_discord_id", st.UserDiscordID))
	return conn, nil
}

// Disconnect clears the stored tokens. Disconnecting an unknown or already
// disconnected pair succeeds.
func (l *Linker) Disconnect(ctx context.Context, userDiscordID, serviceID string) error {
	if userDiscordID == "" || serviceID == "" {
		return ErrMissingParams
	}
	if err := l.store.DisconnectService(ctx, userDiscordID, serviceID); err != nil {
		return fmt.Errorf("failed to disconnect service: %w", err)
	}
	l.logger.Info("Service disconnected",
		zap.String("service_id", serviceID),
		zap.String("user_discord_id", userDiscordID))
	return nil
}

// ActiveToken returns the decrypted access token of a connected account.
// Tokens are never refreshed here.
func (l *Linker) ActiveToken(ctx context.Context, userDiscordID, serviceName string) (string, error) {
	svc, err := l.store.GetServiceByName(ctx, serviceName)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrNotConnected
	}
	if err != nil {
		return "", fmt.Errorf("failed to load service %s: %w", serviceName, err)
	}

	conn, err := l.store.GetConnection(ctx, userDiscordID, svc.ID)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrNotConnected
	}
	if err != nil {
		return "", fmt.Errorf("failed to load connection: %w", err)
	}
	if !conn.IsConnected || conn.AccessToken == nil {
		return "", ErrNotConnected
	}

	token, err := l.cipher.Decrypt(*conn.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}
