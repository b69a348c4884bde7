package oauth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"BotDeck/db"
	"BotDeck/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type tokenServer struct {
	*httptest.Server
	calls     atomic.Int32
	status    atomic.Int32
	token     atomic.Value
	noRefresh atomic.Bool
}

func newTokenServer(t *testing.T) *tokenServer {
	ts := &tokenServer{}
	ts.status.Store(http.StatusOK)
	ts.token.Store("access-1")
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if status := int(ts.status.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		if ts.noRefresh.Load() {
			fmt.Fprintf(w, `{"access_token":%q,"expires_in":3600,"token_type":"Bearer"}`, ts.token.Load().(string))
			return
		}
		fmt.Fprintf(w, `{"access_token":%q,"refresh_token":"refresh-1","expires_in":3600,"token_type":"Bearer"}`, ts.token.Load().(string))
	}))
	t.Cleanup(ts.Close)
	return ts
}

type fixture struct {
	store  *db.MemoryStore
	linker *Linker
	tokens *tokenServer
	signer *utils.StateSigner
	svc    *db.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := db.NewMemoryStore()
	svc := &db.Service{
		Name:        "google_calendar",
		DisplayName: "Google Calendar",
		OAuthScope:  "https://www.googleapis.com/auth/calendar.events openid",
		Active:      true,
	}
	require.NoError(t, store.UpsertService(ctx, svc))

	keys, err := utils.DeriveKeys(testSecret)
	require.NoError(t, err)
	cipher, err := utils.NewCipher(keys.Token)
	require.NoError(t, err)
	signer := utils.NewStateSigner(keys.State, 15*time.Minute)

	tokens := newTokenServer(t)
	linker := NewLinker(store, cipher, signer, Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://api.example.com/oauth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   tokens.URL + "/auth",
			TokenURL:  tokens.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, zap.NewNop())

	return &fixture{store: store, linker: linker, tokens: tokens, signer: signer, svc: svc}
}

func (f *fixture) stateFromAuthURL(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestInitiate_BuildsAuthorizationURL(t *testing.T) {
	f := newFixture(t)

	authURL, err := f.linker.Initiate(context.Background(), f.svc.ID, "user-1")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://www.googleapis.com/auth/calendar.events openid", q.Get("scope"))

	st, err := f.signer.Verify(q.Get("state"))
	require.NoError(t, err)
	assert.Equal(t, f.svc.ID, st.ServiceID)
	assert.Equal(t, "user-1", st.UserDiscordID)
	assert.Zero(t, f.store.ConnectionCount())
}

func TestInitiate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.linker.Initiate(ctx, "", "user-1")
	assert.ErrorIs(t, err, ErrMissingParams)

	_, err = f.linker.Initiate(ctx, "missing", "user-1")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	f.svc.Active = false
	require.NoError(t, f.store.UpsertService(ctx, f.svc))
	_, err = f.linker.Initiate(ctx, f.svc.ID, "user-1")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCallback_UpsertIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	authURL, err := f.linker.Initiate(ctx, f.svc.ID, "user-1")
	require.NoError(t, err)
	state := f.stateFromAuthURL(t, authURL)

	_, err = f.linker.Callback(ctx, "code-1", state)
	require.NoError(t, err)

	f.tokens.token.Store("access-2")
	conn, err := f.linker.Callback(ctx, "code-2", state)
	require.NoError(t, err)
	assert.True(t, conn.IsConnected)
	assert.NotNil(t, conn.TokenExpiresAt)
	assert.NotNil(t, conn.RefreshToken)

	assert.Equal(t, 1, f.store.ConnectionCount())
	token, err := f.linker.ActiveToken(ctx, "user-1", "google_calendar")
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)

	stored, err := f.store.GetConnection(ctx, "user-1", f.svc.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "access-2", *stored.AccessToken, "tokens are encrypted at rest")
}

func TestCallback_ReconnectWithoutRefreshTokenKeepsStoredOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.signer.Sign(f.svc.ID, "user-1")
	require.NoError(t, err)
	first, err := f.linker.Callback(ctx, "code-1", state)
	require.NoError(t, err)
	require.NotNil(t, first.RefreshToken)
	storedRefresh := *first.RefreshToken

	f.tokens.noRefresh.Store(true)
	f.tokens.token.Store("access-2")
	second, err := f.linker.Callback(ctx, "code-2", state)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	stored, err := f.store.GetConnection(ctx, "user-1", f.svc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, storedRefresh, *stored.RefreshToken)

	token, err := f.linker.ActiveToken(ctx, "user-1", "google_calendar")
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
}

func TestCallback_TamperedStateFailsBeforeExchange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	authURL, err := f.linker.Initiate(ctx, f.svc.ID, "user-1")
	require.NoError(t, err)
	_, sig, _ := strings.Cut(f.stateFromAuthURL(t, authURL), ".")

	forged := base64.RawURLEncoding.EncodeToString(
		[]byte(`{"serviceId":"nonexistent","userDiscordId":"user-1","iat":"2030-01-01T00:00:00Z"}`))
	_, err = f.linker.Callback(ctx, "code", forged+"."+sig)
	assert.ErrorIs(t, err, ErrInvalidState)

	// A validly signed state for a service that does not exist.
	unknown, err := f.signer.Sign("nonexistent", "user-1")
	require.NoError(t, err)
	_, err = f.linker.Callback(ctx, "code", unknown)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = f.linker.Callback(ctx, "", unknown)
	assert.ErrorIs(t, err, ErrMissingParams)

	assert.Zero(t, f.tokens.calls.Load())
	assert.Zero(t, f.store.ConnectionCount())
}

func TestCallback_ExchangeFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tokens.status.Store(http.StatusBadRequest)

	state, err := f.signer.Sign(f.svc.ID, "user-1")
	require.NoError(t, err)

	_, err = f.linker.Callback(ctx, "bad-code", state)
	assert.ErrorIs(t, err, ErrTokenExchange)
	assert.Equal(t, int32(1), f.tokens.calls.Load())
	assert.Zero(t, f.store.ConnectionCount())
}

func TestDisconnectThenConsume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.signer.Sign(f.svc.ID, "user-1")
	require.NoError(t, err)
	_, err = f.linker.Callback(ctx, "code", state)
	require.NoError(t, err)

	require.NoError(t, f.linker.Disconnect(ctx, "user-1", f.svc.ID))
	require.NoError(t, f.linker.Disconnect(ctx, "user-1", f.svc.ID))

	_, err = f.linker.ActiveToken(ctx, "user-1", "google_calendar")
	assert.ErrorIs(t, err, ErrNotConnected)

	conn, err := f.store.GetConnection(ctx, "user-1", f.svc.ID)
	require.NoError(t, err)
	assert.False(t, conn.IsConnected)
	assert.Nil(t, conn.AccessToken)
	assert.Nil(t, conn.RefreshToken)
}

func TestActiveToken_NeverConnected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.linker.ActiveToken(ctx, "stranger", "google_calendar")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = f.linker.ActiveToken(ctx, "stranger", "unknown_service")
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.ErrorIs(t, f.linker.Disconnect(ctx, "", f.svc.ID), ErrMissingParams)
}
