package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStateFormat    = errors.New("invalid state format")
	ErrStateSignature = errors.New("invalid state signature")
	ErrStateExpired   = errors.New("state expired")
)

// OAuthState is the payload round-tripped through the provider's
// authorization redirect.
type OAuthState struct {
	ServiceID     string    `json:"serviceId"`
	UserDiscordID string    `json:"userDiscordId"`
	IssuedAt      time.Time `json:"iat"`
}

// StateSigner produces and checks state values of the form
// base64url(json).base64url(hmac-sha256(json)).
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewStateSigner(key []byte, ttl time.Duration) *StateSigner {
	return &StateSigner{key: key, ttl: ttl, now: time.Now}
}

func (s *StateSigner) Sign(serviceID, userDiscordID string) (string, error) {
	payload, err := json.Marshal(OAuthState{
		ServiceID:     serviceID,
		UserDiscordID: userDiscordID,
		IssuedAt:      s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString(s.mac(payload)), nil
}

func (s *StateSigner) Verify(state string) (*OAuthState, error) {
	payloadB64, sigB64, ok := strings.Cut(state, ".")
	if !ok || payloadB64 == "" || sigB64 == "" {
		return nil, ErrStateFormat
	}

	payload, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateFormat, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateFormat, err)
	}
	if !hmac.Equal(sig, s.mac(payload)) {
		return nil, ErrStateSignature
	}

	var st OAuthState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateFormat, err)
	}
	if st.ServiceID == "" || st.UserDiscordID == "" {
		return nil, fmt.Errorf("%w: missing identifiers", ErrStateFormat)
	}
	if s.ttl > 0 && s.now().After(st.IssuedAt.Add(s.ttl)) {
		return nil, ErrStateExpired
	}
	return &st, nil
}

func (s *StateSigner) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write(payload)
	return h.Sum(nil)
}
