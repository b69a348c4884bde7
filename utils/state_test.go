package utils

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSigner_RoundTrip(t *testing.T) {
	signer := NewStateSigner([]byte("state-key"), 15*time.Minute)

	state, err := signer.Sign("svc-1", "user-1")
	require.NoError(t, err)

	got, err := signer.Verify(state)
	require.NoError(t, err)
	assert.Equal(t, "svc-1", got.ServiceID)
	assert.Equal(t, "user-1", got.UserDiscordID)
}

func TestStateSigner_RejectsTamperedPayload(t *testing.T) {
	signer := NewStateSigner([]byte("state-key"), 15*time.Minute)

	state, err := signer.Sign("svc-1", "user-1")
	require.NoError(t, err)
	_, sig, _ := strings.Cut(state, ".")

	forged := base64.RawURLEncoding.EncodeToString(
		[]byte(`{"serviceId":"does-not-exist","userDiscordId":"user-1","iat":"2030-01-01T00:00:00Z"}`))
	_, err = signer.Verify(forged + "." + sig)
	assert.ErrorIs(t, err, ErrStateSignature)
}

func TestStateSigner_RejectsOtherKey(t *testing.T) {
	state, err := NewStateSigner([]byte("key-a"), time.Minute).Sign("svc", "user")
	require.NoError(t, err)

	_, err = NewStateSigner([]byte("key-b"), time.Minute).Verify(state)
	assert.ErrorIs(t, err, ErrStateSignature)
}

func TestStateSigner_Expiry(t *testing.T) {
	signer := NewStateSigner([]byte("state-key"), time.Minute)
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }

	state, err := signer.Sign("svc", "user")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(30 * time.Second) }
	_, err = signer.Verify(state)
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Verify(state)
	assert.ErrorIs(t, err, ErrStateExpired)
}

func TestStateSigner_Malformed(t *testing.T) {
	signer := NewStateSigner([]byte("state-key"), time.Minute)

	for _, state := range []string{
		"",
		"nodot",
		".sig",
		"payload.",
		`{"serviceId":"svc","userDiscordId":"u"}`,
		"!!!.???",
	} {
		_, err := signer.Verify(state)
		assert.ErrorIs(t, err, ErrStateFormat, "state %q", state)
	}
}
