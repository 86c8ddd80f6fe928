package identity

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	hk, err := NewHotkey()
	require.NoError(t, err)

	body := []byte("round-42:task-7")
	sig := hk.Sign(body)
	require.True(t, Verify(hk.Public, body, sig))
	require.False(t, Verify(hk.Public, []byte("tampered"), sig))
}

func TestLoadHotkeyRejectsBadSeedLength(t *testing.T) {
	_, err := LoadHotkey(hex.EncodeToString([]byte("tooshort")))
	require.Error(t, err)
}

func TestLoadHotkeyDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	hk1, err := LoadHotkey(hex.EncodeToString(seed))
	require.NoError(t, err)
	hk2, err := LoadHotkey(hex.EncodeToString(seed))
	require.NoError(t, err)
	require.Equal(t, hk1.Public, hk2.Public)
}

func TestIssueAndParseSandboxToken(t *testing.T) {
	hk, err := NewHotkey()
	require.NoError(t, err)
	secret := []byte("test-secret")

	tok, err := IssueSandboxToken(hk, secret, time.Minute)
	require.NoError(t, err)

	claims, err := ParseSandboxToken(tok, secret)
	require.NoError(t, err)
	require.Equal(t, hk.String(), claims.ValidatorHotkey)
}

func TestParseSandboxTokenRejectsWrongSecret(t *testing.T) {
	hk, err := NewHotkey()
	require.NoError(t, err)

	tok, err := IssueSandboxToken(hk, []byte("secret-a"), time.Minute)
	require.NoError(t, err)

	_, err = ParseSandboxToken(tok, []byte("secret-b"))
	require.Error(t, err)
}
