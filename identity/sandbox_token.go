package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// SandboxClaims identifies the validator to the sandbox validation service,
// which authenticates callers with a bearer token rather than hotkey
// signatures (it isn't a subnet participant).
type SandboxClaims struct {
	jwt.RegisteredClaims
	ValidatorHotkey string `json:"validator_hotkey"`
}

// IssueSandboxToken mints a short-lived HS256 token authenticating this
// validator to the sandbox service, signed with the shared secret the
// operator configured out of band.
func IssueSandboxToken(hotkey Hotkey, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SandboxClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ValidatorHotkey: hotkey.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseSandboxToken validates and decodes a token minted by IssueSandboxToken.
func ParseSandboxToken(tokenStr string, secret []byte) (*SandboxClaims, error) {
	claims := &SandboxClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}
