// Package identity signs and verifies the validator's outbound requests
// with its hotkey, and issues bearer tokens the sandbox validation service
// accepts, analogous to the wallet/hotkey handling the Python validator
// delegates to Bittensor's wallet object.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Hotkey is an ed25519 keypair identifying this validator to miners. Every
// outbound transport request is signed with it so a miner can authenticate
// the sender without a shared secret.
type Hotkey struct {
	Public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewHotkey generates a fresh keypair. Production deployments load a
// persisted key instead; see LoadHotkey.
func NewHotkey() (Hotkey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Hotkey{}, err
	}
	return Hotkey{Public: pub, private: priv}, nil
}

// LoadHotkey reconstructs a Hotkey from a hex-encoded ed25519 seed, the
// format the validator's datadir keystore persists it in.
func LoadHotkey(hexSeed string) (Hotkey, error) {
	seed, err := hex.DecodeString(hexSeed)
	if err != nil {
		return Hotkey{}, fmt.Errorf("identity: decoding hotkey seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return Hotkey{}, fmt.Errorf("identity: hotkey seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return Hotkey{Public: priv.Public().(ed25519.PublicKey), private: priv}, nil
}

// SS58-style short form used in logs; this subnet doesn't implement the real
// SS58 checksum alphabet, just a stable hex prefix for operator readability.
func (h Hotkey) String() string {
	enc := hex.EncodeToString(h.Public)
	if len(enc) > 16 {
		return enc[:16]
	}
	return enc
}

// Sign produces a detached signature over body.
func (h Hotkey) Sign(body []byte) []byte {
	return ed25519.Sign(h.private, body)
}

// Verify checks a signature produced by the holder of pub over body.
func Verify(pub ed25519.PublicKey, body, sig []byte) bool {
	return ed25519.Verify(pub, body, sig)
}
