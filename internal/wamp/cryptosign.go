package wamp

import (
	"encoding/hex"
	"fmt"
)

// Signer holds the ed25519 identity used for cryptosign authentication.
type Signer interface {
	PublicKeyHex() string
	Sign(message []byte) []byte
}

// signChallenge answers a cryptosign challenge. The router expects the
// hex-encoded signature followed by the challenge it sent.
func signChallenge(signer Signer, challengeHex string) (string, error) {
	challenge, err := hex.DecodeString(challengeHex)
	if err != nil {
		return "", fmt.Errorf("%w: invalid challenge: %v", ErrMalformed, err)
	}
	if len(challenge) != 32 {
		return "", fmt.Errorf("%w: challenge must be 32 bytes, got %d", ErrMalformed, len(challenge))
	}
	signature := signer.Sign(challenge)
	return hex.EncodeToString(signature) + challengeHex, nil
}
