package cryptoutil

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// TokenClaims is the signed payload carried by a bearer token: {user_id,
// session_id}, per §4.3.
type TokenClaims struct {
	UserID    uint64 `json:"user_id"`
	SessionID uint64 `json:"session_id"`
}

// Signer issues and verifies compact signed tokens: a JWS-like
// "<base64(payload)>.<base64(hmac)>" string with HMAC-SHA256 over a
// server secret, deliberately simpler than a full JWT since the wire
// format only ever needs one claims shape.
type Signer struct {
	secret []byte
}

// NewSigner builds a Signer over the server's secret key.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Issue encodes and signs claims.
func (s *Signer) Issue(claims TokenClaims) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	encPayload := base64.RawURLEncoding.EncodeToString(payload)
	sig := s.sign(encPayload)
	return encPayload + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Parse verifies the signature and decodes the claims, WITHOUT checking
// that the (user_id, session_id) pair still exists — callers must do that
// lookup themselves (see internal/store), since only the session store
// knows whether a session was revoked.
func (s *Signer) Parse(token string) (TokenClaims, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return TokenClaims{}, fmt.Errorf("malformed token")
	}
	encPayload, encSig := parts[0], parts[1]

	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("malformed token signature")
	}
	expected := s.sign(encPayload)
	if subtle.ConstantTimeCompare(sig, expected) != 1 {
		return TokenClaims{}, fmt.Errorf("invalid token signature")
	}

	payload, err := base64.RawURLEncoding.DecodeString(encPayload)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("malformed token payload")
	}
	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return TokenClaims{}, fmt.Errorf("malformed token claims: %w", err)
	}
	return claims, nil
}

func (s *Signer) sign(encPayload string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encPayload))
	return mac.Sum(nil)
}
