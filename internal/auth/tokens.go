package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "awbooks-server"
	tokenAudience = "awbooks-browser"
	sessionClaim  = "sid"
)

// CookieSealer encrypts session ids into PASETO v4.local cookie values.
// The cookie never carries session contents, only the id and its expiry.
type CookieSealer struct {
	key paseto.V4SymmetricKey
}

// NewCookieSealer builds a sealer from a 32-byte key.
func NewCookieSealer(key []byte) (*CookieSealer, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("session key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &CookieSealer{key: k}, nil
}

// Seal returns the cookie value for sessionID, valid until expires.
func (s *CookieSealer) Seal(sessionID string, expires time.Time) string {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)
	token.SetJti(uuid.NewString())
	token.SetString(sessionClaim, sessionID)

	return token.V4Encrypt(s.key, nil)
}

// Open decrypts a cookie value and returns the session id it carries.
func (s *CookieSealer) Open(value string) (string, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.key, value, nil)
	if err != nil {
		return "", fmt.Errorf("invalid session cookie: %w", err)
	}
	sid, err := token.GetString(sessionClaim)
	if err != nil || sid == "" {
		return "", fmt.Errorf("session cookie has no session id")
	}
	return sid, nil
}
