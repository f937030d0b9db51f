// Package auth verifies the HS256 bearer tokens learners present to the API
// and to the reminder bot.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// issuer checks, or that carry no subject.
var ErrInvalidToken = errors.New("auth: invalid token")

// Verifier checks tokens signed with a shared secret.
type Verifier struct {
	key  []byte
	opts []jwt.ParserOption
}

// NewVerifier returns a verifier for secret. issuer is checked when set.
func NewVerifier(secret, issuer string) *Verifier {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{key: []byte(secret), opts: opts}
}

// Subject validates raw and returns its sub claim, the learner's user ID.
func (v *Verifier) Subject(raw string) (string, error) {
	if len(v.key) == 0 {
		return "", fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return v.key, nil }, v.opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return sub, nil
}
