// Package auth validates client identity tokens. The simulation never sees
// raw credentials: a session may only be created for an actor id that came
// out of a validated token.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oredrift/server/internal/config"
)

var ErrNoSubject = errors.New("auth: token has no subject")

// Verifier checks HMAC-signed tokens issued by the account service.
type Verifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		secret: []byte(cfg.Secret),
		opts: []jwt.ParserOption{
			jwt.WithValidMethods([]string{"HS256"}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithLeeway(cfg.Leeway),
			jwt.WithExpirationRequired(),
		},
	}
}

// ActorID validates the token and returns the actor id it vouches for.
func (v *Verifier) ActorID(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrNoSubject
	}
	return sub, nil
}
