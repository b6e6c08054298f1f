package jwt

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/soundbus/audio-relay/internal/errors"
)

const (
	ErrInvalidRequest errors.Code = "invalid request"
	ErrInvalidToken   errors.Code = "invalid token"
	ErrNoToken        errors.Code = "no token"
)

// Payload is the claim set accepted on relay connections.
type Payload struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type Auth interface {
	Sign(userID string) (string, error)
	Verify(token string) (*Payload, error)
}

// NewAuth creates an HS256 authenticator.
func NewAuth(secret string) Auth {
	return &hmacAuth{
		secret: []byte(secret),
		method: jwt.SigningMethodHS256,
	}
}

type hmacAuth struct {
	secret []byte
	method jwt.SigningMethod
}

func (a *hmacAuth) Sign(userID string) (string, error) {
	if userID == "" {
		return "", errors.New(ErrInvalidRequest, "userID is required")
	}
	token := jwt.NewWithClaims(a.method, &Payload{UserID: userID})
	return token.SignedString(a.secret)
}

func (a *hmacAuth) Verify(tokenString string) (*Payload, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Payload{}, func(token *jwt.Token) (any, error) {
		// reject algorithm substitution
		if token.Method.Alg() != a.method.Alg() {
			return nil, errors.Newf(ErrInvalidToken,
				"unexpected signing method: %s", token.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err, "token verification failed")
	}

	claims, ok := token.Claims.(*Payload)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
