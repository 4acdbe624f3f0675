package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid player token")

// TokenTTL is how long an issued player token stays valid.
const TokenTTL = 14 * 24 * time.Hour

type playerClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// SignPlayerToken issues an HS256 token naming the player.
func SignPlayerToken(secret []byte, p model.Player, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, playerClaims{
		Name: p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := token.SignedString(secret)
	return ss, exp, err
}

// ParsePlayerToken checks the signature and expiry and returns the player it names.
func ParsePlayerToken(secret []byte, tokenStr string) (model.Player, error) {
	var claims playerClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Player{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return model.Player{}, ErrInvalidToken
	}
	return model.Player{ID: claims.Subject, Name: claims.Name}, nil
}
