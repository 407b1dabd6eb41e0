package token

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vnxcius/accounts-back/internal/database/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type JWTMaker struct {
	secretKey []byte
	now       func() time.Time
}

func NewJWTMaker(secretKey string) *JWTMaker {
	return &JWTMaker{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
}

func (maker *JWTMaker) CreateToken(user model.SafeUser, duration time.Duration) (string, *UserClaims, error) {
	claims, err := NewUserClaims(user, maker.now(), duration)
	if err != nil {
		slog.Error("Failed to create claims", "error", err)
		return "", nil, err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(maker.secretKey)
	if err != nil {
		slog.Error("Failed to create token", "error", err)
		return "", nil, err
	}
	return tokenStr, claims, nil
}

// VerifyToken returns ErrExpiredToken for a well-signed token past its exp
// and ErrInvalidToken for anything else that fails.
func (maker *JWTMaker) VerifyToken(tokenStr string) (*UserClaims, error) {
	claims := &UserClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return maker.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(maker.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		slog.Debug("Failed to parse token", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
