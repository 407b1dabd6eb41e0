package token

import (
	"errors"
	"time"

	"github.com/vnxcius/accounts-back/internal/database/model"
)

const (
	DefaultAccessTokenTTL  = 30 * time.Second
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// Issuer signs access and refresh tokens with disjoint secrets, so one kind
// never verifies as the other.
type Issuer struct {
	access     *JWTMaker
	refresh    *JWTMaker
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &Issuer{
		access:     NewJWTMaker(accessSecret),
		refresh:    NewJWTMaker(refreshSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (i *Issuer) IssueAccess(user model.SafeUser) (string, error) {
	tok, _, err := i.access.CreateToken(user, i.accessTTL)
	return tok, err
}

func (i *Issuer) IssueRefresh(user model.SafeUser) (string, error) {
	tok, _, err := i.refresh.CreateToken(user, i.refreshTTL)
	return tok, err
}

func (i *Issuer) VerifyAccess(tokenStr string) (*UserClaims, error) {
	return i.access.VerifyToken(tokenStr)
}

func (i *Issuer) VerifyRefresh(tokenStr string) (*UserClaims, error) {
	return i.refresh.VerifyToken(tokenStr)
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// SetClock replaces the time source of both makers.
func (i *Issuer) SetClock(now func() time.Time) {
	i.access.now = now
	i.refresh.now = now
}
