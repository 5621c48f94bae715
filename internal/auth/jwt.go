// Package auth covers identity: email verification codes, JWT issuance and
// the HTTP middleware that guards user and admin routes.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperr "github.com/hilo-match/hilo/internal/errors"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// TokenPair is what a successful verification or refresh hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// JWT issues and verifies HS256 tokens. The typ claim separates access from
// refresh tokens so a refresh token can never authorize an API call.
type JWT struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWT(secret string, accessTTL, refreshTTL time.Duration) *JWT {
	return &JWT{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Issue mints a fresh access/refresh pair for the user.
func (j *JWT) Issue(userID string) (TokenPair, error) {
	access, err := j.sign(userID, TypeAccess, j.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := j.sign(userID, TypeRefresh, j.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (j *JWT) Refresh(refreshToken string) (TokenPair, error) {
	userID, err := j.Verify(refreshToken, TypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return j.Issue(userID)
}

func (j *JWT) sign(userID, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"typ": typ,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Verify checks signature, expiry and token type, returning the subject
// user ID.
func (j *JWT) Verify(token, wantTyp string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", apperr.Validation("invalid or expired token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperr.Validation("invalid token claims")
	}
	if typ, _ := claims["typ"].(string); typ != wantTyp {
		return "", apperr.Validation("wrong token type")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", apperr.Validation("token missing subject")
	}
	return sub, nil
}
