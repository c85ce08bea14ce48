// Package token mints and verifies the signed session tokens carried by the
// session cookie or an Authorization bearer header.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the validity of an issued token.
const DefaultTTL = 7 * 24 * time.Hour

const issuer = "teampulse"

// ErrInvalidToken is returned for every verification failure. Malformed,
// expired and badly signed tokens all map to it.
var ErrInvalidToken = errors.New("invalid token")

// Subject identifies who a token is issued to.
type Subject struct {
	UserID           int64
	Role             string
	AuthType         string
	ExternalUsername string
}

type Claims struct {
	UserID           int64  `json:"uid"`
	Role             string `json:"role"`
	AuthType         string `json:"authType"`
	ExternalUsername string `json:"externalUsername,omitempty"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for the subject and returns it with its expiry.
func (i *Issuer) Issue(sub Subject) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		UserID:           sub.UserID,
		Role:             sub.Role,
		AuthType:         sub.AuthType,
		ExternalUsername: sub.ExternalUsername,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(sub.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	tok, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
