package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned for a well-formed token whose exp has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed covers every other verification failure.
	ErrTokenMalformed = errors.New("token malformed")
)

type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs access and refresh tokens with distinct keys and lifetimes.
type TokenIssuer struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	now func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (t *TokenIssuer) SignAccess(userID string) (string, error) {
	return SignToken(t.AccessSecret, userID, t.AccessTTL, t.now())
}

func (t *TokenIssuer) SignRefresh(userID string) (string, error) {
	return SignToken(t.RefreshSecret, userID, t.RefreshTTL, t.now())
}

func (t *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return VerifyToken(token, t.AccessSecret)
}

func (t *TokenIssuer) VerifyRefresh(token string) (*Claims, error) {
	return VerifyToken(token, t.RefreshSecret)
}

func SignToken(secret, userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature and expiry. Callers distinguish ErrTokenExpired
// from ErrTokenMalformed to pick the message shown to the user.
func VerifyToken(tokenStr, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, hmacKey(secret))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func hmacKey(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}
