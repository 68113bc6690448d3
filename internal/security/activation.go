package security

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/models"
)

const (
	codeMin = 1000
	codeMax = 9999
)

type ticketClaims struct {
	User           models.PendingUser `json:"user"`
	ActivationCode string             `json:"activationCode"`
	jwt.RegisteredClaims
}

// Activator issues and redeems activation tickets: a signed, time-boxed
// envelope of the pending registration and a 4-digit code. Tickets are bearer
// tokens; nothing is persisted, so a ticket can be redeemed again until it
// expires. Account creation rejects the replay through the email check.
type Activator struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewActivator(secret string, ttl time.Duration) *Activator {
	return &Activator{secret: secret, ttl: ttl, now: time.Now}
}

func (a *Activator) CreateTicket(pending models.PendingUser) (token string, code string, err error) {
	code, err = ActivationCode()
	if err != nil {
		return "", "", err
	}

	now := a.now()
	claims := ticketClaims{
		User:           pending,
		ActivationCode: code,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.secret))
	if err != nil {
		return "", "", fmt.Errorf("sign activation ticket: %w", err)
	}
	return token, code, nil
}

// Redeem verifies the ticket before looking at the code, so a tampered or
// expired ticket never reveals whether a guessed code was right.
func (a *Activator) Redeem(token, code string) (models.PendingUser, error) {
	claims := &ticketClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, hmacKey(a.secret),
		jwt.WithTimeFunc(a.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.PendingUser{}, apperr.ErrExpiredTicket.Wrap(err)
		}
		return models.PendingUser{}, apperr.ErrInvalidTicket.Wrap(err)
	}
	if !parsed.Valid || claims.User.Email == "" {
		return models.PendingUser{}, apperr.ErrInvalidTicket
	}

	if subtle.ConstantTimeCompare([]byte(claims.ActivationCode), []byte(code)) != 1 {
		return models.PendingUser{}, apperr.ErrInvalidCode
	}
	return claims.User, nil
}

// ActivationCode draws a 4-digit code uniformly from [1000, 9999].
func ActivationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate activation code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}
