package kit

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const scrapeIssuer = "klife-metrics"

var ErrInvalidScrapeToken = errors.New("invalid scrape token")

// ScrapeTokens mints and verifies HS256 bearer tokens that authorize
// reads of /metrics.
type ScrapeTokens struct {
	secret []byte
	now    func() time.Time
}

func NewScrapeTokens(secret string) *ScrapeTokens {
	return &ScrapeTokens{secret: []byte(secret), now: time.Now}
}

func (t *ScrapeTokens) New(subject string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    scrapeIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *ScrapeTokens) Verify(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(scrapeIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || token == nil || !token.Valid {
		return "", ErrInvalidScrapeToken
	}
	return c.Subject, nil
}
