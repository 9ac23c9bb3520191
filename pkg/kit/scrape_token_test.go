package kit

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestScrapeTokens_RoundTrip(t *testing.T) {
	tokens := NewScrapeTokens(testSecret)

	tok, err := tokens.New("prometheus", time.Hour)
	require.NoError(t, err)

	sub, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "prometheus", sub)
}

func TestScrapeTokens_Rejects(t *testing.T) {
	tokens := NewScrapeTokens(testSecret)

	other, err := NewScrapeTokens("another-secret-another-secret-xx").New("p", time.Hour)
	require.NoError(t, err)

	expired := NewScrapeTokens(testSecret)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.New("p", time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: scrapeIssuer,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"wrong secret": other,
		"expired":      old,
		"wrong issuer": wrongIssuer,
		"no expiry":    noExpiry,
		"garbage":      "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidScrapeToken)
		})
	}
}
