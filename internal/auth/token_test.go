package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "test", time.Hour)

	token, claims, err := issuer.Issue("id-1")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "id-1", parsed.Subject)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestTokenIssuer_UniqueIDs(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "test", time.Hour)

	_, a, err := issuer.Issue("id-1")
	require.NoError(t, err)
	_, b, err := issuer.Issue("id-1")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "test", time.Hour)

	otherIssuer := NewTokenIssuer(testSecret, "someone-else", time.Hour)
	token, _, err := otherIssuer.Issue("id-1")
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "id-1",
		ID:        "x",
		Issuer:    "test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(unsigned)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = issuer.Parse("")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Len(t, code, codeDigits)
	}
}
