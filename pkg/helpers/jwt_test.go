package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTGenerateAndParse(t *testing.T) {
	t.Parallel()

	m := &JWTManager{Secret: []byte("test-secret"), TTL: time.Hour}

	token, exp, err := m.Generate("user-123", "kai@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "kai@example.com", claims.Email)
}

func TestJWTParseWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := &JWTManager{Secret: []byte("secret-a"), TTL: time.Hour}
	verifier := &JWTManager{Secret: []byte("secret-b"), TTL: time.Hour}

	token, _, err := issuer.Generate("user-123", "kai@example.com")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTParseExpired(t *testing.T) {
	t.Parallel()

	m := &JWTManager{Secret: []byte("test-secret"), TTL: -time.Minute}

	token, _, err := m.Generate("user-123", "kai@example.com")
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTParseGarbage(t *testing.T) {
	t.Parallel()

	m := &JWTManager{Secret: []byte("test-secret"), TTL: time.Hour}

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}
