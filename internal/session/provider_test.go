package session

import (
	"testing"
	"time"

	"book_story_service/pkg/logger"
	"book_story_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	logger.SetNewNop()
	p := NewProvider()

	_, ok := p.CurrentIdentity()
	assert.False(t, ok)

	var seen []string
	cancel := p.OnIdentityChange(func(id Identity, ok bool) {
		if ok {
			seen = append(seen, id.Email)
		} else {
			seen = append(seen, "<signed out>")
		}
	})

	tok, err := token.GenerateJWT("m-1", "alice@x.com", string(token.RoleMember), "test")
	require.NoError(t, err)

	id, err := p.SignIn(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", id.Email)
	assert.Equal(t, "m-1", id.MemberID)
	assert.False(t, id.ExpiresAt.IsZero())
	assert.Equal(t, tok, p.Token())

	_, err = p.Refresh(tok)
	require.NoError(t, err)

	p.SignOut()
	p.SignOut()
	assert.Empty(t, p.Token())

	cancel()
	cancel()
	_, err = p.SignIn(tok)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@x.com", "alice@x.com", "<signed out>"}, seen)
}

func TestProvider_InvalidToken(t *testing.T) {
	p := NewProvider()
	_, err := p.SignIn("garbage")
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	noEmail, err := token.GenerateJWT("m-1", "", "member", "test")
	require.NoError(t, err)
	_, err = p.SignIn(noEmail)
	assert.ErrorIs(t, err, ErrNoEmail)

	_, ok := p.CurrentIdentity()
	assert.False(t, ok)
}

func TestProvider_SignInWithServerSignedToken(t *testing.T) {
	logger.SetNewNop()
	old := token.JWTSecret
	token.JWTSecret = []byte("member-service-secret")
	tok, err := token.GenerateJWT("m-2", "bob@y.com", string(token.RoleMember), "member_service")
	token.JWTSecret = old
	require.NoError(t, err)

	p := NewProvider()
	id, err := p.SignIn(tok)
	require.NoError(t, err)
	assert.Equal(t, "bob@y.com", id.Email)
	assert.Equal(t, "m-2", id.MemberID)
}

func TestProvider_RejectsExpiredToken(t *testing.T) {
	old := token.TokenExpiration
	token.TokenExpiration = -time.Minute
	tok, err := token.GenerateJWT("m-1", "alice@x.com", string(token.RoleMember), "test")
	token.TokenExpiration = old
	require.NoError(t, err)

	p := NewProvider()
	_, err = p.SignIn(tok)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
	_, ok := p.CurrentIdentity()
	assert.False(t, ok)
}
