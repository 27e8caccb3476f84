package local

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/identity"
)

func TestSignUpAndSignIn(t *testing.T) {
	p := New([]byte("test-secret"))
	ctx := context.Background()

	s, err := p.SignUp(ctx, "arjun@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, s.UID)
	assert.Equal(t, "arjun@example.com", s.Email)

	require.NoError(t, p.SignOut(ctx))

	s2, err := p.SignIn(ctx, "arjun@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, s.UID, s2.UID)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	p := New([]byte("test-secret"))
	ctx := context.Background()

	_, err := p.SignUp(ctx, "arjun@example.com", "s3cret")
	require.NoError(t, err)

	_, err = p.SignUp(ctx, "arjun@example.com", "other")
	var pe *identity.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, identity.CodeEmailInUse, pe.Code)
	assert.Equal(t, "User already exists. Please Sign In.", identity.FriendlyMessage(err))
}

func TestSignIn_WrongPassword(t *testing.T) {
	p := New([]byte("test-secret"))
	ctx := context.Background()

	_, err := p.SignUp(ctx, "arjun@example.com", "s3cret")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "arjun@example.com", "wrong")
	var pe *identity.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, identity.CodeInvalidCredential, pe.Code)
}

func TestSignIn_ThrottledAfterRepeatedFailures(t *testing.T) {
	p := New([]byte("test-secret"))
	ctx := context.Background()

	_, err := p.SignUp(ctx, "arjun@example.com", "s3cret")
	require.NoError(t, err)

	for i := 0; i < maxFailedAttempts; i++ {
		_, err = p.SignIn(ctx, "arjun@example.com", "wrong")
		require.Error(t, err)
	}

	// The right password is rejected too once throttled.
	_, err = p.SignIn(ctx, "arjun@example.com", "s3cret")
	var pe *identity.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, identity.CodeTooManyRequests, pe.Code)
}

func TestSubscribe_ReplaysCurrentStateAndTracksChanges(t *testing.T) {
	p := New([]byte("test-secret"))
	ctx := context.Background()

	var got []*identity.Session
	unsub := p.Subscribe(func(s *identity.Session) {
		got = append(got, s)
	})
	defer unsub()

	// Immediate replay of the signed-out state.
	require.Len(t, got, 1)
	assert.Nil(t, got[0])

	_, err := p.SignUp(ctx, "arjun@example.com", "s3cret")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[1])
	assert.Equal(t, "arjun@example.com", got[1].Email)

	require.NoError(t, p.SignOut(ctx))
	require.Len(t, got, 3)
	assert.Nil(t, got[2])
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	p := New([]byte("test-secret"))
	ctx := context.Background()

	calls := 0
	unsub := p.Subscribe(func(*identity.Session) { calls++ })
	require.Equal(t, 1, calls)

	unsub()
	_, err := p.SignUp(ctx, "arjun@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestUpdateDisplayName(t *testing.T) {
	p := New([]byte("test-secret"))
	ctx := context.Background()

	err := p.UpdateDisplayName(ctx, "Arjun")
	var pe *identity.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, identity.CodeNoSession, pe.Code)

	_, err = p.SignUp(ctx, "arjun@example.com", "s3cret")
	require.NoError(t, err)
	require.NoError(t, p.UpdateDisplayName(ctx, "Arjun"))

	var last *identity.Session
	unsub := p.Subscribe(func(s *identity.Session) { last = s })
	defer unsub()
	require.NotNil(t, last)
	assert.Equal(t, "Arjun", last.DisplayName)
}

func TestToken_RoundTrip(t *testing.T) {
	p := New([]byte("test-secret"))
	ctx := context.Background()

	_, err := p.Token()
	assert.Error(t, err, "no session yet")

	s, err := p.SignUp(ctx, "arjun@example.com", "s3cret")
	require.NoError(t, err)
	require.NoError(t, p.UpdateDisplayName(ctx, "Arjun"))

	token, err := p.Token()
	require.NoError(t, err)

	claims, err := p.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, s.UID, claims.UID)
	assert.Equal(t, "arjun@example.com", claims.Email)
	assert.Equal(t, "Arjun", claims.DisplayName)

	// Tokens signed with another secret are rejected.
	other := New([]byte("other-secret"))
	_, err = other.VerifyToken(token)
	assert.Error(t, err)
}
