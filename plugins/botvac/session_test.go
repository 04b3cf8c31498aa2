package botvac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewCredentials(t *testing.T) {
	_, err := NewCredentials("", "secret")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)

	_, err = NewCredentials("   ", "secret")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)

	_, err = NewCredentials("user", "")
	assert.ErrorIs(t, err, ErrEmptySecret)

	creds, err := NewCredentials("user", "secret")
	require.NoError(t, err)
	assert.True(t, creds.Valid())
	assert.Equal(t, "user", creds.Username())
	assert.Equal(t, "secret", creds.Password())
	assert.NotContains(t, creds.String(), "secret")

	assert.False(t, Credentials{}.Valid())
}

func TestSessionManagerAuthenticateOncePerCall(t *testing.T) {
	client := &stubClient{}
	client.On("Authorize", mock.Anything, testCredentials()).Return(testToken, nil)

	mgr, err := NewSessionManager(client, testCredentials(), nil)
	require.NoError(t, err)
	assert.False(t, mgr.Current().Authenticated())

	for i := 0; i < 3; i++ {
		session, err := mgr.Authenticate(context.Background())
		require.NoError(t, err)
		assert.True(t, session.Authenticated())
		assert.Equal(t, "access-token", session.Token().AccessToken)
	}
	client.AssertNumberOfCalls(t, "Authorize", 3)
	assert.True(t, mgr.Current().Authenticated())
}

func TestSessionManagerFailureIsNotRetried(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	client := &stubClient{}
	client.On("Authorize", mock.Anything, mock.Anything).Return(testToken, nil).Once()
	client.On("Authorize", mock.Anything, mock.Anything).Return(nil, cause).Once()

	mgr, err := NewSessionManager(client, testCredentials(), nil)
	require.NoError(t, err)

	_, err = mgr.Authenticate(context.Background())
	require.NoError(t, err)

	_, err = mgr.Authenticate(context.Background())
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.ErrorIs(t, err, cause)
	assert.False(t, mgr.Current().Authenticated())
	client.AssertNumberOfCalls(t, "Authorize", 2)
}

func TestSessionManagerRejectsEmptyToken(t *testing.T) {
	client := &stubClient{}
	client.On("Authorize", mock.Anything, mock.Anything).Return(&oauth2.Token{}, nil)

	mgr, err := NewSessionManager(client, testCredentials(), nil)
	require.NoError(t, err)

	_, err = mgr.Authenticate(context.Background())
	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr))
}

func TestSessionExpiry(t *testing.T) {
	expired := Session{token: &oauth2.Token{AccessToken: "x", Expiry: time.Now().Add(-time.Hour)}}
	assert.False(t, expired.Authenticated())
	assert.False(t, Session{}.Authenticated())
}

func TestNewSessionManagerRequiresClient(t *testing.T) {
	_, err := NewSessionManager(nil, testCredentials(), nil)
	assert.Error(t, err)
}
