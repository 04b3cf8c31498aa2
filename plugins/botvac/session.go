package botvac

import (
	"context"
	"errors"
	"sync"

	"github.com/apex/log"
	"golang.org/x/oauth2"
)

// Session is the result of a successful authorization.
type Session struct {
	token *oauth2.Token
}

// Authenticated reports whether the session carries a usable token.
func (s Session) Authenticated() bool {
	return s.token != nil && s.token.Valid()
}

// Token returns the access token for Client calls.
func (s Session) Token() *oauth2.Token {
	return s.token
}

// SessionManager authorizes against the cloud and caches the last session.
type SessionManager struct {
	client Client
	creds  Credentials
	logger log.Interface

	mu      sync.Mutex
	session Session
}

func NewSessionManager(client Client, creds Credentials, logger log.Interface) (*SessionManager, error) {
	if client == nil {
		return nil, errors.New("botvac client is required")
	}
	if !creds.Valid() {
		return nil, ErrEmptyIdentifier
	}
	return &SessionManager{
		client: client,
		creds:  creds,
		logger: loggerOrDiscard(logger),
	}, nil
}

// Authenticate performs exactly one Authorize call. Failures are not retried.
func (m *SessionManager) Authenticate(ctx context.Context) (Session, error) {
	m.logger.WithField("user", m.creds.Username()).Debug("run auth")

	token, err := m.client.Authorize(ctx, m.creds)
	observeRemote("authorize", err)
	if err == nil && (token == nil || token.AccessToken == "") {
		err = errors.New("empty access token")
	}
	if err != nil {
		m.logger.WithError(err).Warn("auth error")
		m.mu.Lock()
		m.session = Session{}
		m.mu.Unlock()
		sessionValid.Set(0)
		return Session{}, &AuthError{Err: err}
	}

	session := Session{token: token}
	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
	sessionValid.Set(1)
	m.logger.Debug("auth success")
	return session, nil
}

// Current returns the cached session, which may be unauthenticated.
func (m *SessionManager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}
