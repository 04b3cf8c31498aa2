package botvac

import "strings"

// Credentials identify the cloud account. The zero value is invalid; build
// one with NewCredentials.
type Credentials struct {
	username string
	password string
}

func NewCredentials(username, password string) (Credentials, error) {
	if strings.TrimSpace(username) == "" {
		return Credentials{}, ErrEmptyIdentifier
	}
	if password == "" {
		return Credentials{}, ErrEmptySecret
	}
	return Credentials{username: username, password: password}, nil
}

func (c Credentials) Username() string { return c.username }
func (c Credentials) Password() string { return c.password }

// Valid reports whether c was built by NewCredentials.
func (c Credentials) Valid() bool {
	return c.username != "" && c.password != ""
}

// String never reveals the password.
func (c Credentials) String() string {
	return c.username + ":***"
}
