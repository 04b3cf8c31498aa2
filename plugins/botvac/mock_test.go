package botvac

import (
	"context"

	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"
)

// ---------------------------------------------------------------------------
// stubClient
// ---------------------------------------------------------------------------

type stubClient struct{ mock.Mock }

func (c *stubClient) Authorize(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	ret := c.Called(ctx, creds)
	var token *oauth2.Token
	if ret.Get(0) != nil {
		token = ret.Get(0).(*oauth2.Token)
	}
	return token, ret.Error(1)
}

func (c *stubClient) Robots(ctx context.Context, token *oauth2.Token) ([]Robot, error) {
	ret := c.Called(ctx, token)
	var robots []Robot
	if ret.Get(0) != nil {
		robots = ret.Get(0).([]Robot)
	}
	return robots, ret.Error(1)
}

// ---------------------------------------------------------------------------
// stubRobot
// ---------------------------------------------------------------------------

type stubRobot struct {
	mock.Mock
	serial string
	name   string
}

func (r *stubRobot) Serial() string { return r.serial }
func (r *stubRobot) Name() string   { return r.name }

func (r *stubRobot) State(ctx context.Context) (RobotState, error) {
	ret := r.Called(ctx)
	return ret.Get(0).(RobotState), ret.Error(1)
}

func (r *stubRobot) StartCleaning(ctx context.Context, params StartParams) error {
	return r.Called(ctx, params).Error(0)
}

func (r *stubRobot) ResumeCleaning(ctx context.Context) error {
	return r.Called(ctx).Error(0)
}

func (r *stubRobot) PauseCleaning(ctx context.Context) error {
	return r.Called(ctx).Error(0)
}

func (r *stubRobot) SendToBase(ctx context.Context) error {
	return r.Called(ctx).Error(0)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

var testToken = &oauth2.Token{AccessToken: "access-token", TokenType: "Bearer"}

func testCredentials() Credentials {
	creds, err := NewCredentials("user@example.com", "secret")
	if err != nil {
		panic(err)
	}
	return creds
}

func newStubRobot(name string) *stubRobot {
	return &stubRobot{serial: "serial-" + name, name: name}
}

// newStubAccount wires a client that authorizes and lists the given robots.
func newStubAccount(robots ...Robot) *stubClient {
	client := &stubClient{}
	client.On("Authorize", mock.Anything, mock.Anything).Return(testToken, nil)
	client.On("Robots", mock.Anything, testToken).Return(robots, nil)
	return client
}

func stateWith(cmds AvailableCommands) RobotState {
	return RobotState{AvailableCommands: &cmds}
}

func newTestSequencer(client Client, cfg SequencerConfig) *Sequencer {
	seq, err := NewSequencer(client, testCredentials(), cfg, nil)
	if err != nil {
		panic(err)
	}
	return seq
}

func fastConfig() SequencerConfig {
	cfg := DefaultSequencerConfig()
	cfg.PollInterval = 0
	return cfg
}
