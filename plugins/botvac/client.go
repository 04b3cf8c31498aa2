package botvac

import (
	"context"

	"golang.org/x/oauth2"
)

// Client is the vendor cloud API the core drives. The transport behind it
// is supplied by the caller.
type Client interface {
	// Authorize exchanges credentials for an access token.
	Authorize(ctx context.Context, creds Credentials) (*oauth2.Token, error)
	// Robots lists the robots registered to the authorized account, in the
	// order the cloud returns them.
	Robots(ctx context.Context, token *oauth2.Token) ([]Robot, error)
}

// Robot is the handle for a single device returned by Client.Robots.
type Robot interface {
	Serial() string
	Name() string
	State(ctx context.Context) (RobotState, error)
	StartCleaning(ctx context.Context, params StartParams) error
	ResumeCleaning(ctx context.Context) error
	PauseCleaning(ctx context.Context) error
	SendToBase(ctx context.Context) error
}

// RobotState is the raw state payload as returned by the cloud.
// AvailableCommands is nil when the response omitted it.
type RobotState struct {
	State             int
	Action            int
	Charge            float64
	IsCharging        bool
	IsDocked          bool
	AvailableCommands *AvailableCommands
}

// AvailableCommands mirrors the availableCommands object of a state response.
type AvailableCommands struct {
	Start    bool `json:"start"`
	Stop     bool `json:"stop"`
	Pause    bool `json:"pause"`
	Resume   bool `json:"resume"`
	GoToBase bool `json:"goToBase"`
}

// StartParams are forwarded unchanged to Robot.StartCleaning.
type StartParams struct {
	EcoMode      bool
	PowerLevel   int
	NoRepeatRoom bool
}

// DefaultStartParams is what StartCleaning always sends.
var DefaultStartParams = StartParams{
	EcoMode:      false,
	PowerLevel:   2,
	NoRepeatRoom: false,
}
