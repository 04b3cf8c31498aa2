// Package simbot is an in-memory botvac cloud used as the default remote
// and in integration tests.
package simbot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshp123/botvac/plugins/botvac"
	"golang.org/x/oauth2"
)

// Robot state and action codes as reported by the cloud.
const (
	StateIdle   = 1
	StateBusy   = 2
	StatePaused = 3

	ActionNone      = 0
	ActionCleaning  = 1
	ActionReturning = 4
)

const tokenLifetime = time.Hour

var (
	ErrBadCredentials = errors.New("simbot: invalid credentials")
	ErrBadToken       = errors.New("simbot: invalid or expired token")
	ErrNotAllowed     = errors.New("simbot: command not available")
)

// Config describes the simulated account.
type Config struct {
	Name   string
	Serial string
	// DockAfter is how many state reads a paused robot needs before it
	// reports goToBase.
	DockAfter int
	// ExtraRobots registers additional idle robots after the first.
	ExtraRobots int
	// Username and Password, when set, are the only accepted credentials.
	Username string
	Password string
}

// Account implements botvac.Client against in-memory robots.
type Account struct {
	cfg    Config
	now    func() time.Time
	mu     sync.Mutex
	tokens map[string]time.Time
	robots []*Robot
}

func New(cfg Config) *Account {
	if cfg.Name == "" {
		cfg.Name = "Botvac"
	}
	if cfg.Serial == "" {
		cfg.Serial = "SIM-0001"
	}
	if cfg.DockAfter < 0 {
		cfg.DockAfter = 0
	}

	a := &Account{cfg: cfg, now: time.Now, tokens: make(map[string]time.Time)}
	a.robots = append(a.robots, newRobot(cfg.Serial, cfg.Name, cfg.DockAfter))
	for i := 1; i <= cfg.ExtraRobots; i++ {
		a.robots = append(a.robots, newRobot(
			fmt.Sprintf("%s-%d", cfg.Serial, i),
			fmt.Sprintf("%s %d", cfg.Name, i+1),
			cfg.DockAfter,
		))
	}
	return a
}

func (a *Account) Authorize(ctx context.Context, creds botvac.Credentials) (*oauth2.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !creds.Valid() {
		return nil, ErrBadCredentials
	}
	if a.cfg.Username != "" && (creds.Username() != a.cfg.Username || creds.Password() != a.cfg.Password) {
		return nil, ErrBadCredentials
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	expiry := a.now().Add(tokenLifetime)
	access := uuid.NewString()
	a.tokens[access] = expiry
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer", Expiry: expiry}, nil
}

func (a *Account) Robots(ctx context.Context, token *oauth2.Token) ([]botvac.Robot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrBadToken
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	expiry, ok := a.tokens[token.AccessToken]
	if !ok || !a.now().Before(expiry) {
		return nil, ErrBadToken
	}
	out := make([]botvac.Robot, 0, len(a.robots))
	for _, r := range a.robots {
		out = append(out, r)
	}
	return out, nil
}

// Robot returns the i-th simulated robot.
func (a *Account) Robot(i int) *Robot {
	return a.robots[i]
}

type phase int

const (
	phaseDocked phase = iota
	phaseCleaning
	phasePaused
	phaseReturning
)

// Robot is a simulated device. It is safe for concurrent use.
type Robot struct {
	serial    string
	name      string
	dockAfter int

	mu          sync.Mutex
	phase       phase
	pausedReads int
	charge      float64
	lastParams  botvac.StartParams
}

func newRobot(serial, name string, dockAfter int) *Robot {
	return &Robot{serial: serial, name: name, dockAfter: dockAfter, charge: 100}
}

func (r *Robot) Serial() string { return r.serial }
func (r *Robot) Name() string   { return r.name }

// State reports the current state. Each read advances the simulation: a
// paused robot counts towards dock readiness and a returning robot docks.
func (r *Robot) State(ctx context.Context) (botvac.RobotState, error) {
	if err := ctx.Err(); err != nil {
		return botvac.RobotState{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.snapshotLocked()
	switch r.phase {
	case phasePaused:
		r.pausedReads++
	case phaseReturning:
		r.phase = phaseDocked
	case phaseCleaning:
		if r.charge > 1 {
			r.charge--
		}
	case phaseDocked:
		if r.charge < 100 {
			r.charge++
		}
	}
	return state, nil
}

func (r *Robot) snapshotLocked() botvac.RobotState {
	cmds := botvac.AvailableCommands{}
	state := botvac.RobotState{Charge: r.charge}
	switch r.phase {
	case phaseDocked:
		state.State = StateIdle
		state.IsDocked = true
		state.IsCharging = r.charge < 100
		cmds.Start = true
	case phaseCleaning:
		state.State = StateBusy
		state.Action = ActionCleaning
		cmds.Pause = true
		cmds.Stop = true
	case phasePaused:
		state.State = StatePaused
		state.Action = ActionCleaning
		cmds.Resume = true
		cmds.Stop = true
		cmds.GoToBase = r.pausedReads >= r.dockAfter
	case phaseReturning:
		state.State = StateBusy
		state.Action = ActionReturning
		cmds.Pause = true
	}
	state.AvailableCommands = &cmds
	return state
}

func (r *Robot) StartCleaning(ctx context.Context, params botvac.StartParams) error {
	return r.transition(ctx, func(s botvac.AvailableCommands) bool { return s.Start }, func() {
		r.phase = phaseCleaning
		r.lastParams = params
	})
}

func (r *Robot) ResumeCleaning(ctx context.Context) error {
	return r.transition(ctx, func(s botvac.AvailableCommands) bool { return s.Resume }, func() {
		r.phase = phaseCleaning
	})
}

// PauseCleaning pauses a cleaning robot. Pausing an already paused robot
// is accepted and restarts the dock readiness countdown.
func (r *Robot) PauseCleaning(ctx context.Context) error {
	return r.transition(ctx, func(s botvac.AvailableCommands) bool { return s.Pause || s.Resume }, func() {
		r.phase = phasePaused
		r.pausedReads = 0
	})
}

func (r *Robot) SendToBase(ctx context.Context) error {
	return r.transition(ctx, func(s botvac.AvailableCommands) bool { return s.GoToBase }, func() {
		r.phase = phaseReturning
	})
}

// LastStartParams returns the parameters of the most recent start.
func (r *Robot) LastStartParams() botvac.StartParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastParams
}

// Docked reports whether the robot is on its base.
func (r *Robot) Docked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase == phaseDocked
}

func (r *Robot) transition(ctx context.Context, allowed func(botvac.AvailableCommands) bool, apply func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !allowed(*r.snapshotLocked().AvailableCommands) {
		return ErrNotAllowed
	}
	apply()
	return nil
}
