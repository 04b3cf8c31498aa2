package botvac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
)

const (
	DefaultMaxDockAttempts = 50
	DefaultRedockAttempts  = 30
	DefaultPollInterval    = time.Second
)

// StopStrategy selects how StopCleaning waits for the robot to become
// dockable after pausing.
type StopStrategy string

const (
	// StopStrategyPoll polls the resolved robot's state directly.
	StopStrategyPoll StopStrategy = "poll"
	// StopStrategyRedock repeats the whole DockBotvac sequence, including
	// authentication and device resolution, on every attempt.
	StopStrategyRedock StopStrategy = "redock"
)

// SequencerConfig tunes the retry behaviour of StopCleaning.
type SequencerConfig struct {
	MaxDockAttempts int
	RedockAttempts  int
	PollInterval    time.Duration
	StopStrategy    StopStrategy
}

// DefaultSequencerConfig returns the standard polling configuration.
func DefaultSequencerConfig() SequencerConfig {
	return SequencerConfig{
		MaxDockAttempts: DefaultMaxDockAttempts,
		RedockAttempts:  DefaultRedockAttempts,
		PollInterval:    DefaultPollInterval,
		StopStrategy:    StopStrategyPoll,
	}
}

func (c SequencerConfig) withDefaults() SequencerConfig {
	if c.MaxDockAttempts <= 0 {
		c.MaxDockAttempts = DefaultMaxDockAttempts
	}
	if c.RedockAttempts <= 0 {
		c.RedockAttempts = DefaultRedockAttempts
	}
	if c.PollInterval < 0 {
		c.PollInterval = 0
	}
	if c.StopStrategy == "" {
		c.StopStrategy = StopStrategyPoll
	}
	return c
}

// Sequencer runs the multi-step robot operations. Operations against the
// same robot must be serialized by the caller.
type Sequencer struct {
	sessions *SessionManager
	resolver *Resolver
	prober   *Prober
	cfg      SequencerConfig
	logger   log.Interface
}

func NewSequencer(client Client, creds Credentials, cfg SequencerConfig, logger log.Interface) (*Sequencer, error) {
	logger = loggerOrDiscard(logger).WithField("module", "botvac")
	sessions, err := NewSessionManager(client, creds, logger)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	switch cfg.StopStrategy {
	case StopStrategyPoll, StopStrategyRedock:
	default:
		return nil, fmt.Errorf("unknown stop strategy %q", cfg.StopStrategy)
	}
	return &Sequencer{
		sessions: sessions,
		resolver: NewResolver(client, logger),
		prober:   NewProber(logger),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Sessions exposes the session manager, mainly for health reporting.
func (s *Sequencer) Sessions() *SessionManager {
	return s.sessions
}

// StartCleaning starts a new cycle, or resumes a paused one. Start is
// preferred when the robot allows both.
func (s *Sequencer) StartCleaning(ctx context.Context) (err error) {
	defer s.observe("start_cleaning", time.Now(), &err)
	s.logger.Info("startCleaning")

	robot, state, err := s.probe(ctx)
	if err != nil {
		return err
	}
	logger := s.logger.WithField("device", robot.Name())

	switch {
	case state.CanStart():
		if err := robot.StartCleaning(ctx, DefaultStartParams); err != nil {
			observeRemote("start_cleaning", err)
			return &CommandError{Device: robot.Name(), Command: CommandStart, Err: err}
		}
		observeRemote("start_cleaning", nil)
		logger.Info("will start cleaning")
		return nil
	case state.CanResume():
		if err := robot.ResumeCleaning(ctx); err != nil {
			observeRemote("resume_cleaning", err)
			return &CommandError{Device: robot.Name(), Command: CommandResume, Err: err}
		}
		observeRemote("resume_cleaning", nil)
		logger.Info("will resume cleaning")
		return nil
	default:
		logger.WithField("available", state.String()).Warn("cannot start or resume")
		return &CannotStartError{Device: robot.Name(), State: state}
	}
}

// StopCleaning pauses the robot and then sends it to base once it reports
// goToBase. A robot needs a while after pausing before it accepts the dock
// command, hence the bounded wait.
func (s *Sequencer) StopCleaning(ctx context.Context) (err error) {
	defer s.observe("stop_cleaning", time.Now(), &err)
	s.logger.Info("stopCleaning")

	robot, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	name := robot.Name()
	logger := s.logger.WithField("device", name)

	// The robot must be paused, not stopped, before it can be sent to base.
	logger.WithField("phase", PhasePausing).Debug("pausing")
	if err := robot.PauseCleaning(ctx); err != nil {
		observeRemote("pause_cleaning", err)
		logger.WithError(err).Warn("could not pause")
		return &PauseError{Device: name, Err: err}
	}
	observeRemote("pause_cleaning", nil)
	logger.Info("was paused")

	if s.cfg.StopStrategy == StopStrategyRedock {
		return s.redock(ctx, name, logger)
	}
	return s.pollDock(ctx, robot, logger)
}

// DockBotvac sends the robot to base if it currently allows it.
func (s *Sequencer) DockBotvac(ctx context.Context) (err error) {
	defer s.observe("dock", time.Now(), &err)
	s.logger.Info("dockBotvac")
	return s.dockOnce(ctx)
}

// State resolves the robot and returns a fresh capability snapshot.
func (s *Sequencer) State(ctx context.Context) (_ DeviceState, err error) {
	defer s.observe("state", time.Now(), &err)
	_, state, err := s.probe(ctx)
	return state, err
}

func (s *Sequencer) pollDock(ctx context.Context, robot Robot, logger log.Interface) error {
	name := robot.Name()
	maxAttempts := s.cfg.MaxDockAttempts
	logger = logger.WithField("phase", PhasePolling)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &CanceledError{Device: name, Phase: PhasePolling, Attempts: attempt - 1, Err: err}
		}

		state, err := s.prober.FetchState(ctx, robot)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return &CanceledError{Device: name, Phase: PhasePolling, Attempts: attempt, Err: ctxErr}
			}
			lastErr = err
			logger.WithError(err).WithField("attempt", attempt).Debug("dock attempt failed")
		case state.CanGoToBase():
			dockPollAttempts.Observe(float64(attempt))
			if err := s.sendToBase(ctx, robot); err != nil {
				return err
			}
			logger.WithFields(log.Fields{"attempt": attempt, "phase": PhaseDocked}).Info("will return to base")
			return nil
		default:
			logger.WithFields(log.Fields{
				"attempt":   attempt,
				"available": state.String(),
			}).Debug("cannot return to base yet")
		}

		if attempt < maxAttempts {
			if err := sleepContext(ctx, s.cfg.PollInterval); err != nil {
				return &CanceledError{Device: name, Phase: PhasePolling, Attempts: attempt, Err: err}
			}
		}
	}

	logger.WithField("phase", PhaseFailed).Warnf("could not dock after %d tries", maxAttempts)
	return &DockTimeoutError{Device: name, Attempts: maxAttempts, LastErr: lastErr}
}

// redock retries the full DockBotvac sequence.
func (s *Sequencer) redock(ctx context.Context, name string, logger log.Interface) error {
	maxAttempts := s.cfg.RedockAttempts
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &CanceledError{Device: name, Phase: PhasePolling, Attempts: attempt - 1, Err: err}
		}

		err := s.dockOnce(ctx)
		if err == nil {
			dockPollAttempts.Observe(float64(attempt))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &CanceledError{Device: name, Phase: PhasePolling, Attempts: attempt, Err: ctxErr}
		}
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return err
		}
		lastErr = err
		logger.WithError(err).WithField("attempt", attempt).Debug("dock attempt failed")

		if attempt < maxAttempts {
			if err := sleepContext(ctx, s.cfg.PollInterval); err != nil {
				return &CanceledError{Device: name, Phase: PhasePolling, Attempts: attempt, Err: err}
			}
		}
	}

	logger.WithField("phase", PhaseFailed).Warnf("could not dock after %d tries", maxAttempts)
	return &DockTimeoutError{Device: name, Attempts: maxAttempts, LastErr: lastErr}
}

func (s *Sequencer) dockOnce(ctx context.Context) error {
	robot, state, err := s.probe(ctx)
	if err != nil {
		return err
	}
	logger := s.logger.WithField("device", robot.Name())
	if !state.CanGoToBase() {
		logger.WithField("available", state.String()).Info("cannot return to base")
		return &CannotReturnError{Device: robot.Name(), State: state}
	}
	if err := s.sendToBase(ctx, robot); err != nil {
		return err
	}
	logger.Info("will return to base")
	return nil
}

func (s *Sequencer) sendToBase(ctx context.Context, robot Robot) error {
	err := robot.SendToBase(ctx)
	observeRemote("send_to_base", err)
	if err != nil {
		return &CommandError{Device: robot.Name(), Command: CommandGoToBase, Err: err}
	}
	return nil
}

func (s *Sequencer) resolve(ctx context.Context) (Robot, error) {
	session, err := s.sessions.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolver.ResolveDevice(ctx, session)
}

func (s *Sequencer) probe(ctx context.Context) (Robot, DeviceState, error) {
	robot, err := s.resolve(ctx)
	if err != nil {
		return nil, DeviceState{}, err
	}
	state, err := s.prober.FetchState(ctx, robot)
	if err != nil {
		return nil, DeviceState{}, err
	}
	return robot, state, nil
}

func (s *Sequencer) observe(operation string, started time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	outcome := Outcome(err)
	operationsTotal.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"operation": operation,
			"outcome":   outcome,
		}).Warn("operation failed")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
