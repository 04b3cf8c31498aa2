package botvac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStartCleaningPrefersStart(t *testing.T) {
	for _, resume := range []bool{false, true} {
		robot := newStubRobot("kitchen")
		robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Start: true, Resume: resume}), nil).Once()
		robot.On("StartCleaning", mock.Anything, DefaultStartParams).Return(nil).Once()

		seq := newTestSequencer(newStubAccount(robot), fastConfig())
		require.NoError(t, seq.StartCleaning(context.Background()))

		robot.AssertExpectations(t)
		robot.AssertNotCalled(t, "ResumeCleaning", mock.Anything)
	}
}

func TestStartCleaningResumesWhenStartUnavailable(t *testing.T) {
	robot := newStubRobot("kitchen")
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Resume: true, GoToBase: true}), nil).Once()
	robot.On("ResumeCleaning", mock.Anything).Return(nil).Once()

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	require.NoError(t, seq.StartCleaning(context.Background()))

	robot.AssertExpectations(t)
	robot.AssertNotCalled(t, "StartCleaning", mock.Anything, mock.Anything)
}

func TestStartCleaningCannotStart(t *testing.T) {
	robot := newStubRobot("kitchen")
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Pause: true, Stop: true}), nil).Once()

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	err := seq.StartCleaning(context.Background())

	var startErr *CannotStartError
	require.True(t, errors.As(err, &startErr), "got %v", err)
	assert.Equal(t, "kitchen", startErr.Device)
	assert.Equal(t, "kitchen cannot start or resume", err.Error())
	robot.AssertNotCalled(t, "StartCleaning", mock.Anything, mock.Anything)
	robot.AssertNotCalled(t, "ResumeCleaning", mock.Anything)
}

func TestStartCleaningCommandFailure(t *testing.T) {
	robot := newStubRobot("kitchen")
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Start: true}), nil).Once()
	robot.On("StartCleaning", mock.Anything, DefaultStartParams).Return(errors.New("robot busy")).Once()

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	err := seq.StartCleaning(context.Background())

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, CommandStart, cmdErr.Command)
	assert.Equal(t, "command_error", Outcome(err))
}

func TestStartCleaningStateWithoutCommands(t *testing.T) {
	robot := newStubRobot("kitchen")
	robot.On("State", mock.Anything).Return(RobotState{}, nil).Once()

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	err := seq.StartCleaning(context.Background())

	var stateErr *StateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, "kitchen", stateErr.Device)
	assert.ErrorIs(t, err, ErrMissingCommands)
}

func TestOperationsFailOnAuth(t *testing.T) {
	client := &stubClient{}
	client.On("Authorize", mock.Anything, mock.Anything).Return(nil, errors.New("401 unauthorized"))

	seq := newTestSequencer(client, fastConfig())
	ops := map[string]func(context.Context) error{
		"start": seq.StartCleaning,
		"stop":  seq.StopCleaning,
		"dock":  seq.DockBotvac,
	}
	for name, op := range ops {
		err := op(context.Background())
		var authErr *AuthError
		assert.True(t, errors.As(err, &authErr), "%s: got %v", name, err)
	}
	client.AssertNotCalled(t, "Robots", mock.Anything, mock.Anything)
	assert.False(t, seq.Sessions().Current().Authenticated())
}

func TestStopCleaningDocksAfterKAttempts(t *testing.T) {
	for _, k := range []int{1, 2, 17, DefaultMaxDockAttempts} {
		robot := newStubRobot("hall")
		robot.On("PauseCleaning", mock.Anything).Return(nil).Once()
		for i := 1; i < k; i++ {
			robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Resume: true}), nil).Once()
		}
		robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Resume: true, GoToBase: true}), nil).Once()
		robot.On("SendToBase", mock.Anything).Return(nil).Once()

		seq := newTestSequencer(newStubAccount(robot), fastConfig())
		require.NoError(t, seq.StopCleaning(context.Background()), "k=%d", k)

		robot.AssertNumberOfCalls(t, "State", k)
		robot.AssertNumberOfCalls(t, "SendToBase", 1)
	}
}

func TestStopCleaningFetchFailuresCountAsAttempts(t *testing.T) {
	robot := newStubRobot("hall")
	robot.On("PauseCleaning", mock.Anything).Return(nil).Once()
	robot.On("State", mock.Anything).Return(RobotState{}, errors.New("timeout")).Twice()
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{GoToBase: true}), nil).Once()
	robot.On("SendToBase", mock.Anything).Return(nil).Once()

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	require.NoError(t, seq.StopCleaning(context.Background()))
	robot.AssertNumberOfCalls(t, "State", 3)
}

func TestStopCleaningTimesOut(t *testing.T) {
	robot := newStubRobot("hall")
	robot.On("PauseCleaning", mock.Anything).Return(nil).Once()
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Resume: true}), nil)

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	err := seq.StopCleaning(context.Background())

	var timeoutErr *DockTimeoutError
	require.True(t, errors.As(err, &timeoutErr), "got %v", err)
	assert.Equal(t, "hall", timeoutErr.Device)
	assert.Equal(t, DefaultMaxDockAttempts, timeoutErr.Attempts)
	robot.AssertNumberOfCalls(t, "State", DefaultMaxDockAttempts)
	robot.AssertNotCalled(t, "SendToBase", mock.Anything)
}

func TestStopCleaningTimeoutKeepsLastFetchError(t *testing.T) {
	fetchErr := errors.New("connection reset")
	robot := newStubRobot("hall")
	robot.On("PauseCleaning", mock.Anything).Return(nil).Once()
	robot.On("State", mock.Anything).Return(RobotState{}, fetchErr)

	cfg := fastConfig()
	cfg.MaxDockAttempts = 3
	seq := newTestSequencer(newStubAccount(robot), cfg)
	err := seq.StopCleaning(context.Background())

	var timeoutErr *DockTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.ErrorIs(t, err, fetchErr)
	robot.AssertNumberOfCalls(t, "State", 3)
}

func TestStopCleaningPauseFailureShortCircuits(t *testing.T) {
	robot := newStubRobot("hall")
	robot.On("PauseCleaning", mock.Anything).Return(errors.New("not cleaning")).Once()

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	err := seq.StopCleaning(context.Background())

	var pauseErr *PauseError
	require.True(t, errors.As(err, &pauseErr))
	assert.Equal(t, "hall", pauseErr.Device)
	robot.AssertNotCalled(t, "State", mock.Anything)
	robot.AssertNotCalled(t, "SendToBase", mock.Anything)
}

func TestStopCleaningCancelMidPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	robot := newStubRobot("hall")
	robot.On("PauseCleaning", mock.Anything).Return(nil).Once()
	calls := 0
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Resume: true}), nil).Run(func(mock.Arguments) {
		calls++
		if calls == 3 {
			cancel()
		}
	})

	cfg := fastConfig()
	cfg.PollInterval = time.Millisecond
	seq := newTestSequencer(newStubAccount(robot), cfg)
	err := seq.StopCleaning(ctx)

	var canceledErr *CanceledError
	require.True(t, errors.As(err, &canceledErr), "got %v", err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, PhasePolling, canceledErr.Phase)
	assert.Equal(t, 3, canceledErr.Attempts)
	assert.Equal(t, "canceled", Outcome(err))

	var timeoutErr *DockTimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
	robot.AssertNumberOfCalls(t, "State", 3)
	robot.AssertNotCalled(t, "SendToBase", mock.Anything)
}

func TestStopCleaningDeadlineDuringInterval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	robot := newStubRobot("hall")
	robot.On("PauseCleaning", mock.Anything).Return(nil).Once()
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Resume: true}), nil)

	cfg := fastConfig()
	cfg.PollInterval = time.Hour
	seq := newTestSequencer(newStubAccount(robot), cfg)
	err := seq.StopCleaning(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	robot.AssertNumberOfCalls(t, "State", 1)
}

func TestStopCleaningRedockStrategy(t *testing.T) {
	robot := newStubRobot("hall")
	robot.On("PauseCleaning", mock.Anything).Return(nil).Once()
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Resume: true}), nil).Twice()
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{GoToBase: true}), nil).Once()
	robot.On("SendToBase", mock.Anything).Return(nil).Once()
	client := newStubAccount(robot)

	cfg := fastConfig()
	cfg.StopStrategy = StopStrategyRedock
	seq := newTestSequencer(client, cfg)
	require.NoError(t, seq.StopCleaning(context.Background()))

	// one authorization for the pause and one per dock attempt
	client.AssertNumberOfCalls(t, "Authorize", 4)
	robot.AssertNumberOfCalls(t, "SendToBase", 1)
}

func TestStopCleaningRedockTimesOut(t *testing.T) {
	robot := newStubRobot("hall")
	robot.On("PauseCleaning", mock.Anything).Return(nil).Once()
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{}), nil)

	cfg := fastConfig()
	cfg.StopStrategy = StopStrategyRedock
	seq := newTestSequencer(newStubAccount(robot), cfg)
	err := seq.StopCleaning(context.Background())

	var timeoutErr *DockTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, DefaultRedockAttempts, timeoutErr.Attempts)
	var returnErr *CannotReturnError
	assert.True(t, errors.As(err, &returnErr))
}

func TestDockBotvac(t *testing.T) {
	robot := newStubRobot("hall")
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{GoToBase: true}), nil).Once()
	robot.On("SendToBase", mock.Anything).Return(nil).Once()

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	require.NoError(t, seq.DockBotvac(context.Background()))
	robot.AssertExpectations(t)
}

func TestDockBotvacCannotReturn(t *testing.T) {
	robot := newStubRobot("hall")
	robot.On("State", mock.Anything).Return(stateWith(AvailableCommands{Pause: true}), nil).Once()

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	err := seq.DockBotvac(context.Background())

	var returnErr *CannotReturnError
	require.True(t, errors.As(err, &returnErr))
	assert.Equal(t, "hall cannot return to base", err.Error())
	robot.AssertNotCalled(t, "SendToBase", mock.Anything)
	robot.AssertNotCalled(t, "PauseCleaning", mock.Anything)
}

func TestStateSnapshot(t *testing.T) {
	robot := newStubRobot("hall")
	raw := stateWith(AvailableCommands{Start: true, GoToBase: true})
	raw.Charge = 87
	raw.IsDocked = true
	robot.On("State", mock.Anything).Return(raw, nil).Once()

	seq := newTestSequencer(newStubAccount(robot), fastConfig())
	state, err := seq.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hall", state.Device)
	assert.Equal(t, []Command{CommandGoToBase, CommandStart}, state.Available())
	assert.True(t, state.IsDocked)
	assert.Equal(t, 87.0, state.Charge)
}

func TestNewSequencerRejectsUnknownStrategy(t *testing.T) {
	cfg := fastConfig()
	cfg.StopStrategy = "teleport"
	_, err := NewSequencer(&stubClient{}, testCredentials(), cfg, nil)
	require.Error(t, err)
}

func TestNewSequencerRejectsZeroCredentials(t *testing.T) {
	_, err := NewSequencer(&stubClient{}, Credentials{}, fastConfig(), nil)
	require.ErrorIs(t, err, ErrEmptyIdentifier)
}
