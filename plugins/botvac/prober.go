package botvac

import (
	"context"

	"github.com/apex/log"
)

// Prober reads a robot's state and interprets its capability flags.
type Prober struct {
	logger log.Interface
}

func NewProber(logger log.Interface) *Prober {
	return &Prober{logger: loggerOrDiscard(logger)}
}

// FetchState makes a single State call. Retrying is the caller's concern.
func (p *Prober) FetchState(ctx context.Context, robot Robot) (DeviceState, error) {
	name := robot.Name()
	raw, err := robot.State(ctx)
	observeRemote("get_state", err)
	if err != nil {
		p.logger.WithError(err).WithField("device", name).Warn("error when getting state")
		return DeviceState{}, &StateError{Device: name, Err: err}
	}
	if raw.AvailableCommands == nil {
		return DeviceState{}, &StateError{Device: name, Err: ErrMissingCommands}
	}

	state := newDeviceState(name, raw)
	p.logger.WithFields(log.Fields{
		"device":    name,
		"available": state.String(),
		"docked":    state.IsDocked,
		"charge":    state.Charge,
	}).Debug("state")
	return state, nil
}
