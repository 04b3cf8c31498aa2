package botvac

import (
	"context"
	"errors"

	"github.com/apex/log"
)

// Resolver picks the robot every operation targets: the first one the
// cloud lists. Further robots on the account are not reachable.
type Resolver struct {
	client Client
	logger log.Interface
}

func NewResolver(client Client, logger log.Interface) *Resolver {
	return &Resolver{client: client, logger: loggerOrDiscard(logger)}
}

func (r *Resolver) ResolveDevice(ctx context.Context, session Session) (Robot, error) {
	if session.Token() == nil {
		return nil, &NoDeviceError{Err: errors.New("session is not authenticated")}
	}

	robots, err := r.client.Robots(ctx, session.Token())
	observeRemote("robots", err)
	if err != nil {
		r.logger.WithError(err).Warn("error getting robots")
		return nil, &NoDeviceError{Err: err}
	}
	if len(robots) == 0 || robots[0] == nil {
		r.logger.Warn("0 robots returned")
		return nil, &NoDeviceError{Err: ErrNoRobots}
	}

	robot := robots[0]
	r.logger.WithFields(log.Fields{
		"device": robot.Name(),
		"serial": robot.Serial(),
		"count":  len(robots),
	}).Debug("resolved robot")
	return robot, nil
}
