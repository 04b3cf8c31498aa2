package botvac

import (
	"context"
	"errors"
	"time"

	"github.com/joshp123/botvac/internal/rate"
	"golang.org/x/oauth2"
)

// Throttled is implemented by remote errors carrying a server-imposed
// retry delay.
type Throttled interface {
	RetryAfter() time.Duration
}

// WithRateGuard wraps client so that every cloud call, including calls on
// the robots it returns, spends budget from guard. Calls over budget fail
// with rate.RateLimitError without reaching the cloud. A Throttled failure
// puts the guard into cooldown for the requested delay.
func WithRateGuard(client Client, guard *rate.Guard) Client {
	if guard == nil {
		return client
	}
	return &guardedClient{next: client, guard: guard, now: time.Now}
}

type guardedClient struct {
	next  Client
	guard *rate.Guard
	now   func() time.Time
}

func (c *guardedClient) Authorize(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	if err := c.guard.Allow(c.now()); err != nil {
		return nil, err
	}
	token, err := c.next.Authorize(ctx, creds)
	return token, c.settle(err)
}

func (c *guardedClient) settle(err error) error {
	var throttled Throttled
	if errors.As(err, &throttled) {
		c.guard.Cooldown(c.now().Add(throttled.RetryAfter()))
	}
	return err
}

func (c *guardedClient) Robots(ctx context.Context, token *oauth2.Token) ([]Robot, error) {
	if err := c.guard.Allow(c.now()); err != nil {
		return nil, err
	}
	robots, err := c.next.Robots(ctx, token)
	if err != nil {
		return nil, c.settle(err)
	}
	out := make([]Robot, 0, len(robots))
	for _, robot := range robots {
		if robot == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, &guardedRobot{Robot: robot, client: c})
	}
	return out, nil
}

type guardedRobot struct {
	Robot
	client *guardedClient
}

func (r *guardedRobot) allow() error {
	return r.client.guard.Allow(r.client.now())
}

func (r *guardedRobot) State(ctx context.Context) (RobotState, error) {
	if err := r.allow(); err != nil {
		return RobotState{}, err
	}
	state, err := r.Robot.State(ctx)
	return state, r.client.settle(err)
}

func (r *guardedRobot) StartCleaning(ctx context.Context, params StartParams) error {
	if err := r.allow(); err != nil {
		return err
	}
	return r.client.settle(r.Robot.StartCleaning(ctx, params))
}

func (r *guardedRobot) ResumeCleaning(ctx context.Context) error {
	if err := r.allow(); err != nil {
		return err
	}
	return r.client.settle(r.Robot.ResumeCleaning(ctx))
}

func (r *guardedRobot) PauseCleaning(ctx context.Context) error {
	if err := r.allow(); err != nil {
		return err
	}
	return r.client.settle(r.Robot.PauseCleaning(ctx))
}

func (r *guardedRobot) SendToBase(ctx context.Context) error {
	if err := r.allow(); err != nil {
		return err
	}
	return r.client.settle(r.Robot.SendToBase(ctx))
}
