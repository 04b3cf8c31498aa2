package botvac

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Operation is a command accepted by the transports.
type Operation string

const (
	OperationStart Operation = "start"
	OperationStop  Operation = "stop"
	OperationDock  Operation = "dock"
)

// ParseOperation accepts an operation name, ignoring case and surrounding
// space.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OperationStart, OperationStop, OperationDock:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q (want start, stop or dock)", s)
	}
}

// Operator is the robot-facing surface of *Sequencer.
type Operator interface {
	StartCleaning(ctx context.Context) error
	StopCleaning(ctx context.Context) error
	DockBotvac(ctx context.Context) error
	State(ctx context.Context) (DeviceState, error)
}

// Controller serializes operations from every transport onto one
// Operator and bounds each with an optional timeout.
type Controller struct {
	op      Operator
	timeout time.Duration

	mu      sync.Mutex
	lastMu  sync.RWMutex
	lastErr error
	lastOp  Operation
	lastAt  time.Time
}

func NewController(op Operator, timeout time.Duration) *Controller {
	return &Controller{op: op, timeout: timeout}
}

// Run executes op. Concurrent calls queue behind the running one.
func (c *Controller) Run(ctx context.Context, op Operation) error {
	var fn func(context.Context) error
	switch op {
	case OperationStart:
		fn = c.op.StartCleaning
	case OperationStop:
		fn = c.op.StopCleaning
	case OperationDock:
		fn = c.op.DockBotvac
	default:
		return fmt.Errorf("unknown operation %q", op)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	err := fn(ctx)
	c.record(op, err)
	return err
}

// State returns a fresh snapshot. It waits for any running operation.
func (c *Controller) State(ctx context.Context) (DeviceState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.op.State(ctx)
}

// LastResult reports the most recent operation and its error.
func (c *Controller) LastResult() (Operation, time.Time, error) {
	c.lastMu.RLock()
	defer c.lastMu.RUnlock()
	return c.lastOp, c.lastAt, c.lastErr
}

func (c *Controller) record(op Operation, err error) {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()
	c.lastOp = op
	c.lastAt = time.Now()
	c.lastErr = err
}

func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// StateView is the wire form of a DeviceState.
type StateView struct {
	Device     string   `json:"device"`
	State      int      `json:"state"`
	Action     int      `json:"action"`
	Charge     float64  `json:"charge"`
	IsCharging bool     `json:"is_charging"`
	IsDocked   bool     `json:"is_docked"`
	Available  []string `json:"available_commands"`
}

func NewStateView(s DeviceState) StateView {
	cmds := s.Available()
	available := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		available = append(available, string(cmd))
	}
	return StateView{
		Device:     s.Device,
		State:      s.State,
		Action:     s.Action,
		Charge:     s.Charge,
		IsCharging: s.IsCharging,
		IsDocked:   s.IsDocked,
		Available:  available,
	}
}
