package botvac

import (
	"sort"
	"strings"
)

// Command names a capability flag reported by the robot.
type Command string

const (
	CommandStart    Command = "start"
	CommandStop     Command = "stop"
	CommandPause    Command = "pause"
	CommandResume   Command = "resume"
	CommandGoToBase Command = "goToBase"
)

// DeviceState is an immutable snapshot of what the robot currently allows.
// Fetch a new one to observe transitions.
type DeviceState struct {
	Device     string
	State      int
	Action     int
	Charge     float64
	IsCharging bool
	IsDocked   bool

	commands map[Command]bool
}

func newDeviceState(device string, raw RobotState) DeviceState {
	cmds := raw.AvailableCommands
	return DeviceState{
		Device:     device,
		State:      raw.State,
		Action:     raw.Action,
		Charge:     raw.Charge,
		IsCharging: raw.IsCharging,
		IsDocked:   raw.IsDocked,
		commands: map[Command]bool{
			CommandStart:    cmds.Start,
			CommandStop:     cmds.Stop,
			CommandPause:    cmds.Pause,
			CommandResume:   cmds.Resume,
			CommandGoToBase: cmds.GoToBase,
		},
	}
}

// Allows reports whether cmd is currently permitted.
func (s DeviceState) Allows(cmd Command) bool {
	return s.commands[cmd]
}

func (s DeviceState) CanStart() bool    { return s.Allows(CommandStart) }
func (s DeviceState) CanResume() bool   { return s.Allows(CommandResume) }
func (s DeviceState) CanPause() bool    { return s.Allows(CommandPause) }
func (s DeviceState) CanGoToBase() bool { return s.Allows(CommandGoToBase) }

// Available lists permitted commands in a stable order.
func (s DeviceState) Available() []Command {
	out := make([]Command, 0, len(s.commands))
	for cmd, ok := range s.commands {
		if ok {
			out = append(out, cmd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s DeviceState) String() string {
	cmds := s.Available()
	parts := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		parts = append(parts, string(cmd))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Phase is a step of the stop-and-dock sequence.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePausing Phase = "pausing"
	PhasePolling Phase = "polling"
	PhaseDocked  Phase = "docked"
	PhaseFailed  Phase = "failed"
)
