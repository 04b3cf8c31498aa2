package rate

import "time"

// Window represents a provider rate-limit bucket.
type Window int

const (
	Minute Window = iota
	Day
)

// Duration is the refill period of the window.
func (w Window) Duration() time.Duration {
	if w == Day {
		return 24 * time.Hour
	}
	return time.Minute
}

func (w Window) String() string {
	switch w {
	case Minute:
		return "minute"
	case Day:
		return "day"
	default:
		return "unknown"
	}
}

// Declaration defines a provider's call budget.
type Declaration struct {
	provider    string
	limits      map[Window]int
	budgetFloor map[Window]int
}

// Provider creates a new declaration for a provider.
func Provider(name string) Declaration {
	return Declaration{provider: name}
}

func (d Declaration) ProviderName() string {
	return d.provider
}

func (d Declaration) MaxRequestsPer(window Window, limit int) Declaration {
	limits := make(map[Window]int, len(d.limits)+1)
	for k, v := range d.limits {
		limits[k] = v
	}
	limits[window] = limit
	d.limits = limits
	return d
}

// BudgetFloor keeps floor calls in reserve; the guard refuses calls once
// only the floor remains.
func (d Declaration) BudgetFloor(window Window, floor int) Declaration {
	floors := make(map[Window]int, len(d.budgetFloor)+1)
	for k, v := range d.budgetFloor {
		floors[k] = v
	}
	floors[window] = floor
	d.budgetFloor = floors
	return d
}

func (d Declaration) Limits() map[Window]int {
	return d.limits
}

func (d Declaration) BudgetFloors() map[Window]int {
	return d.budgetFloor
}

func (d Declaration) HasLimits() bool {
	return len(d.limits) > 0
}
