package tmpsi

import (
	"fmt"
	"strings"
)

// Mode selects the membership rule of a round.
type Mode int

const (
	// ModeStrict keeps reference elements held by every contributor.
	ModeStrict Mode = iota
	// ModeThreshold keeps reference elements held by at least threshold
	// contributors.
	ModeThreshold
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeThreshold:
		return "threshold"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode returns the Mode named s, ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return ModeStrict, nil
	case "threshold":
		return ModeThreshold, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// ThresholdFor returns the default threshold for t parties, ⌊4t/5⌋.
func ThresholdFor(t int) int {
	return 4 * t / 5
}
