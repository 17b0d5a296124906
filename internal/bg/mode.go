package bg

import (
	"errors"
	"fmt"
)

// SolidColor is the mode argument that selects a color source instead
// of an image. It is not a Mode because no placement is involved.
const SolidColor = "solid_color"

var ErrUnknownMode = errors.New("unsupported scaling mode")

// Mode is the policy used to map an image onto an output.
type Mode int

const (
	ModeStretch Mode = iota
	ModeFill
	ModeFit
	ModeCenter
	ModeTile
	numModes
)

var modeNames = [...]string{
	ModeStretch: "stretch",
	ModeFill:    "fill",
	ModeFit:     "fit",
	ModeCenter:  "center",
	ModeTile:    "tile",
}

// ParseMode returns the Mode named by s. Matching is exact.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Modes returns every valid mode in declaration order.
func Modes() []Mode {
	modes := make([]Mode, numModes)
	for i := range modes {
		modes[i] = Mode(i)
	}
	return modes
}

func (m Mode) Valid() bool {
	return (m >= 0) && (m < numModes)
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}
