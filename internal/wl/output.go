package wl

import (
	"deedles.dev/kawabg/internal/wire"
)

const (
	outputRelease = 0

	outputEventGeometry    = 0
	outputEventMode        = 1
	outputEventDone        = 2
	outputEventScale       = 3
	outputEventName        = 4
	outputEventDescription = 5

	// ModeCurrent marks the output's current mode.
	ModeCurrent = 0x1
)

// OutputInfo is what an output has told us about itself.
type OutputInfo struct {
	X, Y           int32
	PhysicalWidth  int32
	PhysicalHeight int32
	Make, Model    string
	Transform      int32

	// Width and Height are the size of the current mode in pixels.
	Width, Height int32
	Refresh       int32

	Scale       int32
	Name        string
	Description string
}

// Output is a display attached to the compositor.
type Output struct {
	Proxy

	info    OutputInfo
	pending OutputInfo
	done    bool

	// Done is called once a batch of property changes has been
	// applied.
	Done func()
}

func (o *Output) Interface() string {
	return "wl_output"
}

// Info returns the output's properties as of the last done event.
// Compositors that predate done have their events applied
// immediately.
func (o *Output) Info() OutputInfo {
	return o.info
}

// Ready reports whether at least one done event has been received.
func (o *Output) Ready() bool {
	return o.done
}

func (o *Output) Release() {
	if o.version >= 3 {
		o.send(o.request(outputRelease))
	}
	o.destroy()
}

func (o *Output) dispatch(m *wire.Message) error {
	if o.pending.Scale == 0 {
		o.pending.Scale = 1
	}

	switch m.Opcode {
	case outputEventGeometry:
		o.pending.X = m.Int()
		o.pending.Y = m.Int()
		o.pending.PhysicalWidth = m.Int()
		o.pending.PhysicalHeight = m.Int()
		m.Int() // subpixel
		o.pending.Make = m.Str()
		o.pending.Model = m.Str()
		o.pending.Transform = m.Int()

	case outputEventMode:
		flags := m.Uint()
		w, h, refresh := m.Int(), m.Int(), m.Int()
		if flags&ModeCurrent != 0 {
			o.pending.Width, o.pending.Height = w, h
			o.pending.Refresh = refresh
		}

	case outputEventDone:
		o.info = o.pending
		o.done = true
		if o.Done != nil {
			o.Done()
		}
		return nil

	case outputEventScale:
		o.pending.Scale = m.Int()

	case outputEventName:
		o.pending.Name = m.Str()

	case outputEventDescription:
		o.pending.Description = m.Str()

	default:
		return unknownEvent(o, m)
	}

	if o.version < 2 {
		o.info = o.pending
	}
	return nil
}
