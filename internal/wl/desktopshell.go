package wl

import "deedles.dev/kawabg/internal/wire"

const (
	desktopShellSetBackground = 0

	desktopShellEventConfigure          = 0
	desktopShellEventPrepareLockSurface = 1
	desktopShellEventGrabCursor         = 2
)

// DesktopShell is weston's private desktop shell interface. Only the
// background part of it is implemented.
type DesktopShell struct {
	Proxy

	// Configure is called with the size that a surface should be.
	Configure func(edges uint32, surface uint32, width, height int32)
}

func (s *DesktopShell) Interface() string {
	return "desktop_shell"
}

// SetBackground makes surface the background of output.
func (s *DesktopShell) SetBackground(output *Output, surface *Surface) {
	s.send(s.request(desktopShellSetBackground).PutObject(output.id).PutObject(surface.id))
}

func (s *DesktopShell) dispatch(m *wire.Message) error {
	switch m.Opcode {
	case desktopShellEventConfigure:
		edges, surface := m.Uint(), m.Object()
		w, h := m.Int(), m.Int()
		if err := m.Err(); err != nil {
			return err
		}
		if s.Configure != nil {
			s.Configure(edges, surface, w, h)
		}
		return nil

	case desktopShellEventPrepareLockSurface, desktopShellEventGrabCursor:
		return nil

	default:
		return unknownEvent(s, m)
	}
}
