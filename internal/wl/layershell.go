package wl

import "deedles.dev/kawabg/internal/wire"

// Layer is a zwlr_layer_shell_v1 layer.
type Layer uint32

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

// Anchor is a set of edges that a layer surface is attached to.
type Anchor uint32

const (
	AnchorTop Anchor = 1 << iota
	AnchorBottom
	AnchorLeft
	AnchorRight

	AnchorAll = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight
)

const (
	layerShellGetLayerSurface = 0
	layerShellDestroy         = 1

	layerSurfaceSetSize                  = 0
	layerSurfaceSetAnchor                = 1
	layerSurfaceSetExclusiveZone         = 2
	layerSurfaceSetKeyboardInteractivity = 4
	layerSurfaceAckConfigure             = 6
	layerSurfaceDestroy                  = 7

	layerSurfaceEventConfigure = 0
	layerSurfaceEventClosed    = 1
)

// LayerShell is the wlr layer shell global.
type LayerShell struct {
	Proxy
}

func (s *LayerShell) Interface() string {
	return "zwlr_layer_shell_v1"
}

// GetLayerSurface gives surface the layer surface role. A nil output
// lets the compositor choose.
func (s *LayerShell) GetLayerSurface(surface *Surface, output *Output, layer Layer, namespace string) *LayerSurface {
	ls := new(LayerSurface)
	id := s.display.register(ls, s.version)

	var oid uint32
	if output != nil {
		oid = output.id
	}
	s.send(s.request(layerShellGetLayerSurface).
		PutNewID(id).
		PutObject(surface.id).
		PutObject(oid).
		PutUint(uint32(layer)).
		PutString(namespace))
	return ls
}

func (s *LayerShell) Destroy() {
	if s.version >= 3 {
		s.send(s.request(layerShellDestroy))
	}
	s.destroy()
}

func (s *LayerShell) dispatch(m *wire.Message) error {
	return unknownEvent(s, m)
}

// LayerSurface is the role object of a layer shell surface.
type LayerSurface struct {
	Proxy

	// Configure is called with the size the compositor wants. The
	// serial must be acknowledged before the next commit.
	Configure func(serial, width, height uint32)

	// Closed is called when the surface will never be shown again.
	Closed func()
}

func (ls *LayerSurface) Interface() string {
	return "zwlr_layer_surface_v1"
}

func (ls *LayerSurface) SetSize(width, height uint32) {
	ls.send(ls.request(layerSurfaceSetSize).PutUint(width).PutUint(height))
}

func (ls *LayerSurface) SetAnchor(anchor Anchor) {
	ls.send(ls.request(layerSurfaceSetAnchor).PutUint(uint32(anchor)))
}

// SetExclusiveZone of -1 asks not to be moved for other surfaces'
// exclusive zones.
func (ls *LayerSurface) SetExclusiveZone(zone int32) {
	ls.send(ls.request(layerSurfaceSetExclusiveZone).PutInt(zone))
}

func (ls *LayerSurface) SetKeyboardInteractivity(mode uint32) {
	ls.send(ls.request(layerSurfaceSetKeyboardInteractivity).PutUint(mode))
}

func (ls *LayerSurface) AckConfigure(serial uint32) {
	ls.send(ls.request(layerSurfaceAckConfigure).PutUint(serial))
}

func (ls *LayerSurface) Destroy() {
	ls.send(ls.request(layerSurfaceDestroy))
	ls.destroy()
}

func (ls *LayerSurface) dispatch(m *wire.Message) error {
	switch m.Opcode {
	case layerSurfaceEventConfigure:
		serial, w, h := m.Uint(), m.Uint(), m.Uint()
		if err := m.Err(); err != nil {
			return err
		}
		if ls.Configure != nil {
			ls.Configure(serial, w, h)
		}
		return nil

	case layerSurfaceEventClosed:
		if ls.Closed != nil {
			ls.Closed()
		}
		return nil

	default:
		return unknownEvent(ls, m)
	}
}
