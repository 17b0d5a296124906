package wl

import "deedles.dev/kawabg/internal/wire"

const (
	compositorCreateSurface = 0
	compositorCreateRegion  = 1
)

const (
	surfaceDestroy         = 0
	surfaceAttach          = 1
	surfaceDamage          = 2
	surfaceSetInputRegion  = 5
	surfaceCommit          = 6
	surfaceSetBufferScale  = 8
	surfaceDamageBuffer    = 9
	surfaceEventEnter      = 0
	surfaceEventLeave      = 1
	surfaceEventPrefScale  = 2
	surfaceEventPrefTransf = 3
)

const (
	regionDestroy = 0
	regionAdd     = 1
)

// Compositor creates surfaces and regions.
type Compositor struct {
	Proxy
}

func (c *Compositor) Interface() string {
	return "wl_compositor"
}

func (c *Compositor) CreateSurface() *Surface {
	s := new(Surface)
	id := c.display.register(s, c.version)
	c.send(c.request(compositorCreateSurface).PutNewID(id))
	return s
}

func (c *Compositor) CreateRegion() *Region {
	r := new(Region)
	id := c.display.register(r, c.version)
	c.send(c.request(compositorCreateRegion).PutNewID(id))
	return r
}

func (c *Compositor) dispatch(m *wire.Message) error {
	return unknownEvent(c, m)
}

// Surface is a rectangular area that buffers can be attached to.
type Surface struct {
	Proxy

	Enter func(output uint32)
	Leave func(output uint32)
}

func (s *Surface) Interface() string {
	return "wl_surface"
}

func (s *Surface) Destroy() {
	s.send(s.request(surfaceDestroy))
	s.destroy()
}

// Attach sets buf as the surface's pending content. A nil buf
// detaches the current one.
func (s *Surface) Attach(buf *Buffer, x, y int32) {
	var id uint32
	if buf != nil {
		id = buf.id
	}
	s.send(s.request(surfaceAttach).PutObject(id).PutInt(x).PutInt(y))
}

// Damage marks an area in surface coordinates as changed.
func (s *Surface) Damage(x, y, width, height int32) {
	s.send(s.request(surfaceDamage).PutInt(x).PutInt(y).PutInt(width).PutInt(height))
}

// DamageBuffer marks an area in buffer coordinates as changed. It
// needs version 4.
func (s *Surface) DamageBuffer(x, y, width, height int32) {
	s.send(s.request(surfaceDamageBuffer).PutInt(x).PutInt(y).PutInt(width).PutInt(height))
}

// SetInputRegion sets the area that accepts input. A nil region means
// the whole surface.
func (s *Surface) SetInputRegion(r *Region) {
	var id uint32
	if r != nil {
		id = r.id
	}
	s.send(s.request(surfaceSetInputRegion).PutObject(id))
}

func (s *Surface) SetBufferScale(scale int32) {
	s.send(s.request(surfaceSetBufferScale).PutInt(scale))
}

func (s *Surface) Commit() {
	s.send(s.request(surfaceCommit))
}

func (s *Surface) dispatch(m *wire.Message) error {
	switch m.Opcode {
	case surfaceEventEnter:
		output := m.Object()
		if s.Enter != nil && m.Err() == nil {
			s.Enter(output)
		}
		return nil

	case surfaceEventLeave:
		output := m.Object()
		if s.Leave != nil && m.Err() == nil {
			s.Leave(output)
		}
		return nil

	case surfaceEventPrefScale, surfaceEventPrefTransf:
		m.Int()
		return nil

	default:
		return unknownEvent(s, m)
	}
}

// Region is a set of rectangles.
type Region struct {
	Proxy
}

func (r *Region) Interface() string {
	return "wl_region"
}

func (r *Region) Add(x, y, width, height int32) {
	r.send(r.request(regionAdd).PutInt(x).PutInt(y).PutInt(width).PutInt(height))
}

func (r *Region) Destroy() {
	r.send(r.request(regionDestroy))
	r.destroy()
}

func (r *Region) dispatch(m *wire.Message) error {
	return unknownEvent(r, m)
}
