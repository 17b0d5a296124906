package wl

import (
	"slices"

	"deedles.dev/kawabg/internal/drm"
	"deedles.dev/kawabg/internal/wire"
)

const (
	shmCreatePool   = 0
	shmEventFormat  = 0
	poolCreateBuf   = 0
	poolDestroy     = 1
	bufferDestroy   = 0
	bufferEvRelease = 0
)

// Shm is the shared-memory global. It collects the pixel formats that
// the compositor advertises.
type Shm struct {
	Proxy

	formats []drm.Format
}

func (s *Shm) Interface() string {
	return "wl_shm"
}

// Formats returns the formats announced so far.
func (s *Shm) Formats() []drm.Format {
	return s.formats
}

// Supports reports whether f has been announced. ARGB8888 and
// XRGB8888 are always supported.
func (s *Shm) Supports(f drm.Format) bool {
	if f == drm.FormatARGB8888 || f == drm.FormatXRGB8888 {
		return true
	}
	return slices.Contains(s.formats, f)
}

// CreatePool creates a pool backed by fd. The fd is duplicated by the
// compositor and may be closed afterwards.
func (s *Shm) CreatePool(fd int, size int32) *ShmPool {
	p := new(ShmPool)
	id := s.display.register(p, 1)
	s.send(s.request(shmCreatePool).PutNewID(id).PutFD(fd).PutInt(size))
	return p
}

func (s *Shm) dispatch(m *wire.Message) error {
	if m.Opcode != shmEventFormat {
		return unknownEvent(s, m)
	}

	f := m.Uint()
	if err := m.Err(); err != nil {
		return err
	}
	s.formats = append(s.formats, drm.FromShm(f))
	return nil
}

// ShmPool hands out buffers backed by a shared memory file.
type ShmPool struct {
	Proxy
}

func (p *ShmPool) Interface() string {
	return "wl_shm_pool"
}

func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format drm.Format) *Buffer {
	b := new(Buffer)
	id := p.display.register(b, 1)
	p.send(p.request(poolCreateBuf).
		PutNewID(id).
		PutInt(offset).
		PutInt(width).
		PutInt(height).
		PutInt(stride).
		PutUint(format.Shm()))
	return b
}

// Destroy destroys the pool. Buffers created from it stay valid.
func (p *ShmPool) Destroy() {
	p.send(p.request(poolDestroy))
	p.destroy()
}

func (p *ShmPool) dispatch(m *wire.Message) error {
	return unknownEvent(p, m)
}

// Buffer is content for a surface.
type Buffer struct {
	Proxy

	// Release is called when the compositor no longer reads from the
	// buffer.
	Release func()
}

func (b *Buffer) Interface() string {
	return "wl_buffer"
}

func (b *Buffer) Destroy() {
	b.send(b.request(bufferDestroy))
	b.destroy()
}

func (b *Buffer) dispatch(m *wire.Message) error {
	if m.Opcode != bufferEvRelease {
		return unknownEvent(b, m)
	}
	if b.Release != nil {
		b.Release()
	}
	return nil
}
