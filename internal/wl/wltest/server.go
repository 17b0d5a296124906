// Package wltest provides an in-process fake compositor for testing
// Wayland clients.
package wltest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	"deedles.dev/kawabg/internal/wire"
)

// Output describes an output that the fake compositor advertises.
type Output struct {
	Name          string
	Width, Height int32
	Scale         int32
}

// Config selects which globals the fake compositor advertises.
type Config struct {
	Outputs []Output

	LayerShell   bool
	DesktopShell bool

	NoCompositor bool
	NoShm        bool

	// CompositorVersion defaults to 4.
	CompositorVersion uint32
	// OutputVersion defaults to 4.
	OutputVersion uint32

	// Formats are extra wl_shm formats to announce.
	Formats []uint32
}

// Frame is the content of a surface at the time that it was committed
// with a buffer attached.
type Frame struct {
	Surface       uint32
	Width, Height int32
	Stride        int32
	Format        uint32
	Scale         int32
	Pix           []byte
}

// LayerSurface records what a client asked of a layer surface.
type LayerSurface struct {
	ID            uint32
	Surface       uint32
	Output        uint32
	Layer         uint32
	Namespace     string
	Width, Height uint32
	Anchor        uint32
	ExclusiveZone int32
	Keyboard      uint32
	Acked         []uint32
}

type global struct {
	iface   string
	version uint32
	output  int
}

type surface struct {
	buffer     uint32
	scale      int32
	role       uint32
	configured bool
	input      *uint32
}

type pool struct {
	file *os.File
}

type buffer struct {
	pool                          *pool
	offset, width, height, stride int32
	format                        uint32
}

// Server is a fake compositor serving a single client.
type Server struct {
	conn *wire.Conn
	cfg  Config

	m        sync.Mutex
	globals  []global
	objects  map[uint32]string
	versions map[uint32]uint32
	outputs  map[uint32]int
	surfaces map[uint32]*surface
	pools    map[uint32]*pool
	buffers  map[uint32]*buffer
	layers   map[uint32]*LayerSurface
	files    []*os.File
	requests []string
	serial   uint32
	err      error

	frames chan Frame
	done   chan struct{}
}

// Start starts a fake compositor and returns it along with the
// client's end of the connection.
func Start(cfg Config) (*Server, *wire.Conn, error) {
	client, conn, err := wire.Pipe()
	if err != nil {
		return nil, nil, err
	}

	s := Server{
		conn:     conn,
		cfg:      cfg,
		objects:  map[uint32]string{1: "wl_display"},
		versions: map[uint32]uint32{1: 1},
		outputs:  make(map[uint32]int),
		surfaces: make(map[uint32]*surface),
		pools:    make(map[uint32]*pool),
		buffers:  make(map[uint32]*buffer),
		layers:   make(map[uint32]*LayerSurface),
		frames:   make(chan Frame, 16),
		done:     make(chan struct{}),
	}
	s.initGlobals()

	go s.serve()
	return &s, client, nil
}

func (s *Server) initGlobals() {
	cv := s.cfg.CompositorVersion
	if cv == 0 {
		cv = 4
	}
	ov := s.cfg.OutputVersion
	if ov == 0 {
		ov = 4
	}

	if !s.cfg.NoCompositor {
		s.globals = append(s.globals, global{iface: "wl_compositor", version: cv})
	}
	if !s.cfg.NoShm {
		s.globals = append(s.globals, global{iface: "wl_shm", version: 1})
	}
	for i := range s.cfg.Outputs {
		s.globals = append(s.globals, global{iface: "wl_output", version: ov, output: i})
	}
	if s.cfg.LayerShell {
		s.globals = append(s.globals, global{iface: "zwlr_layer_shell_v1", version: 4})
	}
	if s.cfg.DesktopShell {
		s.globals = append(s.globals, global{iface: "desktop_shell", version: 1})
	}
}

// Close disconnects the client and waits for the server to stop.
func (s *Server) Close() error {
	s.conn.Close()
	return s.Wait()
}

// Wait waits for the client to hang up and for every request that it
// sent before doing so to be handled. It returns the first error that
// the server ran into, if any.
func (s *Server) Wait() error {
	<-s.done

	s.m.Lock()
	defer s.m.Unlock()

	for _, f := range s.files {
		f.Close()
	}
	s.files = nil
	return s.err
}

// Frames returns a channel that receives every committed frame.
func (s *Server) Frames() <-chan Frame {
	return s.frames
}

// Requests returns the names of every request received so far, such
// as "wl_surface.commit".
func (s *Server) Requests() []string {
	s.m.Lock()
	defer s.m.Unlock()

	return append([]string(nil), s.requests...)
}

// LayerSurfaces returns a snapshot of every layer surface created.
func (s *Server) LayerSurfaces() []LayerSurface {
	s.m.Lock()
	defer s.m.Unlock()

	var r []LayerSurface
	for _, ls := range s.layers {
		c := *ls
		c.Acked = append([]uint32(nil), ls.Acked...)
		r = append(r, c)
	}
	return r
}

// Live reports how many objects of the given interface have not been
// destroyed.
func (s *Server) Live(iface string) int {
	s.m.Lock()
	defer s.m.Unlock()

	var n int
	for _, i := range s.objects {
		if i == iface {
			n++
		}
	}
	return n
}

// PostError sends a protocol error about the given object.
func (s *Server) PostError(object, code uint32, msg string) error {
	return s.conn.WriteMessage(wire.NewMessage(1, 0).PutObject(object).PutUint(code).PutString(msg))
}

// CloseLayerSurfaces tells the client that every layer surface has
// been closed.
func (s *Server) CloseLayerSurfaces() error {
	s.m.Lock()
	ids := make([]uint32, 0, len(s.layers))
	for id := range s.layers {
		ids = append(ids, id)
	}
	s.m.Unlock()

	for _, id := range ids {
		err := s.conn.WriteMessage(wire.NewMessage(id, 1))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) serve() {
	defer close(s.done)
	defer close(s.frames)

	for {
		m, err := s.conn.ReadMessage()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.fail(err)
			}
			return
		}

		err = s.handle(m)
		if err == nil {
			err = m.Err()
		}
		if err != nil {
			s.fail(err)
			return
		}
	}
}

func (s *Server) fail(err error) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.err == nil {
		s.err = err
	}
}

// send writes m to the client. A client that has already hung up is
// not an error.
func (s *Server) send(m *wire.Message) error {
	return ignoreHangup(s.conn.WriteMessage(m))
}

func (s *Server) flush() error {
	return ignoreHangup(s.conn.Flush())
}

func ignoreHangup(err error) error {
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return nil
	}
	return err
}

func (s *Server) deleteID(id uint32) error {
	s.m.Lock()
	delete(s.objects, id)
	s.m.Unlock()

	return s.send(wire.NewMessage(1, 1).PutUint(id))
}

func (s *Server) handle(m *wire.Message) error {
	s.m.Lock()
	iface, ok := s.objects[m.Sender]
	s.m.Unlock()
	if !ok {
		return fmt.Errorf("request %v for unknown object", m)
	}

	h, ok := handlers[iface]
	if !ok {
		return fmt.Errorf("no handler for %v", iface)
	}
	name, err := h(s, m)

	s.m.Lock()
	s.requests = append(s.requests, iface+"."+name)
	s.m.Unlock()

	return err
}

func (s *Server) create(id uint32, iface string, version uint32) {
	s.m.Lock()
	defer s.m.Unlock()

	s.objects[id] = iface
	s.versions[id] = version
}

func (s *Server) version(id uint32) uint32 {
	s.m.Lock()
	defer s.m.Unlock()

	return s.versions[id]
}

func (s *Server) nextSerial() uint32 {
	s.m.Lock()
	defer s.m.Unlock()

	s.serial++
	return s.serial
}
