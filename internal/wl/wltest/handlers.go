package wltest

import (
	"fmt"
	"os"

	"deedles.dev/kawabg/internal/wire"
)

type handler func(*Server, *wire.Message) (string, error)

var handlers = map[string]handler{
	"wl_display":            (*Server).handleDisplay,
	"wl_registry":           (*Server).handleRegistry,
	"wl_compositor":         (*Server).handleCompositor,
	"wl_surface":            (*Server).handleSurface,
	"wl_region":             (*Server).handleRegion,
	"wl_shm":                (*Server).handleShm,
	"wl_shm_pool":           (*Server).handleShmPool,
	"wl_buffer":             (*Server).handleBuffer,
	"wl_output":             (*Server).handleOutput,
	"zwlr_layer_shell_v1":   (*Server).handleLayerShell,
	"zwlr_layer_surface_v1": (*Server).handleLayerSurface,
	"desktop_shell":         (*Server).handleDesktopShell,
}

func (s *Server) handleDisplay(m *wire.Message) (string, error) {
	switch m.Opcode {
	case 0:
		id := m.NewID()
		s.create(id, "wl_callback", 1)
		err := s.send(wire.NewMessage(id, 0).PutUint(s.nextSerial()))
		if err != nil {
			return "sync", err
		}
		return "sync", s.deleteID(id)

	case 1:
		id := m.NewID()
		s.create(id, "wl_registry", 1)
		for i, g := range s.globals {
			err := s.send(wire.NewMessage(id, 0).PutUint(uint32(i+1)).PutString(g.iface).PutUint(g.version))
			if err != nil {
				return "get_registry", err
			}
		}
		return "get_registry", nil

	default:
		return "", fmt.Errorf("unknown wl_display request %v", m.Opcode)
	}
}

func (s *Server) handleRegistry(m *wire.Message) (string, error) {
	if m.Opcode != 0 {
		return "", fmt.Errorf("unknown wl_registry request %v", m.Opcode)
	}

	name, iface, version, id := m.Uint(), m.Str(), m.Uint(), m.NewID()
	if err := m.Err(); err != nil {
		return "bind", err
	}
	if name == 0 || int(name) > len(s.globals) {
		return "bind", fmt.Errorf("bind to unknown global %v", name)
	}
	g := s.globals[name-1]
	if g.iface != iface {
		return "bind", fmt.Errorf("bind %v as %v", g.iface, iface)
	}
	if version > g.version {
		return "bind", fmt.Errorf("bind %v version %v above %v", iface, version, g.version)
	}
	s.create(id, iface, version)

	switch iface {
	case "wl_shm":
		formats := append([]uint32{0, 1}, s.cfg.Formats...)
		for _, f := range formats {
			err := s.send(wire.NewMessage(id, 0).PutUint(f))
			if err != nil {
				return "bind", err
			}
		}

	case "wl_output":
		s.m.Lock()
		s.outputs[id] = g.output
		s.m.Unlock()
		return "bind", s.sendOutput(id, version, s.cfg.Outputs[g.output])
	}

	return "bind", nil
}

func (s *Server) sendOutput(id, version uint32, out Output) error {
	msgs := []*wire.Message{
		wire.NewMessage(id, 0).
			PutInt(0).PutInt(0).
			PutInt(0).PutInt(0).
			PutInt(0).
			PutString("fake").PutString(out.Name).
			PutInt(0),
		wire.NewMessage(id, 1).PutUint(0x1).PutInt(out.Width).PutInt(out.Height).PutInt(60000),
	}
	if version >= 2 {
		scale := out.Scale
		if scale == 0 {
			scale = 1
		}
		msgs = append(msgs, wire.NewMessage(id, 3).PutInt(scale))
	}
	if version >= 4 {
		msgs = append(msgs,
			wire.NewMessage(id, 4).PutString(out.Name),
			wire.NewMessage(id, 5).PutString("Fake output "+out.Name),
		)
	}
	if version >= 2 {
		msgs = append(msgs, wire.NewMessage(id, 2))
	}

	for _, m := range msgs {
		if err := s.conn.Enqueue(m); err != nil {
			return err
		}
	}
	return s.flush()
}

func (s *Server) handleCompositor(m *wire.Message) (string, error) {
	id := m.NewID()
	switch m.Opcode {
	case 0:
		s.create(id, "wl_surface", s.version(m.Sender))
		s.m.Lock()
		s.surfaces[id] = &surface{scale: 1}
		s.m.Unlock()
		return "create_surface", nil

	case 1:
		s.create(id, "wl_region", s.version(m.Sender))
		return "create_region", nil

	default:
		return "", fmt.Errorf("unknown wl_compositor request %v", m.Opcode)
	}
}

var surfaceRequests = map[uint16]string{
	0:  "destroy",
	1:  "attach",
	2:  "damage",
	3:  "frame",
	4:  "set_opaque_region",
	5:  "set_input_region",
	6:  "commit",
	7:  "set_buffer_transform",
	8:  "set_buffer_scale",
	9:  "damage_buffer",
	10: "offset",
}

func (s *Server) handleSurface(m *wire.Message) (string, error) {
	name, ok := surfaceRequests[m.Opcode]
	if !ok {
		return "", fmt.Errorf("unknown wl_surface request %v", m.Opcode)
	}
	if name == "damage_buffer" && s.version(m.Sender) < 4 {
		return name, fmt.Errorf("damage_buffer on wl_surface version %v", s.version(m.Sender))
	}

	s.m.Lock()
	surf := s.surfaces[m.Sender]
	s.m.Unlock()

	switch name {
	case "destroy":
		s.m.Lock()
		delete(s.surfaces, m.Sender)
		s.m.Unlock()
		return name, s.deleteID(m.Sender)

	case "attach":
		id := m.Object()
		m.Int()
		m.Int()
		s.m.Lock()
		surf.buffer = id
		s.m.Unlock()

	case "set_input_region":
		id := m.Object()
		s.m.Lock()
		surf.input = &id
		s.m.Unlock()

	case "set_buffer_scale":
		scale := m.Int()
		s.m.Lock()
		surf.scale = scale
		s.m.Unlock()

	case "commit":
		return name, s.commit(m.Sender, surf)
	}

	return name, nil
}

func (s *Server) commit(id uint32, surf *surface) error {
	s.m.Lock()
	ls := s.layers[surf.role]
	needsConfigure := ls != nil && !surf.configured
	if needsConfigure {
		surf.configured = true
	}
	buf := s.buffers[surf.buffer]
	scale := surf.scale
	var out Output
	if ls != nil {
		out = s.outputFor(ls.Output)
	}
	s.m.Unlock()

	if needsConfigure {
		w, h := ls.Width, ls.Height
		if w == 0 {
			w = uint32(out.Width / max(out.Scale, 1))
		}
		if h == 0 {
			h = uint32(out.Height / max(out.Scale, 1))
		}
		err := s.send(wire.NewMessage(ls.ID, 0).PutUint(s.nextSerial()).PutUint(w).PutUint(h))
		if err != nil {
			return err
		}
	}

	if buf == nil {
		return nil
	}

	pix := make([]byte, int(buf.stride)*int(buf.height))
	_, err := buf.pool.file.ReadAt(pix, int64(buf.offset))
	if err != nil {
		return fmt.Errorf("read buffer: %w", err)
	}

	s.frames <- Frame{
		Surface: id,
		Width:   buf.width,
		Height:  buf.height,
		Stride:  buf.stride,
		Format:  buf.format,
		Scale:   scale,
		Pix:     pix,
	}
	return nil
}

// outputFor must be called with s.m held.
func (s *Server) outputFor(id uint32) Output {
	i, ok := s.outputs[id]
	if !ok {
		if len(s.cfg.Outputs) == 0 {
			return Output{}
		}
		i = 0
	}
	return s.cfg.Outputs[i]
}

func (s *Server) handleRegion(m *wire.Message) (string, error) {
	switch m.Opcode {
	case 0:
		return "destroy", s.deleteID(m.Sender)
	case 1:
		return "add", nil
	case 2:
		return "subtract", nil
	default:
		return "", fmt.Errorf("unknown wl_region request %v", m.Opcode)
	}
}

func (s *Server) handleShm(m *wire.Message) (string, error) {
	switch m.Opcode {
	case 0:
		id, fd, size := m.NewID(), m.FD(), m.Int()
		if err := m.Err(); err != nil {
			return "create_pool", err
		}
		file := os.NewFile(uintptr(fd), "wl_shm_pool")
		info, err := file.Stat()
		if err != nil {
			file.Close()
			return "create_pool", err
		}
		if info.Size() < int64(size) {
			file.Close()
			return "create_pool", fmt.Errorf("pool of size %v backed by file of size %v", size, info.Size())
		}

		s.create(id, "wl_shm_pool", 1)
		s.m.Lock()
		s.pools[id] = &pool{file: file}
		s.files = append(s.files, file)
		s.m.Unlock()
		return "create_pool", nil

	case 1:
		return "release", s.deleteID(m.Sender)

	default:
		return "", fmt.Errorf("unknown wl_shm request %v", m.Opcode)
	}
}

func (s *Server) handleShmPool(m *wire.Message) (string, error) {
	switch m.Opcode {
	case 0:
		id := m.NewID()
		b := buffer{
			offset: m.Int(),
			width:  m.Int(),
			height: m.Int(),
			stride: m.Int(),
			format: m.Uint(),
		}
		if b.width <= 0 || b.height <= 0 || b.stride < b.width*4 {
			return "create_buffer", fmt.Errorf("invalid buffer %vx%v stride %v", b.width, b.height, b.stride)
		}

		s.create(id, "wl_buffer", 1)
		s.m.Lock()
		b.pool = s.pools[m.Sender]
		s.buffers[id] = &b
		s.m.Unlock()
		return "create_buffer", nil

	case 1:
		s.m.Lock()
		delete(s.pools, m.Sender)
		s.m.Unlock()
		return "destroy", s.deleteID(m.Sender)

	case 2:
		return "resize", nil

	default:
		return "", fmt.Errorf("unknown wl_shm_pool request %v", m.Opcode)
	}
}

func (s *Server) handleBuffer(m *wire.Message) (string, error) {
	if m.Opcode != 0 {
		return "", fmt.Errorf("unknown wl_buffer request %v", m.Opcode)
	}

	s.m.Lock()
	delete(s.buffers, m.Sender)
	s.m.Unlock()
	return "destroy", s.deleteID(m.Sender)
}

func (s *Server) handleOutput(m *wire.Message) (string, error) {
	if m.Opcode != 0 {
		return "", fmt.Errorf("unknown wl_output request %v", m.Opcode)
	}
	return "release", s.deleteID(m.Sender)
}

func (s *Server) handleLayerShell(m *wire.Message) (string, error) {
	switch m.Opcode {
	case 0:
		ls := LayerSurface{
			ID:        m.NewID(),
			Surface:   m.Object(),
			Output:    m.Object(),
			Layer:     m.Uint(),
			Namespace: m.Str(),
		}
		if err := m.Err(); err != nil {
			return "get_layer_surface", err
		}

		s.create(ls.ID, "zwlr_layer_surface_v1", s.version(m.Sender))
		s.m.Lock()
		defer s.m.Unlock()
		surf, ok := s.surfaces[ls.Surface]
		if !ok {
			return "get_layer_surface", fmt.Errorf("layer surface for unknown surface %v", ls.Surface)
		}
		if surf.role != 0 {
			return "get_layer_surface", fmt.Errorf("surface %v already has a role", ls.Surface)
		}
		surf.role = ls.ID
		s.layers[ls.ID] = &ls
		return "get_layer_surface", nil

	case 1:
		return "destroy", s.deleteID(m.Sender)

	default:
		return "", fmt.Errorf("unknown zwlr_layer_shell_v1 request %v", m.Opcode)
	}
}

func (s *Server) handleLayerSurface(m *wire.Message) (string, error) {
	s.m.Lock()
	ls := s.layers[m.Sender]
	s.m.Unlock()

	switch m.Opcode {
	case 0:
		w, h := m.Uint(), m.Uint()
		s.m.Lock()
		ls.Width, ls.Height = w, h
		s.m.Unlock()
		return "set_size", nil

	case 1:
		anchor := m.Uint()
		s.m.Lock()
		ls.Anchor = anchor
		s.m.Unlock()
		return "set_anchor", nil

	case 2:
		zone := m.Int()
		s.m.Lock()
		ls.ExclusiveZone = zone
		s.m.Unlock()
		return "set_exclusive_zone", nil

	case 3:
		return "set_margin", nil

	case 4:
		k := m.Uint()
		s.m.Lock()
		ls.Keyboard = k
		s.m.Unlock()
		return "set_keyboard_interactivity", nil

	case 6:
		serial := m.Uint()
		s.m.Lock()
		ls.Acked = append(ls.Acked, serial)
		s.m.Unlock()
		return "ack_configure", nil

	case 7:
		s.m.Lock()
		delete(s.layers, m.Sender)
		s.m.Unlock()
		return "destroy", s.deleteID(m.Sender)

	default:
		return "", fmt.Errorf("unknown zwlr_layer_surface_v1 request %v", m.Opcode)
	}
}

func (s *Server) handleDesktopShell(m *wire.Message) (string, error) {
	if m.Opcode != 0 {
		return "", fmt.Errorf("unknown desktop_shell request %v", m.Opcode)
	}

	output, surf := m.Object(), m.Object()
	if err := m.Err(); err != nil {
		return "set_background", err
	}

	s.m.Lock()
	out := s.outputFor(output)
	s.m.Unlock()

	scale := max(out.Scale, 1)
	err := s.send(wire.NewMessage(m.Sender, 0).
		PutUint(0).
		PutObject(surf).
		PutInt(out.Width / scale).
		PutInt(out.Height / scale))
	return "set_background", err
}
