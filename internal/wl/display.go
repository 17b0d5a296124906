// Package wl is a minimal Wayland client covering the interfaces
// needed to put a shared-memory buffer on an output as its
// background.
package wl

import (
	"errors"
	"fmt"
	"io"

	"deedles.dev/kawabg/internal/wire"
	"github.com/sirupsen/logrus"
)

const displayID = 1

const (
	displaySync        = 0
	displayGetRegistry = 1

	displayEventError    = 0
	displayEventDeleteID = 1
)

// Object is a protocol object known to a Display.
type Object interface {
	ID() uint32
	Interface() string

	proxy() *Proxy
	dispatch(*wire.Message) error
}

// Proxy holds the state common to every object. It is embedded in
// each object type.
type Proxy struct {
	id      uint32
	version uint32
	display *Display
}

func (p *Proxy) ID() uint32 {
	return p.id
}

// Version returns the version that the object was bound or created
// with.
func (p *Proxy) Version() uint32 {
	return p.version
}

func (p *Proxy) proxy() *Proxy {
	return p
}

func (p *Proxy) request(opcode uint16) *wire.Message {
	return wire.NewMessage(p.id, opcode)
}

func (p *Proxy) send(m *wire.Message) {
	p.display.Enqueue(m)
}

// destroy marks the object as dead. Its ID stays reserved until the
// compositor confirms the deletion.
func (p *Proxy) destroy() {
	if p.display != nil {
		p.display.zombie(p.id)
	}
}

// Display is the client side of a connection. It owns the object
// table and routes incoming events to objects.
type Display struct {
	Proxy

	conn    *wire.Conn
	objects map[uint32]Object
	nextID  uint32
	err     error

	registry *Registry
}

// Connect wraps an established connection.
func Connect(conn *wire.Conn) *Display {
	d := Display{
		conn:    conn,
		objects: make(map[uint32]Object),
		nextID:  displayID + 1,
	}
	d.Proxy = Proxy{id: displayID, version: 1, display: &d}
	d.objects[displayID] = &d
	return &d
}

func (d *Display) Interface() string {
	return "wl_display"
}

// Close closes the connection. The Display is unusable afterwards.
func (d *Display) Close() error {
	return d.conn.Close()
}

func (d *Display) register(obj Object, version uint32) uint32 {
	id := d.nextID
	d.nextID++

	p := obj.proxy()
	p.id = id
	p.version = version
	p.display = d
	d.objects[id] = obj

	return id
}

func (d *Display) zombie(id uint32) {
	if _, ok := d.objects[id]; ok {
		d.objects[id] = nil
	}
}

// Object returns the live object with the given ID, or nil.
func (d *Display) Object(id uint32) Object {
	return d.objects[id]
}

// Enqueue queues a request. Errors are deferred until the next
// Flush.
func (d *Display) Enqueue(m *wire.Message) {
	if d.err != nil {
		return
	}

	logrus.WithFields(logrus.Fields{
		"object": m.Sender,
		"opcode": m.Opcode,
		"size":   m.Size(),
	}).Trace("request")

	err := d.conn.Enqueue(m)
	if err != nil {
		d.err = fmt.Errorf("enqueue %v: %w", m, err)
	}
}

// Flush sends all queued requests.
func (d *Display) Flush() error {
	if d.err != nil {
		err := d.err
		d.err = nil
		return err
	}
	return d.conn.Flush()
}

// GetRegistry returns the registry, creating it on first use.
func (d *Display) GetRegistry() *Registry {
	if d.registry != nil {
		return d.registry
	}

	r := new(Registry)
	id := d.register(r, 1)
	d.Enqueue(d.request(displayGetRegistry).PutNewID(id))
	d.registry = r
	return r
}

// Sync requests a callback that fires once the compositor has handled
// every request sent before it.
func (d *Display) Sync() *Callback {
	cb := new(Callback)
	id := d.register(cb, 1)
	d.Enqueue(d.request(displaySync).PutNewID(id))
	return cb
}

// RoundTrip blocks until every request sent so far has been handled
// and every resulting event has been dispatched.
func (d *Display) RoundTrip() error {
	var done bool
	cb := d.Sync()
	cb.Done = func(uint32) { done = true }

	err := d.Flush()
	if err != nil {
		return err
	}

	for !done {
		err := d.Dispatch()
		if err != nil {
			return err
		}
	}
	return nil
}

// Dispatch reads a single event and hands it to its object. It
// returns io.EOF if the compositor closed the connection and a
// *ProtocolError if the compositor reported one.
func (d *Display) Dispatch() error {
	m, err := d.conn.ReadMessage()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("read event: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"object": m.Sender,
		"opcode": m.Opcode,
		"size":   m.Size(),
	})

	obj := d.objects[m.Sender]
	if obj == nil {
		log.Trace("event for dead object")
		return nil
	}
	log.WithField("interface", obj.Interface()).Trace("event")

	err = obj.dispatch(m)
	if err != nil {
		return err
	}
	return m.Err()
}

func (d *Display) dispatch(m *wire.Message) error {
	switch m.Opcode {
	case displayEventError:
		perr := ProtocolError{
			ObjectID: m.Object(),
			Code:     m.Uint(),
			Message:  m.Str(),
		}
		if err := m.Err(); err != nil {
			return err
		}
		if obj := d.objects[perr.ObjectID]; obj != nil {
			perr.Interface = obj.Interface()
		}
		return &perr

	case displayEventDeleteID:
		id := m.Uint()
		if m.Err() == nil {
			delete(d.objects, id)
		}
		return nil

	default:
		return unknownEvent(d, m)
	}
}

// ProtocolError is a fatal error reported by the compositor.
type ProtocolError struct {
	ObjectID  uint32
	Interface string
	Code      uint32
	Message   string
}

func (err *ProtocolError) Error() string {
	iface := err.Interface
	if iface == "" {
		iface = "unknown"
	}
	return fmt.Sprintf("protocol error on %v@%v: code %v: %v", iface, err.ObjectID, err.Code, err.Message)
}

func unknownEvent(obj Object, m *wire.Message) error {
	logrus.WithFields(logrus.Fields{
		"interface": obj.Interface(),
		"object":    m.Sender,
		"opcode":    m.Opcode,
	}).Debug("unknown event")
	return nil
}
