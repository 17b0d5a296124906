package wl

import "deedles.dev/kawabg/internal/wire"

const (
	registryBind = 0

	registryEventGlobal       = 0
	registryEventGlobalRemove = 1
)

// Registry announces the compositor's globals.
type Registry struct {
	Proxy

	Global       func(name uint32, iface string, version uint32)
	GlobalRemove func(name uint32)
}

func (r *Registry) Interface() string {
	return "wl_registry"
}

// Bind binds the global with the given name to obj, which must be a
// new, unregistered object of the matching interface.
func (r *Registry) Bind(name uint32, obj Object, version uint32) {
	id := r.display.register(obj, version)
	r.send(r.request(registryBind).
		PutUint(name).
		PutString(obj.Interface()).
		PutUint(version).
		PutNewID(id))
}

func (r *Registry) dispatch(m *wire.Message) error {
	switch m.Opcode {
	case registryEventGlobal:
		name, iface, version := m.Uint(), m.Str(), m.Uint()
		if err := m.Err(); err != nil {
			return err
		}
		if r.Global != nil {
			r.Global(name, iface, version)
		}
		return nil

	case registryEventGlobalRemove:
		name := m.Uint()
		if err := m.Err(); err != nil {
			return err
		}
		if r.GlobalRemove != nil {
			r.GlobalRemove(name)
		}
		return nil

	default:
		return unknownEvent(r, m)
	}
}

// Callback fires once. The compositor destroys it after Done.
type Callback struct {
	Proxy

	Done func(data uint32)
}

func (cb *Callback) Interface() string {
	return "wl_callback"
}

func (cb *Callback) dispatch(m *wire.Message) error {
	if m.Opcode != 0 {
		return unknownEvent(cb, m)
	}

	data := m.Uint()
	if err := m.Err(); err != nil {
		return err
	}
	cb.destroy()
	if cb.Done != nil {
		cb.Done(data)
	}
	return nil
}
