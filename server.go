package main

import (
	"errors"
	"fmt"
	"sync/atomic"

	"deedles.dev/kawabg/internal/config"
	"deedles.dev/kawabg/internal/util"
	"deedles.dev/kawabg/internal/wire"
	"deedles.dev/kawabg/internal/wl"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoBackgroundShell = errors.New("kawabg requires the compositor to support the wlr-layer-shell or desktop-shell extension")
	ErrNoCompositor      = errors.New("compositor does not advertise a usable wl_compositor")
	ErrNoShm             = errors.New("compositor does not advertise wl_shm")
	ErrOutputIndex       = errors.New("output index out of range")
)

// App is the state of the whole process: the connection, the globals
// bound from it and the background surfaces that it owns.
type App struct {
	Config *config.Config

	display      *wl.Display
	registry     *wl.Registry
	compositor   *wl.Compositor
	shm          *wl.Shm
	layerShell   *wl.LayerShell
	desktopShell *wl.DesktopShell
	outputs      []*wl.Output

	backgrounds []*Background

	// closed is set when a background surface is taken away by the
	// compositor.
	closed bool

	stopped atomic.Bool
}

// NewApp sets up an App on an established connection. It binds every
// global that it needs and waits for the outputs to describe
// themselves. On failure, conn is closed.
func NewApp(conn *wire.Conn, cfg *config.Config) (*App, error) {
	app := App{
		Config:  cfg,
		display: wl.Connect(conn),
	}

	app.registry = app.display.GetRegistry()
	app.registry.Global = app.onGlobal
	app.registry.GlobalRemove = app.onGlobalRemove

	// The first round trip gets the globals and the second gets the
	// events sent in response to binding them.
	for range 2 {
		err := app.display.RoundTrip()
		if err != nil {
			app.display.Close()
			return nil, fmt.Errorf("registry round trip: %w", err)
		}
	}

	err := app.check()
	if err != nil {
		app.display.Close()
		return nil, err
	}

	if app.desktopShell != nil {
		app.desktopShell.Configure = app.onDesktopShellConfigure
	}

	return &app, nil
}

func (app *App) onGlobal(name uint32, iface string, version uint32) {
	log := logrus.WithFields(logrus.Fields{
		"name":      name,
		"interface": iface,
		"version":   version,
	})

	switch iface {
	case "wl_compositor":
		if version < MinCompositorVersion {
			log.Warn("compositor too old")
			return
		}
		app.compositor = new(wl.Compositor)
		app.registry.Bind(name, app.compositor, min(version, MaxCompositorVersion))

	case "wl_shm":
		app.shm = new(wl.Shm)
		app.registry.Bind(name, app.shm, 1)

	case "wl_output":
		out := new(wl.Output)
		app.registry.Bind(name, out, min(version, MaxOutputVersion))
		app.outputs = append(app.outputs, out)

	case "zwlr_layer_shell_v1":
		app.layerShell = new(wl.LayerShell)
		app.registry.Bind(name, app.layerShell, min(version, MaxLayerShellVersion))

	case "desktop_shell":
		app.desktopShell = new(wl.DesktopShell)
		app.registry.Bind(name, app.desktopShell, 1)

	default:
		log.Trace("ignoring global")
		return
	}

	log.Debug("bound global")
}

func (app *App) onGlobalRemove(name uint32) {
	logrus.WithField("name", name).Debug("global removed")
}

func (app *App) check() error {
	if app.layerShell == nil && app.desktopShell == nil {
		return ErrNoBackgroundShell
	}
	if app.compositor == nil {
		return ErrNoCompositor
	}
	if app.shm == nil {
		return ErrNoShm
	}
	return nil
}

func (app *App) onDesktopShellConfigure(edges, surface uint32, width, height int32) {
	b, ok := util.FindFunc(app.backgrounds, func(b *Background) bool {
		return b.Surface.ID() == surface
	})
	if !ok {
		logrus.WithField("surface", surface).Debug("configure for unknown surface")
		return
	}

	b.configure(width, height)
}

// Stop makes Run return by closing the connection. It is safe to call
// from any goroutine.
func (app *App) Stop() {
	if app.stopped.Swap(true) {
		return
	}
	app.display.Close()
}

// Close destroys everything that the App owns and closes the
// connection.
func (app *App) Close() error {
	live := !app.stopped.Swap(true)

	var errs []error
	for _, b := range app.backgrounds {
		errs = append(errs, b.Destroy(live))
	}
	app.backgrounds = nil

	if live {
		for _, out := range app.outputs {
			out.Release()
		}
		if app.layerShell != nil {
			app.layerShell.Destroy()
		}
		errs = append(errs, app.display.Flush())
		errs = append(errs, app.display.Close())
	}

	return errors.Join(errs...)
}
