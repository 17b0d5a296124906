package main

import (
	"deedles.dev/kawabg/internal/wl"
	"github.com/sirupsen/logrus"
)

// assignRole makes b's surface the background of its output, using
// whichever shell the compositor supports. The layer shell wins if
// both are available.
func (app *App) assignRole(b *Background) {
	if app.layerShell != nil {
		app.assignLayerRole(b)
		return
	}

	app.desktopShell.SetBackground(b.Output, b.Surface)
}

func (app *App) assignLayerRole(b *Background) {
	ls := app.layerShell.GetLayerSurface(b.Surface, b.Output, wl.LayerBackground, app.Config.Namespace)
	ls.SetSize(0, 0)
	ls.SetAnchor(wl.AnchorAll)
	ls.SetExclusiveZone(-1)
	ls.SetKeyboardInteractivity(0)

	ls.Configure = func(serial, width, height uint32) {
		ls.AckConfigure(serial)
		b.configure(int32(width), int32(height))
	}
	ls.Closed = func() {
		logrus.WithField("output", b.Output.Info().Name).Info("background surface closed by compositor")
		app.closed = true
	}

	b.layer = ls
}
