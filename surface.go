package main

import (
	"errors"
	"fmt"

	"deedles.dev/kawabg/internal/shm"
	"deedles.dev/kawabg/internal/wl"
	"github.com/sirupsen/logrus"
)

// Background is a surface that covers a single output.
type Background struct {
	Output  *wl.Output
	Surface *wl.Surface

	// Width and Height are in surface-local coordinates. The buffer is
	// Scale times as large in each dimension.
	Width, Height int32
	Scale         int32

	configured bool
	rendered   bool

	layer  *wl.LayerSurface
	file   *shm.File
	pool   *wl.ShmPool
	buffer *wl.Buffer
}

// AddBackground creates a background surface for out and waits for
// the compositor to tell it how large it should be.
func (app *App) AddBackground(out *wl.Output) (*Background, error) {
	w, h, scale := outputSize(out)
	b := Background{
		Output:  out,
		Surface: app.compositor.CreateSurface(),
		Scale:   scale,
	}
	app.backgrounds = append(app.backgrounds, &b)

	app.assignRole(&b)

	region := app.compositor.CreateRegion()
	b.Surface.SetInputRegion(region)
	region.Destroy()

	b.Surface.SetBufferScale(b.Scale)
	b.Surface.Commit()

	err := app.display.RoundTrip()
	if err != nil {
		return nil, fmt.Errorf("configure background: %w", err)
	}
	if app.closed {
		return nil, errors.New("background surface closed before it was configured")
	}

	if !b.configured {
		logrus.WithField("output", out.Info().Name).Debug("no configure received, using output mode size")
		b.configure(w, h)
	}
	if (b.Width <= 0) || (b.Height <= 0) {
		return nil, fmt.Errorf("output %v has no usable size: %vx%v", out.Info().Name, b.Width, b.Height)
	}

	return &b, nil
}

// configure sets b's size. A zero dimension from the compositor means
// that the client should choose, so the output's size is used.
func (b *Background) configure(width, height int32) {
	ow, oh, _ := outputSize(b.Output)
	if width == 0 {
		width = ow
	}
	if height == 0 {
		height = oh
	}

	if b.rendered && ((width != b.Width) || (height != b.Height)) {
		logrus.WithFields(logrus.Fields{
			"output": b.Output.Info().Name,
			"old":    fmt.Sprintf("%vx%v", b.Width, b.Height),
			"new":    fmt.Sprintf("%vx%v", width, height),
		}).Warn("background resized after rendering")
	}

	b.Width, b.Height = width, height
	b.configured = true
}

// PixelSize returns the size of b's buffer.
func (b *Background) PixelSize() (w, h int) {
	return int(b.Width * b.Scale), int(b.Height * b.Scale)
}

// Destroy frees everything that b owns. If live is false, the
// connection is gone and only local resources are released.
func (b *Background) Destroy(live bool) error {
	if live {
		if b.buffer != nil {
			b.buffer.Destroy()
		}
		if b.pool != nil {
			b.pool.Destroy()
		}
		if b.layer != nil {
			b.layer.Destroy()
		}
		b.Surface.Destroy()
	}

	var err error
	if b.file != nil {
		err = b.file.Close()
	}

	b.buffer, b.pool, b.layer, b.file = nil, nil, nil, nil
	return err
}
