package main

import (
	"fmt"
	"image"

	"deedles.dev/kawabg/geom"
	"deedles.dev/kawabg/internal/bg"
	"deedles.dev/kawabg/internal/drm"
	"deedles.dev/kawabg/internal/fimg"
	"deedles.dev/kawabg/internal/shm"
	"github.com/sirupsen/logrus"
)

// Render paints src onto every background and commits the results.
func (app *App) Render(src bg.Source, mode bg.Mode) error {
	filter := app.Config.ScaleFilter()
	for _, b := range app.backgrounds {
		err := app.renderBackground(b, src, mode, filter)
		if err != nil {
			return fmt.Errorf("render output %v: %w", b.Output.Info().Name, err)
		}
	}

	return app.display.Flush()
}

func (app *App) renderBackground(b *Background, src bg.Source, mode bg.Mode, filter bg.Filter) error {
	w, h := b.PixelSize()
	stride := w * 4

	var p bg.Placement
	if !src.Solid() {
		var err error
		p, err = bg.Compute(geom.Pt(float64(w), float64(h)), src.Size(), mode)
		if err != nil {
			return err
		}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	bg.Paint(canvas, src, p, filter)

	file, err := shm.Create(stride * h)
	if err != nil {
		return fmt.Errorf("create shm file: %w", err)
	}
	if b.file != nil {
		b.file.Close()
	}
	b.file = file

	fimg.WrapARGB(file.Bytes(), stride, canvas.Rect).CopyFrom(canvas)

	b.pool = app.shm.CreatePool(file.Fd(), int32(file.Size()))
	b.buffer = b.pool.CreateBuffer(0, int32(w), int32(h), int32(stride), drm.FormatARGB8888)
	b.buffer.Release = func() {
		logrus.WithField("output", b.Output.Info().Name).Trace("buffer released")
	}

	b.Surface.Attach(b.buffer, 0, 0)
	if app.compositor.Version() >= 4 {
		b.Surface.DamageBuffer(0, 0, int32(w), int32(h))
	} else {
		b.Surface.Damage(0, 0, b.Width, b.Height)
	}
	b.Surface.Commit()
	b.rendered = true

	logrus.WithFields(logrus.Fields{
		"output": b.Output.Info().Name,
		"size":   fmt.Sprintf("%vx%v", w, h),
		"mode":   mode,
		"solid":  src.Solid(),
	}).Debug("rendered background")

	return nil
}
