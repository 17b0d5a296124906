package main

import (
	"fmt"

	"deedles.dev/kawabg/internal/wl"
	"github.com/sirupsen/logrus"
)

// Output returns the output at the given index in the order that the
// compositor announced them.
func (app *App) Output(index int) (*wl.Output, error) {
	if (index < 0) || (index >= len(app.outputs)) {
		return nil, fmt.Errorf("%w: %v of %v", ErrOutputIndex, index, len(app.outputs))
	}

	out := app.outputs[index]
	info := out.Info()
	logrus.WithFields(logrus.Fields{
		"name":        info.Name,
		"description": info.Description,
		"size":        fmt.Sprintf("%vx%v", info.Width, info.Height),
		"scale":       info.Scale,
	}).Debug("selected output")

	return out, nil
}

// outputSize returns the logical size of out according to its current
// mode.
func outputSize(out *wl.Output) (w, h, scale int32) {
	info := out.Info()
	scale = max(info.Scale, 1)
	return info.Width / scale, info.Height / scale, scale
}
