package main

import (
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"deedles.dev/kawabg/internal/bg"
	"deedles.dev/kawabg/internal/config"
	"deedles.dev/kawabg/internal/wl"
	"deedles.dev/kawabg/internal/wl/wltest"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Filter = bg.FilterNearest.String()
	return &cfg
}

func startApp(t *testing.T, wcfg wltest.Config) (*App, *wltest.Server) {
	t.Helper()

	srv, conn, err := wltest.Start(wcfg)
	require.NoError(t, err)

	app, err := NewApp(conn, testConfig())
	require.NoError(t, err)

	var once sync.Once
	t.Cleanup(func() {
		once.Do(func() {
			app.Close()
			srv.Close()
		})
	})
	return app, srv
}

func frame(t *testing.T, srv *wltest.Server) wltest.Frame {
	t.Helper()

	select {
	case f := <-srv.Frames():
		return f
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no frame committed")
		return wltest.Frame{}
	}
}

func pixel(f wltest.Frame, x, y int) color.RGBA {
	i := y*int(f.Stride) + x*4
	return color.RGBA{B: f.Pix[i], G: f.Pix[i+1], R: f.Pix[i+2], A: f.Pix[i+3]}
}

var (
	red  = color.RGBA{R: 0xFF, A: 0xFF}
	blue = color.RGBA{B: 0xFF, A: 0xFF}
)

func TestNewAppErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  wltest.Config
		err  error
	}{
		{"NoShell", wltest.Config{}, ErrNoBackgroundShell},
		{"NoCompositor", wltest.Config{LayerShell: true, NoCompositor: true}, ErrNoCompositor},
		{"OldCompositor", wltest.Config{LayerShell: true, CompositorVersion: 2}, ErrNoCompositor},
		{"NoShm", wltest.Config{DesktopShell: true, NoShm: true}, ErrNoShm},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv, conn, err := wltest.Start(test.cfg)
			require.NoError(t, err)
			defer srv.Close()

			_, err = NewApp(conn, testConfig())
			assert.ErrorIs(t, err, test.err)
		})
	}
}

func TestOutputIndex(t *testing.T) {
	app, _ := startApp(t, wltest.Config{
		Outputs: []wltest.Output{
			{Name: "DP-1", Width: 640, Height: 480},
			{Name: "DP-2", Width: 800, Height: 600},
		},
		LayerShell: true,
	})

	out, err := app.Output(1)
	require.NoError(t, err)
	assert.Equal(t, "DP-2", out.Info().Name)

	_, err = app.Output(2)
	assert.ErrorIs(t, err, ErrOutputIndex)
	_, err = app.Output(-1)
	assert.ErrorIs(t, err, ErrOutputIndex)
}

func TestRenderSolidLayerShell(t *testing.T) {
	app, srv := startApp(t, wltest.Config{
		Outputs:      []wltest.Output{{Name: "DP-1", Width: 8, Height: 4}},
		LayerShell:   true,
		DesktopShell: true,
	})

	out, err := app.Output(0)
	require.NoError(t, err)
	b, err := app.AddBackground(out)
	require.NoError(t, err)
	assert.Equal(t, int32(8), b.Width)
	assert.Equal(t, int32(4), b.Height)

	src, mode, err := bg.Load("#FF0000", bg.SolidColor)
	require.NoError(t, err)
	require.NoError(t, app.Render(src, mode))

	f := frame(t, srv)
	assert.Equal(t, b.Surface.ID(), f.Surface)
	assert.Equal(t, int32(8), f.Width)
	assert.Equal(t, int32(4), f.Height)
	assert.Equal(t, int32(32), f.Stride)
	assert.Equal(t, uint32(0), f.Format)
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, red, pixel(f, x, y), "(%v, %v)", x, y)
		}
	}

	layers := srv.LayerSurfaces()
	require.Len(t, layers, 1)
	assert.Equal(t, uint32(wl.LayerBackground), layers[0].Layer)
	assert.Equal(t, uint32(wl.AnchorAll), layers[0].Anchor)
	assert.Equal(t, int32(-1), layers[0].ExclusiveZone)
	assert.Equal(t, "wallpaper", layers[0].Namespace)
	assert.Len(t, layers[0].Acked, 1)

	reqs := srv.Requests()
	assert.Contains(t, reqs, "wl_surface.set_input_region")
	assert.Contains(t, reqs, "wl_surface.damage_buffer")
	assert.NotContains(t, reqs, "desktop_shell.set_background")
}

func TestRenderScaled(t *testing.T) {
	app, srv := startApp(t, wltest.Config{
		Outputs:    []wltest.Output{{Name: "DP-1", Width: 8, Height: 4, Scale: 2}},
		LayerShell: true,
	})

	out, err := app.Output(0)
	require.NoError(t, err)
	b, err := app.AddBackground(out)
	require.NoError(t, err)
	assert.Equal(t, int32(4), b.Width)
	assert.Equal(t, int32(2), b.Height)
	assert.Equal(t, int32(2), b.Scale)

	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, blue)
	require.NoError(t, app.Render(bg.Source{Image: img}, bg.ModeStretch))

	f := frame(t, srv)
	assert.Equal(t, int32(8), f.Width)
	assert.Equal(t, int32(4), f.Height)
	assert.Equal(t, int32(2), f.Scale)
	assert.Equal(t, blue, pixel(f, 7, 3))
}

func TestRenderFillDesktopShell(t *testing.T) {
	app, srv := startApp(t, wltest.Config{
		Outputs:           []wltest.Output{{Name: "DP-1", Width: 4, Height: 4}},
		DesktopShell:      true,
		CompositorVersion: 3,
	})

	out, err := app.Output(0)
	require.NoError(t, err)
	_, err = app.AddBackground(out)
	require.NoError(t, err)

	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, red)
	img.Set(1, 0, blue)
	require.NoError(t, app.Render(bg.Source{Image: img}, bg.ModeFill))

	f := frame(t, srv)
	for y := 0; y < 4; y++ {
		assert.Equal(t, red, pixel(f, 0, y))
		assert.Equal(t, red, pixel(f, 1, y))
		assert.Equal(t, blue, pixel(f, 2, y))
		assert.Equal(t, blue, pixel(f, 3, y))
	}

	reqs := srv.Requests()
	assert.Contains(t, reqs, "desktop_shell.set_background")
	assert.Contains(t, reqs, "wl_surface.damage")
	assert.NotContains(t, reqs, "wl_surface.damage_buffer")
}

func TestRunLayerClosed(t *testing.T) {
	app, srv := startApp(t, wltest.Config{
		Outputs:    []wltest.Output{{Name: "DP-1", Width: 4, Height: 4}},
		LayerShell: true,
	})

	out, err := app.Output(0)
	require.NoError(t, err)
	_, err = app.AddBackground(out)
	require.NoError(t, err)

	require.NoError(t, srv.CloseLayerSurfaces())
	app.Run()
	assert.True(t, app.closed)
}

func TestRunEOF(t *testing.T) {
	app, srv := startApp(t, wltest.Config{LayerShell: true})
	hook := logtest.NewGlobal()
	defer hook.Reset()

	require.NoError(t, srv.Close())
	app.Run()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
}

func TestRunProtocolErrorIsLogged(t *testing.T) {
	app, srv := startApp(t, wltest.Config{LayerShell: true})
	hook := logtest.NewGlobal()
	defer hook.Reset()

	require.NoError(t, srv.PostError(app.shm.ID(), 2, "invalid fd"))
	app.Run()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)

	err, _ := entry.Data[logrus.ErrorKey].(error)
	var perr *wl.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "wl_shm", perr.Interface)
	assert.Equal(t, uint32(2), perr.Code)
}

func TestRunStop(t *testing.T) {
	app, _ := startApp(t, wltest.Config{LayerShell: true})

	done := make(chan struct{})
	go func() {
		app.Run()
		close(done)
	}()
	app.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestCloseDestroysEverything(t *testing.T) {
	srv, conn, err := wltest.Start(wltest.Config{
		Outputs:    []wltest.Output{{Name: "DP-1", Width: 4, Height: 4}},
		LayerShell: true,
	})
	require.NoError(t, err)

	app, err := NewApp(conn, testConfig())
	require.NoError(t, err)

	out, err := app.Output(0)
	require.NoError(t, err)
	_, err = app.AddBackground(out)
	require.NoError(t, err)
	src, mode, err := bg.Load("#00ff00", bg.SolidColor)
	require.NoError(t, err)
	require.NoError(t, app.Render(src, mode))
	frame(t, srv)

	require.NoError(t, app.Close())
	require.NoError(t, srv.Wait())

	for _, iface := range []string{"wl_surface", "wl_buffer", "wl_shm_pool", "zwlr_layer_surface_v1", "wl_output"} {
		assert.Zero(t, srv.Live(iface), iface)
	}
}

func TestRootCmdUsage(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"0", "#ffffff"},
		{"0", "#ffffff", "solid_color", "extra"},
	} {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		assert.ErrorIs(t, cmd.Execute(), ErrUsage, "%q", args)
	}
}

func TestRunInvalidIndex(t *testing.T) {
	err := run(testConfig(), "first", "#ffffff", bg.SolidColor)
	assert.ErrorContains(t, err, "invalid output index")
}
