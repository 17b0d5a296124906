package main

const (
	// MinCompositorVersion is the lowest wl_compositor version that
	// has wl_surface.set_buffer_scale.
	MinCompositorVersion = 3

	// Newer versions are bound down to these.
	MaxCompositorVersion = 4
	MaxOutputVersion     = 4
	MaxLayerShellVersion = 4
)
