package element

import "github.com/OpticalFlyer/screenkit/surface"

// Entity is anything the screen renders at the top level: element trees,
// popups and free-standing shapes.
type Entity interface {
	Render(dst *surface.Surface) *surface.Surface
	Changed() bool
}
