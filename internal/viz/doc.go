// Package viz draws a running simulation in the terminal.
//
// The package implements a live view using the Bubble Tea framework:
//
//   - [Model]: steps a [sim.Simulation] on every tick and renders it
//   - [App]: preset picker that hands over to a [Model]
//   - [Canvas]: Braille-based pixel canvas with per-cell tints
//   - [Camera]: orbit camera projecting world space onto the canvas
//
// Bodies are drawn as filled disks colored by polarity, and the bounding box
// as a wireframe.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	.     - Single step while paused
//	R     - Rebuild the scene
//	N     - Spawn a random body
//	D     - Remove the selected (or newest) body
//	P     - Pick the body under the crosshair
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
