// Package viz provides a terminal live view of the collision pipeline.
//
// The view is a Bubble Tea program that steps an animated demo scene,
// runs the full broad-phase/narrow-phase/solve sequence each frame, and
// plots contact counts and solver residuals as terminal graphs.
//
// # Key Bindings
//
//	Space - Pause/Resume stepping
//	R     - Reset the scene
//	Q     - Quit
package viz
