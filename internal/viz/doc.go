// Package viz renders solver fields in the terminal.
//
//   - [Model]: Bubble Tea live view that steps a solver on a ticker
//   - [Menu]: preset picker that opens a live view
//   - [Heatmap], [Shades]: colored and plain-text field renderings
//   - [HistoryGraph], [Profile]: asciigraph plots of convergence and a row
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to iteration 0
//	+/-   - Iterations per tick
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// Recordings are written to thermolb.gif unless the model was built with
// WithGIF.
package viz
