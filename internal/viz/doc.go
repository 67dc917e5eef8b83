// Package viz renders orbit searches in the terminal.
//
//   - [SolveModel]: Bubble Tea view of a running optimization, with a live
//     residual graph and a rotating view of the converged orbit
//   - [Canvas]: Braille-based pixel canvas
//   - [PlotHistory], [PlotComponents]: asciigraph plots of residual
//     history and orbit components
//
// # Key Bindings
//
//	Q      - Stop the search and quit
//	Space  - Pause/Resume orbit rotation
//	←/→    - Rotate the orbit view
//	+/-    - Zoom
package viz
