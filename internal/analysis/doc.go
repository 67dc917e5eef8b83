// Package analysis extracts starting data for the orbit search from plain
// time integration and turns orbits into plottable projections.
//
//   - [DominantPeriod]: strongest period of a sampled signal
//   - [EstimateOrbit]: period and mean state of a system's long-time behaviour
//   - [Project]: 2D phase projection of orbit samples
//   - [Section]: Poincaré section of a closed orbit
//
// A typical use seeds the search with the measured period and mean:
//
//	sys := physics.NewLorenz(physics.DefaultLorenzParams())
//	est, err := analysis.EstimateOrbit(sys, sys.DefaultState(), analysis.DefaultEstimate())
//	// est.Period, est.Mean
package analysis
