// Package lattice implements the mesoscopic half of the Lattice Boltzmann
// advection-diffusion solver: the discrete velocity sets, the distribution
// field and the collide/stream/boundary operators that act on it.
//
//   - [VelocityModel]: D2Q5 and D2Q9 velocity and weight tables
//   - [Field]: per-direction populations plus the derived macroscopic field
//   - [Collide]: BGK relaxation toward the advecting equilibrium
//   - [Stream]: cyclic shift of every direction by its velocity
//   - [Enforcer]: edge reconstruction in distribution space
//   - [ScalarBoundary]: the same edge rules applied to a plain scalar grid
//
// # Orientation
//
// Row 0 is the top edge and column 0 the left edge. A velocity (X, Y)
// moves a population X columns to the right and Y rows down.
//
// # Step order
//
// Streaming wraps populations around the grid. The wrapped values land only
// on the edge layers, which [Enforcer.Apply] overwrites, so a stream must
// always be followed by boundary enforcement before the field is read:
//
//	lattice.Collide(f, omega, u)
//	lattice.Stream(f)
//	enforcer.Apply(f)
package lattice
