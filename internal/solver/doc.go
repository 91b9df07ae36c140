// Package solver runs a scalar advection-diffusion field to steady state.
//
// A Solver wraps a Kernel (the lattice Boltzmann kernel built by New, or any
// kernel passed to NewWithKernel) in a small state machine:
//
//	Running -> Converged | MaxIterationsExceeded | Diverged
//
// Each Step snapshots the macroscopic field, advances the kernel once,
// checks the result against the divergence band and measures the change with
// a convergence.Monitor. Reaching the iteration ceiling is a terminal state,
// not an error. Configuration problems surface as *ConfigError before any
// iteration runs, and divergence as *DivergenceError.
package solver
