package lattice

import (
	"fmt"
	"math"
	"strings"
)

// Velocity is a discrete lattice velocity, X along columns and Y along rows.
type Velocity struct {
	X, Y int
}

// Vector is a continuous velocity such as the bulk advective velocity.
type Vector struct {
	X, Y float64
}

// Dot returns the projection of v onto u.
func (v Velocity) Dot(u Vector) float64 {
	return float64(v.X)*u.X + float64(v.Y)*u.Y
}

// VelocityModel is an ordered set of discrete velocities with their weights.
type VelocityModel struct {
	Name       string
	Velocities []Velocity
	Weights    []float64
}

const weightTolerance = 1e-12

// D2Q5 returns the five-direction advection-diffusion model.
func D2Q5() VelocityModel {
	return VelocityModel{
		Name:       "d2q5",
		Velocities: []Velocity{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}},
		Weights:    []float64{1.0 / 3, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6},
	}
}

// D2Q9 returns the nine-direction model.
func D2Q9() VelocityModel {
	return VelocityModel{
		Name: "d2q9",
		Velocities: []Velocity{
			{0, 0}, {1, 0}, {0, 1}, {-1, 0}, {0, -1},
			{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
		},
		Weights: []float64{
			4.0 / 9,
			1.0 / 9, 1.0 / 9, 1.0 / 9, 1.0 / 9,
			1.0 / 36, 1.0 / 36, 1.0 / 36, 1.0 / 36,
		},
	}
}

var models = map[string]func() VelocityModel{
	"d2q5": D2Q5,
	"d2q9": D2Q9,
}

// ModelByName returns the velocity model for an identifier such as "d2q5".
func ModelByName(name string) (VelocityModel, error) {
	fn, ok := models[strings.ToLower(name)]
	if !ok {
		return VelocityModel{}, fmt.Errorf("%w: %q", ErrUnsupportedModel, name)
	}
	return fn(), nil
}

// ModelNames lists the supported identifiers.
func ModelNames() []string {
	return []string{"d2q5", "d2q9"}
}

// Q is the number of discrete directions.
func (m VelocityModel) Q() int { return len(m.Velocities) }

// Validate checks the table invariants: matching lengths, non-negative
// weights summing to one, and the rest velocity first.
func (m VelocityModel) Validate() error {
	if len(m.Velocities) == 0 || len(m.Velocities) != len(m.Weights) {
		return fmt.Errorf("%w: %d velocities, %d weights", ErrInvalidModel, len(m.Velocities), len(m.Weights))
	}
	if m.Velocities[0] != (Velocity{}) {
		return fmt.Errorf("%w: direction 0 is %v, want rest", ErrInvalidModel, m.Velocities[0])
	}
	sum := 0.0
	for k, w := range m.Weights {
		if w < 0 {
			return fmt.Errorf("%w: negative weight %g at %d", ErrInvalidModel, w, k)
		}
		v := m.Velocities[k]
		if v.X < -1 || v.X > 1 || v.Y < -1 || v.Y > 1 {
			return fmt.Errorf("%w: velocity %v outside the unit stencil", ErrInvalidModel, v)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %g", ErrInvalidModel, sum)
	}
	return nil
}

// Equilibrium is the population of direction k for scalar t advected by u:
// w[k] * t * (1 + 3 e[k]·u).
func (m VelocityModel) Equilibrium(k int, t float64, u Vector) float64 {
	return m.Weights[k] * t * (1 + 3*m.Velocities[k].Dot(u))
}

// equilibriumFactors returns w[k]*(1+3 e[k]·u) for every direction.
func (m VelocityModel) equilibriumFactors(u Vector) []float64 {
	fac := make([]float64, m.Q())
	for k := range fac {
		fac[k] = m.Weights[k] * (1 + 3*m.Velocities[k].Dot(u))
	}
	return fac
}
