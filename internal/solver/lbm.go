package solver

import (
	"github.com/san-kum/thermolb/internal/lattice"
	"gonum.org/v1/gonum/mat"
)

// lbmKernel composes one lattice Boltzmann iteration:
// collide, stream, then reconstruct and pin the edges.
type lbmKernel struct {
	field    *lattice.Field
	enforcer *lattice.Enforcer
	omega    float64
	u        lattice.Vector
	seed     *mat.Dense
}

func newLBMKernel(cfg Config) (*lbmKernel, error) {
	model, err := lattice.ModelByName(cfg.Model)
	if err != nil {
		return nil, err
	}
	enforcer, err := lattice.NewEnforcer(cfg.Boundary, model, cfg.Velocity, cfg.NY, cfg.NX)
	if err != nil {
		return nil, err
	}
	seed, err := cfg.InitialField()
	if err != nil {
		return nil, err
	}
	field, err := lattice.NewField(model, seed)
	if err != nil {
		return nil, err
	}
	return &lbmKernel{
		field:    field,
		enforcer: enforcer,
		omega:    cfg.Omega(),
		u:        cfg.Velocity,
		seed:     seed,
	}, nil
}

func (k *lbmKernel) Advance() error {
	lattice.Collide(k.field, k.omega, k.u)
	lattice.Stream(k.field)
	return k.enforcer.Apply(k.field)
}

func (k *lbmKernel) Field() *mat.Dense { return k.field.Macro() }

func (k *lbmKernel) Reset() error {
	return k.field.Initialize(k.seed)
}
