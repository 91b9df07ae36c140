package solver_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/thermolb/internal/convergence"
	"github.com/san-kum/thermolb/internal/lattice"
	"github.com/san-kum/thermolb/internal/solver"
)

// wallsAndInlet is a 5x5 D2Q5 box with hot walls, a cold inlet on the left
// and an open outlet on the right.
func wallsAndInlet() solver.Config {
	return solver.Config{
		NX:         5,
		NY:         5,
		Model:      "d2q5",
		Relaxation: solver.Relaxation{Diffusivity: 0.01},
		Spacing:    1,
		TimeStep:   1,
		Boundary: lattice.BoundarySpec{
			Top:    lattice.FixedEdge(60),
			Bottom: lattice.FixedEdge(60),
			Left:   lattice.AdvectiveEdge(30),
			Right:  lattice.OpenEdge(),
		},
		Initial:       30,
		Tolerance:     1e-4,
		MaxIterations: 2000,
		Norm:          convergence.RMS,
	}
}

func interiorMean(m *mat.Dense) float64 {
	r, c := m.Dims()
	sum := 0.0
	for i := 1; i < r-1; i++ {
		for j := 1; j < c-1; j++ {
			sum += m.At(i, j)
		}
	}
	return sum / float64((r-2)*(c-2))
}

// lastIncrease is the 1-based iteration of the last change that grew, or 0.
func lastIncrease(history []float64) int {
	last := 0
	for i := 1; i < len(history); i++ {
		if history[i] > history[i-1] {
			last = i + 1
		}
	}
	return last
}

var _ = Describe("LBM solver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("walls at 60 with a 30 inlet and no flow", func() {
		var res *solver.Result

		BeforeEach(func() {
			cfg := wallsAndInlet()
			Expect(cfg.RelaxationTime()).To(BeNumerically("~", 0.53, 1e-12))

			s, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err = s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("converges well inside the iteration ceiling", func() {
			Expect(res.State).To(Equal(solver.Converged))
			Expect(res.Iterations).To(BeNumerically(">", 100))
			Expect(res.Iterations).To(BeNumerically("<", 2000))
			Expect(res.Change).To(BeNumerically("<", 1e-4))
			Expect(res.History).To(HaveLen(res.Iterations))
		})

		It("keeps the fixed edges pinned with the side edge owning the corners", func() {
			for c := 1; c < 5; c++ {
				Expect(res.Field.At(0, c)).To(Equal(60.0))
				Expect(res.Field.At(4, c)).To(Equal(60.0))
			}
			for r := 0; r < 5; r++ {
				Expect(res.Field.At(r, 0)).To(Equal(30.0))
			}
		})

		It("settles on the steady profile", func() {
			want := [][]float64{
				{46.215, 56.919, 57.400},
				{36.309, 51.800, 56.921},
				{46.215, 56.919, 57.400},
			}
			for i, row := range want {
				for j, v := range row {
					Expect(res.Field.At(i+1, j+1)).To(BeNumerically("~", v, 0.01))
				}
			}
		})

		It("is symmetric about the middle row", func() {
			for c := 0; c < 5; c++ {
				Expect(res.Field.At(1, c)).To(BeNumerically("~", res.Field.At(3, c), 1e-9))
			}
		})

		It("leaves zero gradient across the open edge", func() {
			for r := 1; r < 4; r++ {
				Expect(res.Field.At(r, 4)).To(BeNumerically("~", res.Field.At(r, 3), 1e-12))
			}
		})

		It("has a non-increasing change after the transient", func() {
			Expect(lastIncrease(res.History)).To(BeNumerically("<=", 50))
		})
	})

	Describe("hot top, cold bottom and open sides", func() {
		It("converges to a profile that is linear in the row and flat across columns", func() {
			cfg := wallsAndInlet()
			cfg.Boundary = lattice.BoundarySpec{
				Top:    lattice.FixedEdge(60),
				Bottom: lattice.FixedEdge(30),
				Left:   lattice.OpenEdge(),
				Right:  lattice.OpenEdge(),
			}
			s, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.State).To(Equal(solver.Converged))
			Expect(res.Iterations).To(BeNumerically("<", 2000))

			for r := 1; r < 4; r++ {
				for c := 1; c < 5; c++ {
					Expect(res.Field.At(r, c)).To(BeNumerically("~", res.Field.At(r, 0), 1e-6))
				}
			}
			Expect(res.Field.At(2, 2)).To(BeNumerically("~", 45, 0.1))
			upper := res.Field.At(1, 2) - res.Field.At(2, 2)
			lower := res.Field.At(2, 2) - res.Field.At(3, 2)
			Expect(upper).To(BeNumerically("~", lower, 0.5))
			Expect(res.Field.At(1, 2)).To(BeNumerically(">", res.Field.At(2, 2)))
		})
	})

	Describe("flow along x from the inlet", func() {
		It("pulls the field toward the inlet value", func() {
			still, err := solver.New(wallsAndInlet())
			Expect(err).NotTo(HaveOccurred())
			base, err := still.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			cfg := wallsAndInlet()
			cfg.Velocity = lattice.Vector{X: 0.05}
			moving, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := moving.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.State).To(Equal(solver.Converged))
			Expect(interiorMean(res.Field)).To(BeNumerically("<", interiorMean(base.Field)-5))
			Expect(res.Field.At(2, 1)).To(BeNumerically("<", base.Field.At(2, 1)))
		})
	})

	Describe("unstable relaxation", func() {
		It("is rejected before any iteration", func() {
			cfg := wallsAndInlet()
			cfg.Relaxation = solver.Relaxation{Tau: 0.4}

			s, err := solver.New(cfg)
			Expect(s).To(BeNil())
			Expect(errors.Is(err, solver.ErrUnstableRelaxation)).To(BeTrue())

			var cerr *solver.ConfigError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Field).To(Equal("relaxation"))
		})
	})

	Describe("an iteration ceiling of one", func() {
		It("stops after exactly one iteration without converging", func() {
			cfg := wallsAndInlet()
			cfg.MaxIterations = 1
			s, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.State).To(Equal(solver.MaxIterationsExceeded))
			Expect(res.Iterations).To(Equal(1))

			for c := 1; c < 5; c++ {
				Expect(res.Field.At(1, c)).To(BeNumerically("~", 35, 1e-9))
				Expect(res.Field.At(2, c)).To(BeNumerically("~", 30, 1e-9))
				Expect(res.Field.At(3, c)).To(BeNumerically("~", 35, 1e-9))
			}
			Expect(res.Change).To(BeNumerically("~", 2.8284271247461903, 1e-9))
		})

		It("returns the same field as a single manual step", func() {
			cfg := wallsAndInlet()
			stepped, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(stepped.Step()).To(Succeed())

			cfg.MaxIterations = 1
			capped, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := capped.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(mat.Equal(res.Field, stepped.Field())).To(BeTrue())
		})
	})

	Describe("D2Q9 plate", func() {
		It("converges under the max norm and stays mirror symmetric", func() {
			cfg := solver.Config{
				NX:         8,
				NY:         8,
				Model:      "d2q9",
				Relaxation: solver.Relaxation{Omega: 1},
				Spacing:    1,
				TimeStep:   1,
				Boundary: lattice.BoundarySpec{
					Top:    lattice.FixedEdge(30),
					Bottom: lattice.FixedEdge(60),
					Left:   lattice.FixedEdge(30),
					Right:  lattice.FixedEdge(30),
				},
				Initial:       30,
				Tolerance:     1e-4,
				MaxIterations: 5000,
				Norm:          convergence.Max,
			}
			s, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.State).To(Equal(solver.Converged))
			Expect(res.Iterations).To(BeNumerically("<", 1000))
			Expect(lastIncrease(res.History)).To(Equal(0))
			for r := 0; r < 8; r++ {
				for c := 0; c < 4; c++ {
					Expect(res.Field.At(r, c)).To(BeNumerically("~", res.Field.At(r, 7-c), 1e-9))
				}
			}
			// heat enters from the bottom
			Expect(res.Field.At(6, 3)).To(BeNumerically(">", res.Field.At(1, 3)))
		})
	})
})
