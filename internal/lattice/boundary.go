package lattice

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Edge names one side of the grid. Row 0 is the top edge.
type Edge int

const (
	Top Edge = iota
	Bottom
	Left
	Right
)

// Edges lists the sides in enforcement order.
var Edges = []Edge{Top, Bottom, Left, Right}

func (e Edge) String() string {
	switch e {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

// Inward is the unit normal pointing from the edge into the domain.
func (e Edge) Inward() Velocity {
	switch e {
	case Top:
		return Velocity{0, 1}
	case Bottom:
		return Velocity{0, -1}
	case Left:
		return Velocity{1, 0}
	default:
		return Velocity{-1, 0}
	}
}

// Kind is the boundary condition applied on an edge.
type Kind int

const (
	KindUnset Kind = iota
	KindFixed
	KindOpen
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindOpen:
		return "open"
	default:
		return "unset"
	}
}

// ParseKind accepts "fixed" (alias "dirichlet") and "open" (alias "neumann").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "fixed", "dirichlet":
		return KindFixed, nil
	case "open", "neumann", "zero-gradient":
		return KindOpen, nil
	}
	return KindUnset, fmt.Errorf("%w: unknown kind %q", ErrInvalidBoundary, s)
}

// Correction selects the population written into incoming directions on a
// fixed edge.
type Correction int

const (
	// Rest writes w[k]*V.
	Rest Correction = iota
	// Advective writes w[k]*V*(1+3 e[k]·u).
	Advective
)

func (c Correction) String() string {
	if c == Advective {
		return "advective"
	}
	return "rest"
}

func ParseCorrection(s string) (Correction, error) {
	switch strings.ToLower(s) {
	case "", "rest":
		return Rest, nil
	case "advective":
		return Advective, nil
	}
	return Rest, fmt.Errorf("%w: unknown correction %q", ErrInvalidBoundary, s)
}

// EdgeSpec describes the condition on one edge. Value and Correction only
// apply to fixed edges.
type EdgeSpec struct {
	Kind       Kind
	Value      float64
	Correction Correction
}

func FixedEdge(v float64) EdgeSpec {
	return EdgeSpec{Kind: KindFixed, Value: v}
}

func AdvectiveEdge(v float64) EdgeSpec {
	return EdgeSpec{Kind: KindFixed, Value: v, Correction: Advective}
}

func OpenEdge() EdgeSpec {
	return EdgeSpec{Kind: KindOpen}
}

// BoundarySpec assigns a condition to each of the four edges.
type BoundarySpec struct {
	Top, Bottom, Left, Right EdgeSpec
}

func (b BoundarySpec) Edge(e Edge) EdgeSpec {
	switch e {
	case Top:
		return b.Top
	case Bottom:
		return b.Bottom
	case Left:
		return b.Left
	default:
		return b.Right
	}
}

// Validate requires every edge to carry a known kind.
func (b BoundarySpec) Validate() error {
	for _, e := range Edges {
		s := b.Edge(e)
		if s.Kind != KindFixed && s.Kind != KindOpen {
			return fmt.Errorf("%w: %s edge has kind %s", ErrInvalidBoundary, e, s.Kind)
		}
		if s.Correction != Rest && s.Correction != Advective {
			return fmt.Errorf("%w: %s edge has correction %d", ErrInvalidBoundary, e, int(s.Correction))
		}
	}
	return nil
}

// FixedRange returns the smallest and largest fixed-edge values. ok is false
// when no edge is fixed.
func (b BoundarySpec) FixedRange() (lo, hi float64, ok bool) {
	for _, e := range Edges {
		s := b.Edge(e)
		if s.Kind != KindFixed {
			continue
		}
		if !ok {
			lo, hi, ok = s.Value, s.Value, true
			continue
		}
		lo = min(lo, s.Value)
		hi = max(hi, s.Value)
	}
	return lo, hi, ok
}

// ScalarBoundary applies a BoundarySpec directly to a macroscopic grid.
type ScalarBoundary struct {
	spec   BoundarySpec
	rows   int
	cols   int
	values *mat.Dense
	mask   *Mask
}

func NewScalarBoundary(spec BoundarySpec, rows, cols int) (*ScalarBoundary, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if rows < 3 || cols < 3 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrGridTooSmall, rows, cols)
	}
	sb := &ScalarBoundary{
		spec:   spec,
		rows:   rows,
		cols:   cols,
		values: mat.NewDense(rows, cols, nil),
		mask:   NewMask(rows, cols),
	}
	for _, e := range Edges {
		s := spec.Edge(e)
		if s.Kind != KindFixed {
			continue
		}
		for _, cell := range edgeCells(e, rows, cols) {
			sb.values.Set(cell[0], cell[1], s.Value)
			sb.mask.Set(cell[0], cell[1])
		}
	}
	return sb, nil
}

// Pin forces the fixed-edge values onto m. Corners take the left or right
// value when those edges are fixed.
func (sb *ScalarBoundary) Pin(m *mat.Dense) {
	for r := 0; r < sb.rows; r++ {
		for c := 0; c < sb.cols; c++ {
			if sb.mask.Has(r, c) {
				m.Set(r, c, sb.values.At(r, c))
			}
		}
	}
}

// CopyOpen copies the adjacent interior layer onto every open edge of m.
func (sb *ScalarBoundary) CopyOpen(m *mat.Dense) {
	for _, e := range Edges {
		if sb.spec.Edge(e).Kind != KindOpen {
			continue
		}
		for _, cell := range edgeCells(e, sb.rows, sb.cols) {
			r, c := inner(e, cell[0], cell[1])
			m.Set(cell[0], cell[1], m.At(r, c))
		}
	}
}

// Enforcer applies a BoundarySpec to a Field after streaming.
//
// Reconstruction runs open edges first, copying every direction from the
// adjacent interior layer, then fixed edges in Edges order, writing only the
// directions that point into the domain. Pinning reprojects the macroscopic
// field and overwrites fixed-edge cells in the same order, so left and right
// own the corners.
type Enforcer struct {
	scalar  *ScalarBoundary
	model   VelocityModel
	inflows map[Edge][]inflow
}

type inflow struct {
	k   int
	pop float64
}

func NewEnforcer(spec BoundarySpec, model VelocityModel, u Vector, rows, cols int) (*Enforcer, error) {
	scalar, err := NewScalarBoundary(spec, rows, cols)
	if err != nil {
		return nil, err
	}
	en := &Enforcer{
		scalar:  scalar,
		model:   model,
		inflows: make(map[Edge][]inflow),
	}
	for _, e := range Edges {
		s := spec.Edge(e)
		if s.Kind != KindFixed {
			continue
		}
		n := e.Inward()
		for k, v := range model.Velocities {
			if v.X*n.X+v.Y*n.Y <= 0 {
				continue
			}
			pop := model.Weights[k] * s.Value
			if s.Correction == Advective {
				pop = model.Equilibrium(k, s.Value, u)
			}
			en.inflows[e] = append(en.inflows[e], inflow{k: k, pop: pop})
		}
	}
	return en, nil
}

// Apply runs Reconstruct and then Pin.
func (en *Enforcer) Apply(fd *Field) error {
	if err := en.Reconstruct(fd); err != nil {
		return err
	}
	en.Pin(fd)
	return nil
}

// Reconstruct rewrites edge populations that streaming left undefined.
func (en *Enforcer) Reconstruct(fd *Field) error {
	rows, cols := en.scalar.rows, en.scalar.cols
	if r, c := fd.Dims(); r != rows || c != cols {
		return fmt.Errorf("%w: field %dx%d, enforcer %dx%d", ErrShapeMismatch, r, c, rows, cols)
	}
	if fd.model.Q() != en.model.Q() {
		return fmt.Errorf("%w: field has %d directions, enforcer %d", ErrShapeMismatch, fd.model.Q(), en.model.Q())
	}
	for _, e := range Edges {
		if en.scalar.spec.Edge(e).Kind != KindOpen {
			continue
		}
		for _, cell := range edgeCells(e, rows, cols) {
			r, c := inner(e, cell[0], cell[1])
			for k := range fd.f {
				fd.f[k][cell[0]*cols+cell[1]] = fd.f[k][r*cols+c]
			}
		}
	}
	for _, e := range Edges {
		in := en.inflows[e]
		if len(in) == 0 {
			continue
		}
		for _, cell := range edgeCells(e, rows, cols) {
			for _, p := range in {
				fd.SetPopulation(p.k, cell[0], cell[1], p.pop)
			}
		}
	}
	return nil
}

// Pin reprojects the macroscopic field and forces the fixed-edge values.
func (en *Enforcer) Pin(fd *Field) {
	fd.Reproject()
	fd.ForceMacroscopic(en.scalar.values, en.scalar.mask)
}

// inner is the neighbor one layer into the domain from an edge cell.
func inner(e Edge, r, c int) (int, int) {
	n := e.Inward()
	return r + n.Y, c + n.X
}

func edgeCells(e Edge, rows, cols int) [][2]int {
	var out [][2]int
	switch e {
	case Top, Bottom:
		r := 0
		if e == Bottom {
			r = rows - 1
		}
		for c := 0; c < cols; c++ {
			out = append(out, [2]int{r, c})
		}
	default:
		c := 0
		if e == Right {
			c = cols - 1
		}
		for r := 0; r < rows; r++ {
			out = append(out, [2]int{r, c})
		}
	}
	return out
}
