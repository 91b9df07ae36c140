package lattice

// Collide relaxes every population toward its advecting equilibrium
// w[k]*T*(1+3 e[k]·u) at rate omega. T is the stored macroscopic field, so
// each population is read once and overwritten in place.
func Collide(fd *Field, omega float64, u Vector) {
	t := fd.data()
	for k, fac := range fd.model.equilibriumFactors(u) {
		pop := fd.f[k]
		for i := range pop {
			pop[i] += omega * (fac*t[i] - pop[i])
		}
	}
}
