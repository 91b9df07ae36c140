package lattice

// Stream shifts every direction by its velocity with wraparound. All
// directions are read from the pre-shift arrays and written into the spare
// buffer, which then becomes the live one.
func Stream(fd *Field) {
	rows, cols := fd.rows, fd.cols
	for k, v := range fd.model.Velocities {
		src, dst := fd.f[k], fd.next[k]
		if v == (Velocity{}) {
			copy(dst, src)
			continue
		}
		for r := 0; r < rows; r++ {
			dr := wrap(r+v.Y, rows) * cols
			row := src[r*cols : (r+1)*cols]
			for c, p := range row {
				dst[dr+wrap(c+v.X, cols)] = p
			}
		}
	}
	fd.f, fd.next = fd.next, fd.f
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
