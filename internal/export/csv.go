package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// WriteCSV writes one CSV record per grid row, top row first.
func WriteCSV(w io.Writer, field mat.Matrix) error {
	cw := csv.NewWriter(w)
	rows, cols := field.Dims()
	record := make([]string, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			record[c] = strconv.FormatFloat(field.At(r, c), 'f', 6, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
