package export

import (
	"encoding/json"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

type Document struct {
	Meta
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Field   [][]float64 `json:"field"`
	History []float64   `json:"history,omitempty"`
}

func NewDocument(field *mat.Dense, history []float64, meta Meta) Document {
	rows, cols := field.Dims()
	doc := Document{
		Meta:    meta,
		Rows:    rows,
		Cols:    cols,
		Field:   make([][]float64, rows),
		History: history,
	}
	for r := range doc.Field {
		doc.Field[r] = mat.Row(nil, r, field)
	}
	return doc
}

func WriteJSON(w io.Writer, field *mat.Dense, history []float64, meta Meta) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(field, history, meta))
}

func ExportJSON(path string, field *mat.Dense, history []float64, meta Meta) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, field, history, meta)
}

// ReadJSON decodes a document written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, *mat.Dense, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, err
	}
	field := mat.NewDense(max(doc.Rows, 1), max(doc.Cols, 1), nil)
	for i, row := range doc.Field {
		field.SetRow(i, row)
	}
	return &doc, field, nil
}
