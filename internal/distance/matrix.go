package distance

import "math"

// Matrix is a dense row-major N×K matrix of weighted distances. Row i holds
// demand point i, column j holds centroid j.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix allocates a zeroed rows×cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Rows returns N.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns K.
func (m *Matrix) Cols() int { return m.cols }

// At returns entry (i, j).
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Set writes entry (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// Row returns row i as a slice aliasing the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// ArgMin returns the column of the smallest entry in row i. Ties resolve to
// the lowest column. Returns -1 for a matrix with no columns.
func (m *Matrix) ArgMin(i int) int {
	best := -1
	bestV := math.Inf(1)
	for j, v := range m.Row(i) {
		if best < 0 || v < bestV {
			best, bestV = j, v
		}
	}
	return best
}

// Min returns the smallest entry in row i, or +Inf for a matrix with no columns.
func (m *Matrix) Min(i int) float64 {
	j := m.ArgMin(i)
	if j < 0 {
		return math.Inf(1)
	}
	return m.At(i, j)
}
