package tensor

import "math/rand"

// Mat represents a dense row-major matrix of float32 values.
//
// R and C represent the number of rows and columns respectively. Stride
// is the number of elements between the starts of two consecutive rows
// (for row-major matrices this is equal to C). Data holds the flattened
// matrix values.
//
// Mat does not perform any memory safety beyond the checks performed by
// Go's slice types; out-of-range indices will panic.
type Mat struct {
	R, C   int
	Stride int
	Data   []float32
}

// NewMat allocates a new matrix with the given number of rows and
// columns. The underlying slice is zero initialised. The stride is set
// to the number of columns.
func NewMat(r, c int) *Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return &Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   make([]float32, r*c),
	}
}

// NewMatFromData creates a matrix from existing data.
// It checks that the data length matches r*c.
func NewMatFromData(r, c int, data []float32) *Mat {
	if r*c != len(data) {
		panic("data length mismatch")
	}
	return &Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   data,
	}
}

// Row returns a view of the i-th row of the matrix as a slice. The
// slice has length equal to the number of columns. Modifications to the
// returned slice update the underlying matrix values.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// At returns the element at row i, column j.
func (m *Mat) At(i, j int) float32 {
	return m.Row(i)[j]
}

// Set assigns the element at row i, column j.
func (m *Mat) Set(i, j int, v float32) {
	m.Row(i)[j] = v
}

// Clone returns a deep copy of the matrix.
func (m *Mat) Clone() *Mat {
	out := NewMat(m.R, m.C)
	for i := 0; i < m.R; i++ {
		copy(out.Row(i), m.Row(i))
	}
	return out
}

// FillRand fills the matrix with reproducible pseudo-random values. A
// small range around zero is used to avoid overflow in accumulations.
// The seed controls the random sequence; multiple calls with the same
// seed produce identical matrices.
func FillRand(m *Mat, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Data {
		m.Data[i] = (rng.Float32() - 0.5) * 0.02 // roughly in (-0.01,0.01)
	}
}

// Mat3 represents a dense row-major rank-3 tensor of float32 values
// with shape [B, R, C]. Forward passes produce logits in this layout:
// batch x sequence x vocabulary.
type Mat3 struct {
	B, R, C int
	Data    []float32
}

// NewMat3 allocates a zeroed [b, r, c] tensor.
func NewMat3(b, r, c int) *Mat3 {
	if b < 0 || r < 0 || c < 0 {
		panic("negative dimension for tensor")
	}
	return &Mat3{
		B:    b,
		R:    r,
		C:    c,
		Data: make([]float32, b*r*c),
	}
}

// Row returns a view of the [i, j, :] vector.
func (t *Mat3) Row(i, j int) []float32 {
	if i < 0 || i >= t.B || j < 0 || j >= t.R {
		panic("index out of range")
	}
	start := (i*t.R + j) * t.C
	return t.Data[start : start+t.C]
}

// LastStep copies the final sequence position of every batch row into a
// fresh [B, C] matrix. Only the most recent position carries next-token
// scores, so this is the slice a decode step reads.
func (t *Mat3) LastStep() *Mat {
	out := NewMat(t.B, t.C)
	for i := 0; i < t.B; i++ {
		copy(out.Row(i), t.Row(i, t.R-1))
	}
	return out
}
