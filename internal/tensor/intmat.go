package tensor

// IntMat represents a dense row-major matrix of int32 values. Token-id
// buffers, attention masks and position ids all use this layout.
type IntMat struct {
	R, C int
	Data []int32
}

// NewIntMat allocates a zeroed [r, c] matrix.
func NewIntMat(r, c int) *IntMat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return &IntMat{
		R:    r,
		C:    c,
		Data: make([]int32, r*c),
	}
}

// NewIntMatFromData creates a matrix from existing data.
// It checks that the data length matches r*c.
func NewIntMatFromData(r, c int, data []int32) *IntMat {
	if r*c != len(data) {
		panic("data length mismatch")
	}
	return &IntMat{R: r, C: c, Data: data}
}

// Full allocates a [r, c] matrix with every element set to v.
func Full(r, c int, v int32) *IntMat {
	m := NewIntMat(r, c)
	for i := range m.Data {
		m.Data[i] = v
	}
	return m
}

// Ones allocates a [r, c] matrix of ones, the default attention mask.
func Ones(r, c int) *IntMat {
	return Full(r, c, 1)
}

// Row returns a view of the i-th row. Modifications to the returned
// slice update the underlying matrix values.
func (m *IntMat) Row(i int) []int32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.C
	return m.Data[start : start+m.C]
}

// At returns the element at row i, column j.
func (m *IntMat) At(i, j int) int32 {
	return m.Row(i)[j]
}

// Set assigns the element at row i, column j.
func (m *IntMat) Set(i, j int, v int32) {
	m.Row(i)[j] = v
}

// SetCol writes vals down column j, one value per row.
func (m *IntMat) SetCol(j int, vals []int32) {
	if len(vals) != m.R {
		panic("column length mismatch")
	}
	for i, v := range vals {
		m.Row(i)[j] = v
	}
}

// Col copies column j into a fresh slice, one value per row.
func (m *IntMat) Col(j int) []int32 {
	out := make([]int32, m.R)
	for i := range out {
		out[i] = m.Row(i)[j]
	}
	return out
}

// Clone returns a deep copy of the matrix.
func (m *IntMat) Clone() *IntMat {
	out := NewIntMat(m.R, m.C)
	copy(out.Data, m.Data)
	return out
}

// CumSumRows computes, per row, the running sum of elements. Position
// ids for a padded batch derive from this: cumsum(mask)-1 counts the
// attended positions up to and including each column.
func CumSumRows(m *IntMat) *IntMat {
	out := NewIntMat(m.R, m.C)
	for i := 0; i < m.R; i++ {
		src := m.Row(i)
		dst := out.Row(i)
		var sum int32
		for j, v := range src {
			sum += v
			dst[j] = sum
		}
	}
	return out
}
