package tensor

import "fmt"

// Matrix is a dense row-major matrix. Row i holds the coefficients of
// output unit i, matching the (out_dim × in_dim) layout of a layer's
// weight matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float64 // len == Rows*Cols, row-major
}

// NewMatrix allocates a zero matrix of the given shape.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// NewMatrixFromData wraps an existing row-major slice. The slice is not
// copied; the matrix takes ownership.
func NewMatrixFromData(rows, cols int, data []float64) (*Matrix, error) {
	if len(data) != rows*cols {
		return nil, shapeErr("NewMatrixFromData", []int{rows, cols}, []int{len(data)})
	}
	return &Matrix{Rows: rows, Cols: cols, Data: data}, nil
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// Set assigns element (i, j).
func (m *Matrix) Set(i, j int, v float64) {
	m.Data[i*m.Cols+j] = v
}

// Row returns row i as a slice view into the matrix.
func (m *Matrix) Row(i int) Vector {
	return Vector(m.Data[i*m.Cols : (i+1)*m.Cols])
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	copy(out.Data, m.Data)
	return out
}

// Zero resets every element to 0 in place.
func (m *Matrix) Zero() {
	for i := range m.Data {
		m.Data[i] = 0
	}
}

// String returns a short human-readable description.
func (m *Matrix) String() string {
	return fmt.Sprintf("Matrix(%dx%d)", m.Rows, m.Cols)
}

// MatVec computes m·x.
//
// m has shape (rows × cols); x must have length cols and the result has
// length rows.
func MatVec(m *Matrix, x Vector) (Vector, error) {
	if len(x) != m.Cols {
		return nil, shapeErr("MatVec", []int{m.Cols}, []int{len(x)})
	}
	out := make(Vector, m.Rows)
	for i := 0; i < m.Rows; i++ {
		row := m.Data[i*m.Cols : (i+1)*m.Cols]
		sum := 0.0
		for j, w := range row {
			sum += w * x[j]
		}
		out[i] = sum
	}
	return out, nil
}

// MatTVec computes transpose(m)·x without materializing the transpose.
//
// x must have length rows and the result has length cols. Backpropagation
// uses this to push a layer's delta back to its input.
func MatTVec(m *Matrix, x Vector) (Vector, error) {
	if len(x) != m.Rows {
		return nil, shapeErr("MatTVec", []int{m.Rows}, []int{len(x)})
	}
	out := make(Vector, m.Cols)
	for i := 0; i < m.Rows; i++ {
		row := m.Data[i*m.Cols : (i+1)*m.Cols]
		xi := x[i]
		for j, w := range row {
			out[j] += w * xi
		}
	}
	return out, nil
}

// Outer computes the outer product a⊗b, a matrix of shape (len(a) × len(b))
// with element (i, j) = a[i]*b[j].
func Outer(a, b Vector) *Matrix {
	out := NewMatrix(len(a), len(b))
	for i, ai := range a {
		row := out.Data[i*len(b) : (i+1)*len(b)]
		for j, bj := range b {
			row[j] = ai * bj
		}
	}
	return out
}

// AddMatInPlace adds src into dst element-wise.
func AddMatInPlace(dst, src *Matrix) error {
	if dst.Rows != src.Rows || dst.Cols != src.Cols {
		return shapeErr("AddMatInPlace", []int{dst.Rows, dst.Cols}, []int{src.Rows, src.Cols})
	}
	for i, s := range src.Data {
		dst.Data[i] += s
	}
	return nil
}

// ScaleMatInPlace multiplies every element of m by s.
func ScaleMatInPlace(m *Matrix, s float64) {
	for i := range m.Data {
		m.Data[i] *= s
	}
}
