package tensor

// Vector is a fixed-length dense vector.
type Vector []float64

// NewVector allocates a zero vector of length n.
func NewVector(n int) Vector {
	return make(Vector, n)
}

// Clone returns a deep copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Zero resets every element to 0 in place.
func (v Vector) Zero() {
	for i := range v {
		v[i] = 0
	}
}

// AddInPlace adds src into dst element-wise. The destination is modified;
// no new buffer is allocated.
func AddInPlace(dst, src Vector) error {
	if len(dst) != len(src) {
		return shapeErr("AddInPlace", []int{len(dst)}, []int{len(src)})
	}
	for i, s := range src {
		dst[i] += s
	}
	return nil
}

// ScaleInPlace multiplies every element of v by s.
func ScaleInPlace(v Vector, s float64) {
	for i := range v {
		v[i] *= s
	}
}

// Map returns a new vector with f applied to every element of v.
func Map(v Vector, f func(float64) float64) Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = f(x)
	}
	return out
}

// Dot returns the inner product of a and b.
func Dot(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, shapeErr("Dot", []int{len(a)}, []int{len(b)})
	}
	sum := 0.0
	for i, x := range a {
		sum += x * b[i]
	}
	return sum, nil
}

// MulElem returns the element-wise (Hadamard) product of a and b.
func MulElem(a, b Vector) (Vector, error) {
	if len(a) != len(b) {
		return nil, shapeErr("MulElem", []int{len(a)}, []int{len(b)})
	}
	out := make(Vector, len(a))
	for i, x := range a {
		out[i] = x * b[i]
	}
	return out, nil
}
