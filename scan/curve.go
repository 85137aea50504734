package scan

// Point is one (frequency, amplitude) pair of a sweep curve.
type Point struct {
	Frequency uint64  `json:"frequency"` // Hz
	Amplitude float64 `json:"amplitude"` // averaged peak current estimate in amperes
}

// Curve is a bounded, frequency-ordered sequence of sample points.
//
// Storage is allocated once at construction and never grows. When a
// sweep produces more steps than the capacity, the stored points are
// decimated in place at a power-of-two stride, so the sequence stays
// ordered and roughly evenly spaced across the band. Appends must
// arrive in ascending frequency order; the curve does not sort.
type Curve struct {
	pts     []Point
	n       int
	stride  int // accept every stride'th append
	appends int
}

// NewCurve creates a curve holding at most capacity points.
func NewCurve(capacity int) *Curve {
	if capacity < 8 {
		capacity = 8
	}

	return &Curve{pts: make([]Point, capacity), stride: 1}
}

// Append records a point, subject to the current decimation stride.
func (c *Curve) Append(p Point) {
	keep := c.appends%c.stride == 0
	c.appends++

	if !keep {
		return
	}

	if c.n == len(c.pts) {
		c.decimate()
	}

	c.pts[c.n] = p
	c.n++
}

// decimate halves the stored points in place and doubles the stride.
func (c *Curve) decimate() {
	half := (c.n + 1) / 2
	for i := 0; i < half; i++ {
		c.pts[i] = c.pts[2*i]
	}

	c.n = half
	c.stride *= 2
}

// Points returns a view of the stored points, ordered by frequency.
// The slice aliases internal storage and is invalidated by Append and
// Reset.
func (c *Curve) Points() []Point {
	return c.pts[:c.n]
}

// Len returns the number of stored points.
func (c *Curve) Len() int {
	return c.n
}

// Cap returns the fixed capacity.
func (c *Curve) Cap() int {
	return len(c.pts)
}

// Stride returns the current decimation stride.
func (c *Curve) Stride() int {
	return c.stride
}

// Reset empties the curve without releasing storage.
func (c *Curve) Reset() {
	c.n = 0
	c.stride = 1
	c.appends = 0
}
