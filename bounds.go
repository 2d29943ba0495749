package gosymopt

import "math"

// gonum's local methods are unconstrained, so each bounded coordinate x is
// written as a smooth function of a free coordinate u:
//
//	[l, u]:   x = l + (h-l)(sin u + 1)/2
//	[l, inf): x = l - 1 + sqrt(u²+1)
//	(-inf,h]: x = h + 1 - sqrt(u²+1)
//
// dx/du vanishes exactly on a bound, so start points there are moved
// edgeOffset inward in u.
const edgeOffset = 1e-3

type boxTransform []Bound

func (t boxTransform) internal(x []float64) []float64 {
	u := make([]float64, len(x))
	for i, b := range t {
		u[i] = b.internal(x[i])
	}
	return u
}

func (t boxTransform) external(u []float64) []float64 {
	x := make([]float64, len(u))
	for i, b := range t {
		x[i] = b.external(u[i])
	}
	return x
}

// chain converts a gradient with respect to x into one with respect to u.
func (t boxTransform) chain(grad, u []float64) {
	for i, b := range t {
		grad[i] *= b.slope(u[i])
	}
}

func (b Bound) hasLower() bool { return !math.IsInf(b.Lower, -1) }
func (b Bound) hasUpper() bool { return !math.IsInf(b.Upper, 1) }

func (b Bound) external(u float64) float64 {
	switch {
	case b.hasLower() && b.hasUpper():
		return b.Lower + (b.Upper-b.Lower)*(math.Sin(u)+1)/2
	case b.hasLower():
		return b.Lower - 1 + math.Sqrt(u*u+1)
	case b.hasUpper():
		return b.Upper + 1 - math.Sqrt(u*u+1)
	}
	return u
}

func (b Bound) slope(u float64) float64 {
	switch {
	case b.hasLower() && b.hasUpper():
		return (b.Upper - b.Lower) * math.Cos(u) / 2
	case b.hasLower():
		return u / math.Sqrt(u*u+1)
	case b.hasUpper():
		return -u / math.Sqrt(u*u+1)
	}
	return 1
}

func (b Bound) internal(x float64) float64 {
	x = b.Clamp(x)
	switch {
	case b.hasLower() && b.hasUpper():
		if b.Upper == b.Lower {
			return 0
		}
		s := 2*(x-b.Lower)/(b.Upper-b.Lower) - 1
		u := math.Asin(math.Max(-1, math.Min(1, s)))
		return math.Max(-math.Pi/2+edgeOffset, math.Min(math.Pi/2-edgeOffset, u))
	case b.hasLower():
		d := x - b.Lower + 1
		return math.Max(edgeOffset, math.Sqrt(d*d-1))
	case b.hasUpper():
		d := b.Upper - x + 1
		return math.Max(edgeOffset, math.Sqrt(d*d-1))
	}
	return x
}

// atBound reports which side of b (if any) x sits on, within tol.
func (b Bound) atBound(x, tol float64) (lower, upper bool) {
	lower = b.hasLower() && x-b.Lower <= tol*(1+math.Abs(b.Lower))
	upper = b.hasUpper() && b.Upper-x <= tol*(1+math.Abs(b.Upper))
	return lower, upper
}
