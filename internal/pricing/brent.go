package pricing

import (
	"math"

	apperrors "github.com/bob7452/Icarus/internal/errors"
)

const (
	brentMaxIter = 100
	brentXTol    = 1e-10
)

// brent finds a root of f in [a, b] with Brent's method: inverse quadratic
// interpolation where it helps, secant or bisection otherwise. The bracket
// endpoints must have opposite signs; otherwise ErrNoSolution is returned.
func brent(f func(float64) float64, a, b float64) (float64, error) {
	fa := f(a)
	fb := f(b)

	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if math.IsNaN(fa) || math.IsNaN(fb) || fa*fb > 0 {
		return 0, apperrors.ErrNoSolution
	}

	c, fc := a, fa
	d := b - a
	e := d

	for i := 0; i < brentMaxIter; i++ {
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		eps := math.Nextafter(1, 2) - 1
		tol := 2*eps*math.Abs(b) + brentXTol
		m := 0.5 * (c - b)

		if math.Abs(m) <= tol || fb == 0 {
			return b, nil
		}

		if math.Abs(e) < tol || math.Abs(fa) <= math.Abs(fb) {
			// Interpolation is not making progress; bisect.
			d = m
			e = m
		} else {
			s := fb / fa
			var p, q float64
			if a == c {
				// Secant step.
				p = 2 * m * s
				q = 1 - s
			} else {
				// Inverse quadratic interpolation.
				qa := fa / fc
				r := fb / fc
				p = s * (2*m*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = m
				e = m
			}
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else if m > 0 {
			b += tol
		} else {
			b -= tol
		}
		fb = f(b)

		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
	}

	return b, nil
}
