package curve

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/secp256k1/fp"
)

// ErrVerticalSlope is returned when the requested slope does not exist:
// mirror points, or doubling a point with y = 0.
var ErrVerticalSlope = errors.New("curve: slope undefined for vertical line")

// Slope returns the chord slope (y2−y1)/(x2−x1) for distinct points, or the
// tangent slope 3x²/2y when p1 == p2. The result is the hint the builder
// attaches to a transition witness: the verifier cannot invert mod P, so it
// checks this value against the curve identities instead of recomputing it.
func Slope(p1, p2 Point) (fp.Element, error) {
	var s, num, den fp.Element

	if p1.Equal(p2) {
		if p1.Y.IsZero() {
			return s, ErrVerticalSlope
		}
		num.Square(&p1.X)
		var three fp.Element
		three.SetUint64(3)
		num.Mul(&num, &three)
		den.Double(&p1.Y)
	} else {
		if p1.X.Equal(&p2.X) {
			return s, ErrVerticalSlope
		}
		num.Sub(&p2.Y, &p1.Y)
		den.Sub(&p2.X, &p1.X)
	}

	den.Inverse(&den)
	s.Mul(&num, &den)
	return s, nil
}
