// Package curve implements the affine short-Weierstrass arithmetic
// (y² = x³ + 7 over the 256-bit prime field P = 2^256 − 2^32 − 977) that
// the spend-time transition verifier mirrors. The builder uses it to derive
// witness values; the verifier never calls it, but both sides must agree
// bit-for-bit on field-reduction conventions, which is why all arithmetic
// goes through fp.Element (always reduced into [0, P)).
package curve

import (
	"github.com/consensys/gnark-crypto/ecc/secp256k1/fp"
)

// CurveB is the constant term of the curve equation.
var CurveB fp.Element

func init() {
	CurveB.SetUint64(7)
}

// Point is an affine curve point. The pair (0,0) is the infinity sentinel:
// the group identity is not representable in affine coordinates, and (0,0)
// is not on y² = x³ + 7, so the sentinel never collides with a real point.
type Point struct {
	X, Y fp.Element
}

// Infinity returns the identity sentinel.
func Infinity() Point {
	return Point{}
}

// IsInfinity reports whether p is the identity sentinel.
func (p Point) IsInfinity() bool {
	return p.X.IsZero() && p.Y.IsZero()
}

// Equal reports coordinate-wise equality.
func (p Point) Equal(q Point) bool {
	return p.X.Equal(&q.X) && p.Y.Equal(&q.Y)
}

// OnCurve reports whether p satisfies y² = x³ + 7. The infinity sentinel is
// not a curve point.
func (p Point) OnCurve() bool {
	if p.IsInfinity() {
		return false
	}
	var lhs, rhs fp.Element
	lhs.Square(&p.Y)
	rhs.Square(&p.X)
	rhs.Mul(&rhs, &p.X)
	rhs.Add(&rhs, &CurveB)
	return lhs.Equal(&rhs)
}

// NewPoint builds a point from 32-byte big-endian coordinates.
func NewPoint(x, y [32]byte) Point {
	var p Point
	p.X.SetBytes(x[:])
	p.Y.SetBytes(y[:])
	return p
}

// Coords returns the 32-byte big-endian coordinate encoding.
func (p Point) Coords() (x, y [32]byte) {
	x = p.X.Bytes()
	y = p.Y.Bytes()
	return
}

// Add returns p1 + p2. Equal operands route to Double explicitly; the chord
// formula divides by x2−x1 and must never see them.
func Add(p1, p2 Point) Point {
	if p1.IsInfinity() {
		return p2
	}
	if p2.IsInfinity() {
		return p1
	}
	if p1.Equal(p2) {
		return Double(p1)
	}
	if p1.X.Equal(&p2.X) {
		// Mirror points: p + (−p) = identity.
		return Infinity()
	}

	var s, num, den fp.Element
	num.Sub(&p2.Y, &p1.Y)
	den.Sub(&p2.X, &p1.X)
	den.Inverse(&den)
	s.Mul(&num, &den)

	return completeAddition(s, p1, p2)
}

// Double returns 2p using the tangent slope s = 3x² / 2y.
func Double(p Point) Point {
	if p.IsInfinity() {
		return p
	}
	if p.Y.IsZero() {
		// Vertical tangent: 2p is the identity.
		return Infinity()
	}

	var s, num, den fp.Element
	num.Square(&p.X)
	var three fp.Element
	three.SetUint64(3)
	num.Mul(&num, &three)
	den.Double(&p.Y)
	den.Inverse(&den)
	s.Mul(&num, &den)

	return completeAddition(s, p, p)
}

// completeAddition evaluates the group law given a slope:
//
//	x3 = s² − x1 − x2
//	y3 = s·(x1 − x3) − y1
//
// These are the same identities the on-chain physics check re-verifies, so
// any change here must stay in lockstep with the verifier.
func completeAddition(s fp.Element, p1, p2 Point) Point {
	var out Point
	out.X.Square(&s)
	out.X.Sub(&out.X, &p1.X)
	out.X.Sub(&out.X, &p2.X)

	out.Y.Sub(&p1.X, &out.X)
	out.Y.Mul(&out.Y, &s)
	out.Y.Sub(&out.Y, &p1.Y)
	return out
}

// ScalarMul returns k·p by double-and-add. Transfer amounts are unsigned
// 64-bit values, so no wider scalars occur in this protocol.
func ScalarMul(p Point, k uint64) Point {
	acc := Infinity()
	addend := p
	for k != 0 {
		if k&1 == 1 {
			acc = Add(acc, addend)
		}
		addend = Double(addend)
		k >>= 1
	}
	return acc
}
