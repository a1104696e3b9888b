package curve

import (
	"encoding/binary"
	"errors"

	"github.com/consensys/gnark-crypto/ecc/secp256k1/fp"
	sha256 "github.com/minio/sha256-simd"
)

// ErrMappingExhausted is returned when no counter in [0,255] yields a valid
// x-coordinate for the given identifier. Token identifiers are fixed, so the
// caller must treat this as a fatal configuration error, not a retryable one.
var ErrMappingExhausted = errors.New("curve: hash-to-curve counter range exhausted")

// HashToCurve deterministically maps an identifier to a curve point by
// try-and-increment: x = SHA-256(id ‖ BE32(counter)) for counter 0,1,2,...
// and the first x whose x³ + 7 is a quadratic residue wins. The returned y
// follows the even convention (the root whose integer value is even), so
// independent implementations land on the same point. The successful counter
// is returned alongside the point.
//
// The 32-byte digest is interpreted big-endian and reduced into [0, P);
// both sides of the protocol share that convention.
func HashToCurve(id []byte) (Point, uint8, error) {
	buf := make([]byte, 0, len(id)+4)
	buf = append(buf, id...)
	buf = buf[:len(id)+4]

	for counter := 0; counter < 256; counter++ {
		binary.BigEndian.PutUint32(buf[len(id):], uint32(counter))
		h := sha256.Sum256(buf)

		var x, rhs fp.Element
		x.SetBytes(h[:])
		rhs.Square(&x)
		rhs.Mul(&rhs, &x)
		rhs.Add(&rhs, &CurveB)

		var y fp.Element
		if y.Sqrt(&rhs) == nil {
			continue
		}
		yb := y.Bytes()
		if yb[len(yb)-1]&1 == 1 {
			y.Neg(&y)
		}
		return Point{X: x, Y: y}, uint8(counter), nil
	}
	return Point{}, 0, ErrMappingExhausted
}
