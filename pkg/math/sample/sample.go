package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier-tally/internal/params"
)

// ErrMaxIterations is the panic value when a source of randomness keeps failing.
var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", params.MaxSampleIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < params.MaxSampleIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// ModN samples an element of ℤₙ uniformly.
func ModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	out := new(saferith.Nat)
	bits := n.BitLen()
	buf := make([]byte, (bits+7)/8)
	// Clearing the excess high bits keeps the rejection rate below 1/2.
	mask := byte(0xFF)
	if r := bits % 8; r != 0 {
		mask = byte(1<<r) - 1
	}
	for {
		mustReadBits(rand, buf)
		buf[0] &= mask
		out.SetBytes(buf)
		_, _, lt := out.CmpMod(n)
		if lt == 1 {
			break
		}
	}
	return out
}

// UnitModN returns a u ∈ ℤₙˣ.
func UnitModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	for i := 0; i < params.MaxSampleIterations; i++ {
		// PERF: Reuse buffer instead of allocating each time
		u := ModN(rand, n)
		if u.IsUnit(n) == 1 {
			return u
		}
	}
	panic(ErrMaxIterations)
}
