package paillier

import (
	"encoding"
	"io"

	"github.com/cronokirby/saferith"
)

var (
	_ encoding.BinaryMarshaler   = (*Ciphertext)(nil)
	_ encoding.BinaryUnmarshaler = (*Ciphertext)(nil)
)

// Ciphertext is an element of ℤ_{N²}, produced by PublicKey.Enc or by the
// homomorphic operations. Operations never modify their operands.
type Ciphertext struct {
	c *saferith.Nat
}

// NewCiphertext wraps a copy of c, trimmed to its true length.
//
// The result is not checked against any key: use PublicKey.ValidateCiphertexts,
// or let the operations consuming it do so.
func NewCiphertext(c *saferith.Nat) *Ciphertext {
	return &Ciphertext{c: trimmed(c)}
}

// trimmed returns a copy of x without leading zero limbs.
func trimmed(x *saferith.Nat) *saferith.Nat {
	out := clone(x)
	return out.Resize(out.TrueLen())
}

// Nat returns a copy of the integer representing ct.
func (ct *Ciphertext) Nat() *saferith.Nat {
	return clone(ct.c)
}

// Equal check whether ct ≡ ctₐ (mod N²).
func (ct *Ciphertext) Equal(ctA *Ciphertext) bool {
	if ct == nil || ctA == nil || ct.c == nil || ctA.c == nil {
		return ct == ctA
	}
	return ct.Nat().Eq(ctA.Nat()) == 1
}

// Clone returns a deep copy of ct.
func (ct *Ciphertext) Clone() *Ciphertext {
	return NewCiphertext(ct.c)
}

// bytes returns the big-endian encoding of ct, without leading zeros.
func (ct *Ciphertext) bytes() []byte {
	return trimmed(ct.c).Bytes()
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (ct *Ciphertext) WriteTo(w io.Writer) (int64, error) {
	if ct == nil || ct.c == nil {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write(ct.bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (*Ciphertext) Domain() string {
	return "Paillier Ciphertext"
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {
	if ct == nil || ct.c == nil {
		return nil, ErrInvalidCiphertext
	}
	return ct.bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (ct *Ciphertext) UnmarshalBinary(data []byte) error {
	ct.c = trimmed(new(saferith.Nat).SetBytes(data))
	return nil
}

// String implements fmt.Stringer, printing ct in decimal.
func (ct *Ciphertext) String() string {
	if ct == nil || ct.c == nil {
		return "<nil>"
	}
	return ct.Nat().Big().String()
}
