package paillier

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier-tally/pkg/math/sample"
)

// PublicKey is a Paillier public key, with generator g = N + 1.
//
// Since g is fixed, it is never stored: (1+N)ᵐ = 1 + N⋅m (mod N²) lets us
// skip the corresponding exponentiation.
//
// A PublicKey is never modified after creation, and can be used from many
// goroutines at once.
type PublicKey struct {
	// n = N = p⋅q
	n *saferith.Nat
	// nSquared = N²
	nSquared *saferith.Nat

	observer Observer
}

// newPublicKey returns the key for N = n, taking ownership of n.
func newPublicKey(n *saferith.Nat) *PublicKey {
	n.Resize(n.TrueLen())
	nSquared := new(saferith.Nat).Mul(n, n, -1)
	nSquared.Resize(nSquared.TrueLen())
	return &PublicKey{
		n:        n,
		nSquared: nSquared,
	}
}

// modN returns N as a fresh modulus, which the caller may use freely.
func (pk *PublicKey) modN() *saferith.Modulus {
	return saferith.ModulusFromNat(clone(pk.n))
}

// modN2 returns N² as a fresh modulus, which the caller may use freely.
func (pk *PublicKey) modN2() *saferith.Modulus {
	return saferith.ModulusFromNat(clone(pk.nSquared))
}

// WithObserver returns a copy of pk reporting to o.
func (pk *PublicKey) WithObserver(o Observer) *PublicKey {
	out := *pk
	out.observer = o
	return &out
}

func (pk *PublicKey) observe() Observer {
	if pk.observer == nil {
		return NopObserver{}
	}
	return pk.observer
}

// N returns a copy of the modulus N of the public key.
func (pk *PublicKey) N() *saferith.Modulus {
	return pk.modN()
}

// N2 returns a copy of the modulus N² of the public key.
func (pk *PublicKey) N2() *saferith.Modulus {
	return pk.modN2()
}

// Equal returns true if pk ≡ other.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return clone(pk.n).Eq(clone(other.n)) == 1
}

// ValidatePlaintext returns true if m ∈ [0, N).
func (pk *PublicKey) ValidatePlaintext(m *saferith.Nat) bool {
	if m == nil {
		return false
	}
	_, _, lt := clone(m).CmpMod(pk.modN())
	return lt == 1
}

// ValidateCiphertexts checks if all ciphertexts are in the correct range and coprime to N²
// ct ∈ [1, N²-1] AND GCD(ct,N²) = 1.
func (pk *PublicKey) ValidateCiphertexts(cts ...*Ciphertext) bool {
	nSquared := pk.modN2()
	for _, ct := range cts {
		if !validCiphertext(ct, nSquared) {
			return false
		}
	}
	return true
}

func validCiphertext(ct *Ciphertext, nSquared *saferith.Modulus) bool {
	if ct == nil || ct.c == nil {
		return false
	}
	c := ct.Nat()
	if c.EqZero() == 1 {
		return false
	}
	if _, _, lt := c.CmpMod(nSquared); lt != 1 {
		return false
	}
	return c.IsUnit(nSquared) == 1
}

// Nonce returns a suitable nonce ρ for encryption.
// ρ ∈ ℤₙˣ
func (pk *PublicKey) Nonce(rand io.Reader) *saferith.Nat {
	return sample.UnitModN(rand, pk.modN())
}

// Enc returns the encryption of m under the public key pk, using a fresh nonce
// read from rand. It returns ErrPlaintextOutOfRange unless m ∈ [0, N).
//
// ct = (1+N)ᵐρᴺ (mod N²)
func (pk *PublicKey) Enc(rand io.Reader, m *saferith.Nat) (*Ciphertext, error) {
	if !pk.ValidatePlaintext(m) {
		return nil, ErrPlaintextOutOfRange
	}
	return pk.enc(m, pk.Nonce(rand)), nil
}

// EncWithNonce returns the encryption of m under the public key pk, using the given nonce.
// Encrypting the same m with the same nonce always gives the same ciphertext.
func (pk *PublicKey) EncWithNonce(m, nonce *saferith.Nat) (*Ciphertext, error) {
	if !pk.ValidatePlaintext(m) {
		return nil, ErrPlaintextOutOfRange
	}
	if nonce == nil || clone(nonce).IsUnit(pk.modN()) != 1 {
		return nil, ErrInvalidNonce
	}
	return pk.enc(m, nonce), nil
}

func (pk *PublicKey) enc(m, nonce *saferith.Nat) *Ciphertext {
	nSquared := pk.modN2()
	n := clone(pk.n)

	// (1+N)ᵐ = 1 + N⋅m			(mod N²)
	c := new(saferith.Nat).ModMul(n, clone(m), nSquared)
	c.ModAdd(c, natOne(), nSquared)
	// ρᴺ						(mod N²)
	rhoN := new(saferith.Nat).Exp(clone(nonce), n, nSquared)
	// (1+N)ᵐρᴺ					(mod N²)
	c.ModMul(c, rhoN, nSquared)

	ct := &Ciphertext{c: c}
	pk.observe().Encrypted(m, ct)
	return ct
}

// Add returns the homomorphic sum lhs ⊕ rhs, which decrypts to the sum of
// both plaintexts mod N.
// It returns ErrInvalidCiphertext if either operand is not coprime to N².
//
// ct = lhs•rhs (mod N²)
func (pk *PublicKey) Add(lhs, rhs *Ciphertext) (*Ciphertext, error) {
	nSquared := pk.modN2()
	if !validCiphertext(lhs, nSquared) || !validCiphertext(rhs, nSquared) {
		return nil, ErrInvalidCiphertext
	}
	ct := &Ciphertext{c: new(saferith.Nat).ModMul(lhs.Nat(), rhs.Nat(), nSquared)}
	pk.observe().Added(lhs, rhs, ct)
	return ct, nil
}

// Sum folds Add over cts. The sum of no ciphertexts is the trivial encryption of 0.
func (pk *PublicKey) Sum(cts ...*Ciphertext) (*Ciphertext, error) {
	nSquared := pk.modN2()
	sum := natOne()
	for _, ct := range cts {
		if !validCiphertext(ct, nSquared) {
			return nil, ErrInvalidCiphertext
		}
		sum.ModMul(sum, ct.Nat(), nSquared)
	}
	return &Ciphertext{c: sum}, nil
}

// Mul returns the homomorphic multiplication k ⊙ ct, which decrypts to k times
// the plaintext of ct, mod N.
// It returns ErrInvalidCiphertext if ct is not coprime to N²; k may be any integer.
//
// ct = ctᵏ (mod N²)
func (pk *PublicKey) Mul(ct *Ciphertext, k *saferith.Int) (*Ciphertext, error) {
	if k == nil {
		return nil, ErrNilScalar
	}
	nSquared := pk.modN2()
	if !validCiphertext(ct, nSquared) {
		return nil, ErrInvalidCiphertext
	}
	e := new(saferith.Int).SetNat(k.Abs())
	e.Neg(k.IsNegative())
	out := &Ciphertext{c: new(saferith.Nat).ExpI(ct.Nat(), e, nSquared)}
	pk.observe().Multiplied(ct, k, out)
	return out, nil
}
