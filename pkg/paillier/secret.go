package paillier

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier-tally/internal/params"
)

// SecretKey is the secret key corresponding to a Public Paillier Key.
//
// A public key is a modulus N, and the secret key contains the information
// needed to factor N into two primes, P and Q. This allows us to decrypt
// values encrypted using this modulus.
//
// A SecretKey is never modified after creation, and can be used from many
// goroutines at once.
type SecretKey struct {
	pk *PublicKey
	// p, q such that N = p⋅q
	p, q *saferith.Nat
	// lambda = λ = N + 1 - p - q = (p-1)(q-1)
	lambda *saferith.Nat
	// mu = μ = λ⁻¹ mod N
	mu *saferith.Nat
	// power computes c^λ (mod N²) through p² and q²
	power *lambdaPower
}

// NewSecretKeyFromPrimes builds a SecretKey from two known primes.
//
// Unlike KeyGenerator, it does not retry: unsuitable primes are reported with
// ErrPrimeNil, ErrNotPrime, ErrPrimesEqual or ErrLambdaNotInvertible.
func NewSecretKeyFromPrimes(p, q *saferith.Nat) (*SecretKey, error) {
	if err := ValidatePrime(p); err != nil {
		return nil, fmt.Errorf("prime p: %w", err)
	}
	if err := ValidatePrime(q); err != nil {
		return nil, fmt.Errorf("prime q: %w", err)
	}
	p, q = clone(p), clone(q)
	if p.Eq(q) == 1 {
		return nil, ErrPrimesEqual
	}
	n := new(saferith.Nat).Mul(p, q, -1)
	lambda := lambdaFromFactors(n, p, q)
	if lambda.Coprime(n) != 1 {
		return nil, ErrLambdaNotInvertible
	}
	return newSecretKey(p, q, n, lambda), nil
}

// ValidatePrime checks whether p is usable as a factor of N.
func ValidatePrime(p *saferith.Nat) error {
	if p == nil {
		return ErrPrimeNil
	}
	if !clone(p).Big().ProbablyPrime(params.PrimalityIterations) {
		return ErrNotPrime
	}
	return nil
}

// newSecretKey assembles a key from values already checked by the caller:
// p ≠ q are prime, n = p⋅q, and λ is invertible mod n.
// The key takes ownership of its arguments.
func newSecretKey(p, q, n, lambda *saferith.Nat) *SecretKey {
	pk := newPublicKey(n)
	// μ = λ⁻¹ mod N
	mu := new(saferith.Nat).ModInverse(clone(lambda), pk.modN())
	return &SecretKey{
		pk:     pk,
		p:      p,
		q:      q,
		lambda: lambda,
		mu:     mu,
		power:  newLambdaPower(p, q, lambda),
	}
}

// PublicKey returns the public key derived from sk, which is safe to hand out.
func (sk *SecretKey) PublicKey() *PublicKey {
	return sk.pk
}

// WithObserver returns a copy of sk, and of its public key, reporting to o.
func (sk *SecretKey) WithObserver(o Observer) *SecretKey {
	out := *sk
	out.pk = sk.pk.WithObserver(o)
	return &out
}

// P returns a copy of the first of the two factors composing this key.
func (sk *SecretKey) P() *saferith.Nat {
	return clone(sk.p)
}

// Q returns a copy of the second of the two factors composing this key.
func (sk *SecretKey) Q() *saferith.Nat {
	return clone(sk.q)
}

// Lambda returns a copy of λ = (P-1)(Q-1), the exponent used for decryption.
func (sk *SecretKey) Lambda() *saferith.Nat {
	return clone(sk.lambda)
}

// Mu returns a copy of μ = λ⁻¹ (mod N).
func (sk *SecretKey) Mu() *saferith.Nat {
	return clone(sk.mu)
}

// Dec decrypts ct and returns the plaintext m ∈ [0, N).
//
// It returns ErrInvalidCiphertext if ct is not in [1, N²-1], if gcd(ct, N²) ≠ 1,
// or if ct^λ - 1 is not divisible by N.
func (sk *SecretKey) Dec(ct *Ciphertext) (*saferith.Nat, error) {
	if !validCiphertext(ct, sk.pk.modN2()) {
		return nil, ErrInvalidCiphertext
	}
	n := sk.pk.modN()

	// u = c^λ 						(mod N²)
	u := sk.power.exp(ct.Nat())
	// u = c^λ - 1
	u.Sub(u, natOne(), -1)
	// L(u) = (u - 1)/N is only defined when the division is exact
	if new(saferith.Nat).Mod(u, n).EqZero() != 1 {
		return nil, fmt.Errorf("%w: L function is not defined on c^λ", ErrInvalidCiphertext)
	}
	// m = [(c^λ - 1)/N]
	m := new(saferith.Nat).Div(u, n, -1)
	// m = [(c^λ - 1)/N] • μ			(mod N)
	m.ModMul(m, clone(sk.mu), n)

	sk.pk.observe().Decrypted(ct, m)
	return m, nil
}
