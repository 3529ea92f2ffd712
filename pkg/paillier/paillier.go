package paillier

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier-tally/internal/params"
	"github.com/taurusgroup/paillier-tally/pkg/math/sample"
	"github.com/taurusgroup/paillier-tally/pkg/pool"
)

var (
	ErrPlaintextOutOfRange = errors.New("paillier: plaintext out of range")
	ErrInvalidCiphertext   = errors.New("paillier: invalid ciphertext")
	ErrInvalidNonce        = errors.New("paillier: nonce is not a unit mod N")
	ErrNilScalar           = errors.New("paillier: scalar is nil")

	ErrPrimeNil            = errors.New("paillier: prime is nil")
	ErrNotPrime            = errors.New("paillier: supposed prime factor is not prime")
	ErrPrimesEqual         = errors.New("paillier: prime factors are equal")
	ErrLambdaNotInvertible = errors.New("paillier: (p-1)(q-1) is not invertible mod N")
)

// KeyGenerator produces Paillier key pairs.
//
// The zero value is ready to use: it reads from crypto/rand, samples primes
// on the calling goroutine and notifies nobody.
type KeyGenerator struct {
	// Rand is the source of randomness for prime sampling.
	// If nil, crypto/rand.Reader is used.
	// It is wrapped in a pool.LockedReader, so it need not be safe for concurrent use.
	Rand io.Reader
	// Pool, if not nil, samples p and q in parallel.
	Pool *pool.Pool
	// Observer is attached to the generated keys.
	Observer Observer
}

// Generate returns a new key pair whose prime factors have exactly bits bits.
//
// Candidate pairs with p = q, or for which ϕ(N) is not invertible mod N,
// are discarded and both primes are sampled again, for as long as it takes.
// The only error returned is ctx.Err(), if ctx is done before a valid pair is found.
//
// Asking for fewer than params.MinPrimeBits bits is a programming error and panics.
func (g KeyGenerator) Generate(ctx context.Context, bits int) (*PublicKey, *SecretKey, error) {
	if bits < params.MinPrimeBits {
		panic(fmt.Sprintf("paillier: prime size must be at least %d bits, got %d", params.MinPrimeBits, bits))
	}
	r := g.Rand
	if r == nil {
		r = rand.Reader
	}
	reader := pool.NewLockedReader(r)

	for attempts := 1; ; attempts++ {
		primes, err := pool.Search(ctx, g.Pool, 2, func() (*saferith.Nat, bool) {
			return sample.Prime(reader, bits), true
		})
		if err != nil {
			return nil, nil, err
		}
		p, q := primes[0], primes[1]
		if p.Eq(q) == 1 {
			continue
		}
		n := new(saferith.Nat).Mul(p, q, -1)
		lambda := lambdaFromFactors(n, p, q)
		if lambda.Coprime(n) != 1 {
			continue
		}

		sk := newSecretKey(p, q, n, lambda).WithObserver(g.Observer)
		sk.PublicKey().observe().KeyGenerated(sk.PublicKey(), attempts)
		return sk.PublicKey(), sk, nil
	}
}

// KeyGen generates a new PublicKey and its associated SecretKey,
// with prime factors of the given size.
func KeyGen(rand io.Reader, bits int, pl *pool.Pool) (pk *PublicKey, sk *SecretKey) {
	// context.Background is never done, so Generate cannot fail
	pk, sk, _ = KeyGenerator{Rand: rand, Pool: pl}.Generate(context.Background(), bits)
	return
}

// lambdaFromFactors returns λ = N + 1 - p - q = (p-1)(q-1).
func lambdaFromFactors(n, p, q *saferith.Nat) *saferith.Nat {
	lambda := new(saferith.Nat).Add(n, natOne(), -1)
	lambda.Sub(lambda, p, -1)
	lambda.Sub(lambda, q, -1)
	return lambda
}
