package sample

import (
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier-tally/internal/params"
)

// trialPrimes contains the first 128 odd prime numbers
var trialPrimes = []uint64{
	3, 5, 7, 11, 13, 17, 19, 23,
	29, 31, 37, 41, 43, 47, 53, 59,
	61, 67, 71, 73, 79, 83, 89, 97,
	101, 103, 107, 109, 113, 127, 131, 137,
	139, 149, 151, 157, 163, 167, 173, 179,
	181, 191, 193, 197, 199, 211, 223, 227,
	229, 233, 239, 241, 251, 257, 263, 269,
	271, 277, 281, 283, 293, 307, 311, 313,
	317, 331, 337, 347, 349, 353, 359, 367,
	373, 379, 383, 389, 397, 401, 409, 419,
	421, 431, 433, 439, 443, 449, 457, 461,
	463, 467, 479, 487, 491, 499, 503, 509,
	521, 523, 541, 547, 557, 563, 569, 571,
	577, 587, 593, 599, 601, 607, 613, 617,
	619, 631, 641, 643, 647, 653, 659, 661,
	673, 677, 683, 691, 701, 709, 719, 727,
	733, 739, 743, 751, 757, 761, 769, 773,
}

// Below this size a candidate may itself be one of the trial primes,
// so trial division is skipped. 2¹⁰ > 773.
const trialDivisionMinBits = 11

// maxPrimeIterations is the number of times to try generating a new prime.
const maxPrimeIterations = 100_000

// ErrMaxPrimeIterations is the panic value when we fail to generate a prime.
var ErrMaxPrimeIterations = fmt.Errorf("sample: failed to generate prime after %d iterations", maxPrimeIterations)

// potentialPrime generates an odd candidate prime of exactly the given bit size.
//
// The candidate returned by this function will have undergone trial division
// by small primes, but not the heavier Miller-Rabin test.
func potentialPrime(rand io.Reader, bits int) *big.Int {
	// The general strategy is to generate random numbers without an obviously
	// deficient bit pattern, and then check that this number, or one nearby,
	// isn't divisible by any of our trial primes.

	// The number of significant bits in the first byte of our number
	lastBits := uint(bits % 8)
	if lastBits == 0 {
		lastBits = 8
	}

	bytes := make([]byte, (bits+7)/8)
	p := new(big.Int)
	scratch := new(big.Int)
	// We store a different remainder for each prime, so that we can then adjust
	// these values with deltas, instead of adjusting our large prime, and
	// then recalculating the remainder.
	mods := make([]uint64, len(trialPrimes))

	for {
		mustReadBits(rand, bytes)

		// Clear bits in the first byte to make sure the candidate has a size <= bits,
		// then set the most significant one so that it has exactly bits.
		bytes[0] &= uint8(int(1<<lastBits) - 1)
		bytes[0] |= 1 << (lastBits - 1)
		bytes[len(bytes)-1] |= 1

		p.SetBytes(bytes)
		if bits < trialDivisionMinBits {
			return p
		}

		for i := 0; i < len(trialPrimes); i++ {
			scratch.SetUint64(trialPrimes[i])
			mods[i] = scratch.Mod(p, scratch).Uint64()
		}
		// This is a heuristic cap used by OpenSSL.
		maxDelta := (uint64(1) << 32) - trialPrimes[len(trialPrimes)-1]
	NextDelta:
		// We add 2 each iteration, to remain odd.
		for delta := uint64(0); delta < maxDelta; delta += 2 {
			for i := 0; i < len(trialPrimes); i++ {
				if (mods[i]+delta)%trialPrimes[i] == 0 {
					continue NextDelta
				}
			}
			scratch.SetUint64(delta)
			p.Add(p, scratch)

			// Adding delta may have carried into an extra bit, in which case
			// we start over with fresh randomness.
			if p.BitLen() == bits {
				return p
			}
			break
		}
	}
}

// Prime returns a random prime p with exactly the given number of bits,
// meaning 2ᵇⁱᵗˢ⁻¹ ≤ p < 2ᵇⁱᵗˢ.
//
// Asking for fewer than 2 bits is a programming error and panics.
func Prime(rand io.Reader, bits int) *saferith.Nat {
	if bits < 2 {
		panic(fmt.Sprintf("sample: prime size must be at least 2 bits, got %d", bits))
	}
	for i := 0; i < maxPrimeIterations; i++ {
		p := potentialPrime(rand, bits)
		if !p.ProbablyPrime(params.PrimalityIterations) {
			continue
		}
		return new(saferith.Nat).SetBig(p, bits)
	}
	panic(ErrMaxPrimeIterations)
}
