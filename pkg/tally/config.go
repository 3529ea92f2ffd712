package tally

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier-tally/internal/params"
)

// MaxKeyBits bounds the prime size an election may ask for.
const MaxKeyBits = 1 << 14

// Config describes an election.
type Config struct {
	// Candidates is the number of options on the ballot, numbered from 1.
	Candidates uint32
	// Voters is the number of ballots the box accepts.
	Voters uint32
}

// Validate returns an error wrapping ErrInvalidConfig if c cannot be run.
func (c Config) Validate() error {
	if c.Candidates == 0 {
		return fmt.Errorf("%w: no candidates", ErrInvalidConfig)
	}
	if c.Voters == 0 || c.Voters == math.MaxUint32 {
		return fmt.Errorf("%w: voter count must be in [1, %d), got %d", ErrInvalidConfig, uint32(math.MaxUint32), c.Voters)
	}
	if bitsPerCandidate := bits.Len64(c.Radix()); uint64(c.Candidates)*uint64(bitsPerCandidate) > MaxKeyBits {
		return fmt.Errorf("%w: %d candidates with %d voters need keys larger than %d bits",
			ErrInvalidConfig, c.Candidates, c.Voters, MaxKeyBits)
	}
	return nil
}

// Radix returns Voters + 1, the base in which totals are written.
func (c Config) Radix() uint64 {
	return uint64(c.Voters) + 1
}

// KeyBits returns the size of the primes of a key large enough for this
// election: N must exceed Radix^Candidates.
//
// It is only meaningful if c is valid.
func (c Config) KeyBits() int {
	keyBits := int(c.Candidates) * bits.Len64(c.Radix())
	if keyBits < params.MinPrimeBits {
		return params.MinPrimeBits
	}
	return keyBits
}

// Encode returns the plaintext of a ballot for the given choice,
// Radix^(choice - 1).
func (c Config) Encode(choice uint32) (*saferith.Nat, error) {
	if choice < 1 || choice > c.Candidates {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidChoice, choice, c.Candidates)
	}
	radix := new(saferith.Nat).SetUint64(c.Radix())
	m := new(saferith.Nat).SetUint64(1)
	for i := uint32(1); i < choice; i++ {
		m.Mul(m, radix, -1)
	}
	return m, nil
}

// Decode splits a total into its digits in base Radix, one count per candidate.
//
// It returns ErrTotalOutOfRange if total ≥ Radix^Candidates, or if a candidate
// appears to have more votes than there are voters.
func (c Config) Decode(total *saferith.Nat) ([]uint64, error) {
	radix := saferith.ModulusFromUint64(c.Radix())
	rest := new(saferith.Nat).SetNat(total)
	counts := make([]uint64, c.Candidates)
	var sum uint64
	for i := range counts {
		counts[i] = new(saferith.Nat).Mod(rest, radix).Uint64()
		rest = new(saferith.Nat).Div(rest, radix, -1)
		sum += counts[i]
	}
	if rest.EqZero() != 1 {
		return nil, fmt.Errorf("%w: %s exceeds %d digits", ErrTotalOutOfRange, total.Big(), c.Candidates)
	}
	if sum > uint64(c.Voters) {
		return nil, fmt.Errorf("%w: %d votes counted for %d voters", ErrTotalOutOfRange, sum, c.Voters)
	}
	return counts, nil
}
