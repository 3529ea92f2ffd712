package hash

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier-tally/internal/params"
	"github.com/zeebo/blake3"
)

// DigestLengthBytes is the length of the output of Sum.
const DigestLengthBytes = params.SecBytes // 32

// Hash is the hash function we use for fingerprinting ballots and building
// ballot box transcripts.
//
// Internally, this is a wrapper around blake3.Hasher, whose output can be
// extended to any length.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct where the internal hash function is initialized
// with the given domain, so that hashes computed for different purposes never
// collide.
func New(domain string) *Hash {
	hash := &Hash{h: blake3.New()}
	_ = writeWithDomain(hash.h, BytesWithDomain{
		TheDomain: "Hash Domain",
		Bytes:     []byte(domain),
	})
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - string
//   - *saferith.Nat
//   - *saferith.Modulus
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the first four types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var toBeWritten WriterToWithDomain
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			toBeWritten = &BytesWithDomain{"[]byte", t}
		case string:
			toBeWritten = &BytesWithDomain{"string", []byte(t)}
		case *saferith.Nat:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Nat: nil")
			}
			// Bytes depends on the announced length, so normalize a copy first.
			nat := new(saferith.Nat).SetNat(t)
			toBeWritten = &BytesWithDomain{"saferith.Nat", nat.Resize(nat.TrueLen()).Bytes()}
		case *saferith.Modulus:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Modulus: nil")
			}
			toBeWritten = &BytesWithDomain{"saferith.Modulus", t.Bytes()}
		case WriterToWithDomain:
			toBeWritten = t
		default:
			panic("hash.Hash: unsupported type")
		}
		if err := writeWithDomain(hash.h, toBeWritten); err != nil {
			return fmt.Errorf("hash.Hash: write %s: %w", toBeWritten.Domain(), err)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}
