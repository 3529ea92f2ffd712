package tally

import (
	"context"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/taurusgroup/paillier-tally/pkg/hash"
	"github.com/taurusgroup/paillier-tally/pkg/paillier"
	"github.com/taurusgroup/paillier-tally/pkg/pool"
)

// Ballot is an encrypted vote.
type Ballot struct {
	ID         uuid.UUID
	Ciphertext *paillier.Ciphertext
}

// NewBallot encrypts the encoding of choice under pk.
// The ballot ID and the encryption nonce are both read from rand.
func NewBallot(pk *paillier.PublicKey, rand io.Reader, cfg Config, choice uint32) (*Ballot, error) {
	m, err := cfg.Encode(choice)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewRandomFromReader(rand)
	if err != nil {
		return nil, fmt.Errorf("tally: ballot id: %w", err)
	}
	ct, err := pk.Enc(rand, m)
	if err != nil {
		return nil, fmt.Errorf("tally: encrypt choice %d: %w", choice, err)
	}
	return &Ballot{ID: id, Ciphertext: ct}, nil
}

// EncryptBallots creates one ballot per entry of choices, in parallel over pl.
// rand is shared between the workers through a pool.LockedReader.
func EncryptBallots(ctx context.Context, pl *pool.Pool, pk *paillier.PublicKey, rand io.Reader, cfg Config, choices []uint32) ([]*Ballot, error) {
	reader := pool.NewLockedReader(rand)
	return pool.Parallelize(ctx, pl, len(choices), func(_ context.Context, i int) (*Ballot, error) {
		b, err := NewBallot(pk, reader, cfg, choices[i])
		if err != nil {
			return nil, fmt.Errorf("tally: ballot %d: %w", i, err)
		}
		return b, nil
	})
}

// Fingerprint returns a digest of the ballot's ciphertext.
//
// Two ballots with the same fingerprint carry the same ciphertext, whatever
// their IDs. It fails with ErrInvalidBallot if the ballot has no ciphertext.
func (b *Ballot) Fingerprint() ([]byte, error) {
	h := hash.New("Ballot Fingerprint")
	if err := h.WriteAny(b.Ciphertext); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBallot, b.ID, err)
	}
	return h.Sum(), nil
}

// WriteTo implements io.WriterTo, writing the ID followed by the ciphertext.
func (b *Ballot) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.ID[:])
	total := int64(n)
	if err != nil {
		return total, err
	}
	m, err := b.Ciphertext.WriteTo(w)
	return total + m, err
}

// Domain implements hash.WriterToWithDomain.
func (*Ballot) Domain() string {
	return "Tally Ballot"
}

type ballotMarshal struct {
	ID         uuid.UUID
	Ciphertext []byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (b *Ballot) MarshalBinary() ([]byte, error) {
	ct, err := b.Ciphertext.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&ballotMarshal{
		ID:         b.ID,
		Ciphertext: ct,
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The ciphertext is not checked against any key: Box.Cast does that.
func (b *Ballot) UnmarshalBinary(data []byte) error {
	var bm ballotMarshal
	if err := cbor.Unmarshal(data, &bm); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBallot, err)
	}
	ct := new(paillier.Ciphertext)
	if err := ct.UnmarshalBinary(bm.Ciphertext); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBallot, err)
	}
	b.ID = bm.ID
	b.Ciphertext = ct
	return nil
}
