package tally

import (
	"fmt"
	"io"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/taurusgroup/paillier-tally/pkg/hash"
	"github.com/taurusgroup/paillier-tally/pkg/paillier"
)

// Box collects ballots and keeps their homomorphic sum.
//
// A Box is safe for concurrent use.
type Box struct {
	cfg Config
	pk  *paillier.PublicKey

	mtx          sync.Mutex
	total        *paillier.Ciphertext
	ids          map[uuid.UUID]struct{}
	fingerprints map[string]struct{}
	// transcript commits to every ballot cast, in order
	transcript *hash.Hash
}

// Receipt acknowledges a ballot accepted by a Box.
type Receipt struct {
	// BallotID is the ID of the accepted ballot.
	BallotID uuid.UUID
	// Index is the position of the ballot in the box, starting at 1.
	Index int
	// Fingerprint is the ballot's Fingerprint.
	Fingerprint []byte
	// Transcript is the digest of every ballot cast so far, this one included.
	Transcript []byte
}

// NewBox returns an empty box for the election cfg, whose total starts as a
// fresh encryption of 0 under pk.
func NewBox(pk *paillier.PublicKey, rand io.Reader, cfg Config) (*Box, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	zero, err := pk.Enc(rand, new(saferith.Nat).SetUint64(0))
	if err != nil {
		return nil, fmt.Errorf("tally: encrypt initial total: %w", err)
	}
	transcript := hash.New("Tally Ballot Box")
	if err = transcript.WriteAny(pk.N(), zero); err != nil {
		return nil, fmt.Errorf("tally: start transcript: %w", err)
	}
	return &Box{
		cfg:          cfg,
		pk:           pk,
		total:        zero,
		ids:          make(map[uuid.UUID]struct{}, cfg.Voters),
		fingerprints: make(map[string]struct{}, cfg.Voters),
		transcript:   transcript,
	}, nil
}

// Config returns the election the box was created for.
func (b *Box) Config() Config {
	return b.cfg
}

// PublicKey returns the key ballots must be encrypted under.
func (b *Box) PublicKey() *paillier.PublicKey {
	return b.pk
}

// Cast adds ballot to the total.
//
// The ballot is rejected with ErrInvalidBallot if its ciphertext is not valid
// for the box's key, with ErrDuplicateBallot if its ID or its ciphertext were
// already cast, and with ErrBoxFull once Voters ballots have been accepted.
// A rejected ballot leaves the box unchanged.
//
// The box cannot check that the ciphertext encrypts a valid choice.
func (b *Box) Cast(ballot *Ballot) (*Receipt, error) {
	if ballot == nil || ballot.Ciphertext == nil {
		return nil, fmt.Errorf("%w: empty", ErrInvalidBallot)
	}
	if !b.pk.ValidateCiphertexts(ballot.Ciphertext) {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBallot, ballot.ID, paillier.ErrInvalidCiphertext)
	}
	fingerprint, err := ballot.Fingerprint()
	if err != nil {
		return nil, err
	}

	b.mtx.Lock()
	defer b.mtx.Unlock()

	if len(b.ids) >= int(b.cfg.Voters) {
		return nil, ErrBoxFull
	}
	if _, ok := b.ids[ballot.ID]; ok {
		return nil, fmt.Errorf("%w: id %s", ErrDuplicateBallot, ballot.ID)
	}
	if _, ok := b.fingerprints[string(fingerprint)]; ok {
		return nil, fmt.Errorf("%w: ciphertext of %s", ErrDuplicateBallot, ballot.ID)
	}

	total, err := b.pk.Add(b.total, ballot.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBallot, ballot.ID, err)
	}
	transcript, err := b.extendTranscript(ballot)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBallot, ballot.ID, err)
	}

	b.total = total
	b.transcript = transcript
	b.ids[ballot.ID] = struct{}{}
	b.fingerprints[string(fingerprint)] = struct{}{}
	return &Receipt{
		BallotID:    ballot.ID,
		Index:       len(b.ids),
		Fingerprint: fingerprint,
		Transcript:  transcript.Sum(),
	}, nil
}

// extendTranscript returns a copy of the transcript with data appended.
// The box's own transcript is left untouched, even if writing fails midway.
// b.mtx must be held.
func (b *Box) extendTranscript(data hash.WriterToWithDomain) (*hash.Hash, error) {
	transcript := b.transcript.Clone()
	if err := transcript.WriteAny(data); err != nil {
		return nil, err
	}
	return transcript, nil
}

// Len returns the number of ballots cast so far.
func (b *Box) Len() int {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return len(b.ids)
}

// Total returns the homomorphic sum of every ballot cast so far.
func (b *Box) Total() *paillier.Ciphertext {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.total.Clone()
}

// Transcript returns the digest of every ballot cast so far.
// It matches the Transcript of the latest Receipt.
func (b *Box) Transcript() []byte {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.transcript.Sum()
}

// receiptMarshal has the fields of Receipt without its methods.
type receiptMarshal Receipt

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *Receipt) MarshalBinary() ([]byte, error) {
	return cbor.Marshal((*receiptMarshal)(r))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Receipt) UnmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, (*receiptMarshal)(r))
}
