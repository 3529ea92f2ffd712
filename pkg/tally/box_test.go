package tally

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/paillier-tally/pkg/math/sample"
	"github.com/taurusgroup/paillier-tally/pkg/paillier"
	"github.com/taurusgroup/paillier-tally/pkg/pool"
)

// minTestBits keeps ciphertexts of equal choices from colliding in tests.
const minTestBits = 64

func election(t testing.TB, cfg Config, seed string) (*paillier.PublicKey, *paillier.SecretKey) {
	t.Helper()
	bits := cfg.KeyBits()
	if bits < minTestBits {
		bits = minTestBits
	}
	return electionWithBits(t, cfg, seed, bits)
}

func electionWithBits(t testing.TB, cfg Config, seed string, bits int) (*paillier.PublicKey, *paillier.SecretKey) {
	t.Helper()
	require.NoError(t, cfg.Validate())
	pk, sk, err := paillier.KeyGenerator{Rand: sample.NewSeededReader([]byte(seed))}.
		Generate(context.Background(), bits)
	require.NoError(t, err)
	return pk, sk
}

func TestTally(t *testing.T) {
	cfg := Config{Candidates: 4, Voters: 30}
	pk, sk := electionWithBits(t, cfg, "TestTally", cfg.KeyBits())
	rnd := sample.NewSeededReader([]byte("TestTally choices"))

	choices := make([]uint32, cfg.Voters)
	expected := make([]uint64, cfg.Candidates)
	var buf [1]byte
	for i := range choices {
		_, _ = rnd.Read(buf[:])
		choices[i] = uint32(buf[0])%cfg.Candidates + 1
		expected[choices[i]-1]++
	}

	pl := pool.NewPool(4)
	ballots, err := EncryptBallots(context.Background(), pl, pk, rnd, cfg, choices)
	require.NoError(t, err)
	require.Len(t, ballots, len(choices))

	box, err := NewBox(pk, rnd, cfg)
	require.NoError(t, err)
	for i, b := range ballots {
		r, err := box.Cast(b)
		require.NoError(t, err)
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, b.ID, r.BallotID)
		assert.Equal(t, fingerprint(t, b), r.Fingerprint)
	}
	assert.Equal(t, int(cfg.Voters), box.Len())

	counts, err := Tallier{SecretKey: sk}.Tally(box)
	require.NoError(t, err)
	assert.Equal(t, expected, counts)
}

func TestTally_Smallest(t *testing.T) {
	cfg := Config{Candidates: 1, Voters: 1}
	pk, sk := electionWithBits(t, cfg, "TestTally_Smallest", cfg.KeyBits())
	box, err := NewBox(pk, rand.Reader, cfg)
	require.NoError(t, err)
	b, err := NewBallot(pk, rand.Reader, cfg, 1)
	require.NoError(t, err)
	_, err = box.Cast(b)
	require.NoError(t, err)

	counts, err := Tallier{SecretKey: sk}.Tally(box)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, counts)
}

func TestTally_Empty(t *testing.T) {
	cfg := Config{Candidates: 3, Voters: 2}
	pk, sk := election(t, cfg, "TestTally_Empty")
	box, err := NewBox(pk, rand.Reader, cfg)
	require.NoError(t, err)

	counts, err := Tallier{SecretKey: sk}.Tally(box)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 0, 0}, counts)
}

func TestTally_WrongKey(t *testing.T) {
	cfg := Config{Candidates: 2, Voters: 2}
	pk, _ := election(t, cfg, "TestTally_WrongKey 1")
	_, other := election(t, cfg, "TestTally_WrongKey 2")
	require.False(t, pk.Equal(other.PublicKey()))

	box, err := NewBox(pk, rand.Reader, cfg)
	require.NoError(t, err)
	_, err = Tallier{SecretKey: other}.Tally(box)
	assert.ErrorIs(t, err, ErrWrongKey)
}

func TestNewBox_InvalidConfig(t *testing.T) {
	pk, _ := election(t, Config{Candidates: 1, Voters: 1}, "TestNewBox_InvalidConfig")
	_, err := NewBox(pk, rand.Reader, Config{Candidates: 0, Voters: 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBox_Duplicate(t *testing.T) {
	cfg := Config{Candidates: 2, Voters: 5}
	pk, sk := election(t, cfg, "TestBox_Duplicate")
	box, err := NewBox(pk, rand.Reader, cfg)
	require.NoError(t, err)

	b, err := NewBallot(pk, rand.Reader, cfg, 2)
	require.NoError(t, err)
	_, err = box.Cast(b)
	require.NoError(t, err)
	transcript := box.Transcript()

	_, err = box.Cast(b)
	assert.ErrorIs(t, err, ErrDuplicateBallot)

	// same ciphertext under a new ID
	replay := &Ballot{ID: uuid.New(), Ciphertext: b.Ciphertext.Clone()}
	_, err = box.Cast(replay)
	assert.ErrorIs(t, err, ErrDuplicateBallot)

	// same ID with a new ciphertext
	other, err := NewBallot(pk, rand.Reader, cfg, 1)
	require.NoError(t, err)
	other.ID = b.ID
	_, err = box.Cast(other)
	assert.ErrorIs(t, err, ErrDuplicateBallot)

	assert.Equal(t, 1, box.Len())
	assert.Equal(t, transcript, box.Transcript())

	counts, err := Tallier{SecretKey: sk}.Tally(box)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, counts)
}

func TestBox_Full(t *testing.T) {
	cfg := Config{Candidates: 2, Voters: 2}
	pk, sk := election(t, cfg, "TestBox_Full")
	box, err := NewBox(pk, rand.Reader, cfg)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		b, err := NewBallot(pk, rand.Reader, cfg, 1)
		require.NoError(t, err)
		_, err = box.Cast(b)
		require.NoError(t, err)
	}
	b, err := NewBallot(pk, rand.Reader, cfg, 2)
	require.NoError(t, err)
	_, err = box.Cast(b)
	assert.ErrorIs(t, err, ErrBoxFull)

	counts, err := Tallier{SecretKey: sk}.Tally(box)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 0}, counts)
}

func TestBox_Invalid(t *testing.T) {
	cfg := Config{Candidates: 2, Voters: 3}
	pk, _ := election(t, cfg, "TestBox_Invalid")
	box, err := NewBox(pk, rand.Reader, cfg)
	require.NoError(t, err)
	transcript := box.Transcript()

	invalid := map[string]*Ballot{
		"nil":            nil,
		"nil ciphertext": {ID: uuid.New()},
		"zero":           {ID: uuid.New(), Ciphertext: paillier.NewCiphertext(new(saferith.Nat).SetUint64(0))},
		"N²":             {ID: uuid.New(), Ciphertext: paillier.NewCiphertext(pk.N2().Nat())},
	}
	for name, b := range invalid {
		_, err = box.Cast(b)
		assert.ErrorIs(t, err, ErrInvalidBallot, name)
	}
	assert.Zero(t, box.Len())
	assert.Equal(t, transcript, box.Transcript())
}

func TestBox_Concurrent(t *testing.T) {
	cfg := Config{Candidates: 3, Voters: 16}
	pk, sk := election(t, cfg, "TestBox_Concurrent")
	box, err := NewBox(pk, rand.Reader, cfg)
	require.NoError(t, err)

	choices := make([]uint32, cfg.Voters)
	for i := range choices {
		choices[i] = uint32(i)%cfg.Candidates + 1
	}
	ballots, err := EncryptBallots(context.Background(), nil, pk, rand.Reader, cfg, choices)
	require.NoError(t, err)

	var wg sync.WaitGroup
	receipts := make([]*Receipt, len(ballots))
	for i, b := range ballots {
		wg.Add(1)
		go func(i int, b *Ballot) {
			defer wg.Done()
			r, err := box.Cast(b)
			assert.NoError(t, err)
			receipts[i] = r
		}(i, b)
	}
	wg.Wait()

	indices := make(map[int]bool, len(receipts))
	for _, r := range receipts {
		require.NotNil(t, r)
		indices[r.Index] = true
	}
	assert.Len(t, indices, len(ballots))

	counts, err := Tallier{SecretKey: sk}.Tally(box)
	require.NoError(t, err)
	assert.Equal(t, []uint64{6, 5, 5}, counts)
}

func TestBox_Transcript(t *testing.T) {
	cfg := Config{Candidates: 2, Voters: 3}
	pk, _ := election(t, cfg, "TestBox_Transcript")
	ballots, err := EncryptBallots(context.Background(), nil, pk, rand.Reader, cfg, []uint32{1, 2})
	require.NoError(t, err)

	rnd := sample.NewSeededReader([]byte("TestBox_Transcript"))
	box1, err := NewBox(pk, rnd, cfg)
	require.NoError(t, err)
	rnd = sample.NewSeededReader([]byte("TestBox_Transcript"))
	box2, err := NewBox(pk, rnd, cfg)
	require.NoError(t, err)
	require.Equal(t, box1.Transcript(), box2.Transcript())

	r1, err := box1.Cast(ballots[0])
	require.NoError(t, err)
	assert.Equal(t, r1.Transcript, box1.Transcript())
	_, err = box1.Cast(ballots[1])
	require.NoError(t, err)

	// order matters
	_, err = box2.Cast(ballots[1])
	require.NoError(t, err)
	_, err = box2.Cast(ballots[0])
	require.NoError(t, err)
	assert.NotEqual(t, box1.Transcript(), box2.Transcript())
	assert.True(t, box1.Total().Equal(box2.Total()))
}

// truncatedWriter writes part of its data, then fails.
type truncatedWriter struct{}

func (truncatedWriter) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write([]byte("partial"))
	if err != nil {
		return int64(n), err
	}
	return int64(n), io.ErrShortWrite
}

func (truncatedWriter) Domain() string {
	return "truncated"
}

func TestBox_TranscriptWriteFailure(t *testing.T) {
	cfg := Config{Candidates: 2, Voters: 2}
	pk, _ := election(t, cfg, "TestBox_TranscriptWriteFailure")
	box, err := NewBox(pk, rand.Reader, cfg)
	require.NoError(t, err)
	before := box.Transcript()

	box.mtx.Lock()
	_, err = box.extendTranscript(truncatedWriter{})
	box.mtx.Unlock()
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, before, box.Transcript(), "a failed write must not alter the transcript")

	b, err := NewBallot(pk, rand.Reader, cfg, 1)
	require.NoError(t, err)
	r, err := box.Cast(b)
	require.NoError(t, err)
	assert.NotEqual(t, before, r.Transcript)
	assert.Equal(t, r.Transcript, box.Transcript())
}

func TestReceipt_MarshalBinary(t *testing.T) {
	cfg := Config{Candidates: 2, Voters: 1}
	pk, _ := election(t, cfg, "TestReceipt_MarshalBinary")
	box, err := NewBox(pk, rand.Reader, cfg)
	require.NoError(t, err)
	b, err := NewBallot(pk, rand.Reader, cfg, 1)
	require.NoError(t, err)
	r, err := box.Cast(b)
	require.NoError(t, err)

	data, err := r.MarshalBinary()
	require.NoError(t, err)
	var r2 Receipt
	require.NoError(t, r2.UnmarshalBinary(data))
	assert.Equal(t, *r, r2)
}
