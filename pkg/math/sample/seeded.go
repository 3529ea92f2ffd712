package sample

import (
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"
)

// SeededReader is a deterministic io.Reader producing the ChaCha20 keystream
// of a key derived from a seed.
//
// It exists to make tests and benchmarks reproducible. It must never be used
// to generate real keys or encryption nonces.
type SeededReader struct {
	cipher *chacha20.Cipher
}

// NewSeededReader returns a SeededReader whose output depends only on seed.
func NewSeededReader(seed []byte) *SeededReader {
	key := blake3.Sum256(seed)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		// only possible with a bad key or nonce size
		panic(err)
	}
	return &SeededReader{cipher: c}
}

// Read implements io.Reader, and never fails.
func (r *SeededReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.cipher.XORKeyStream(p, p)
	return len(p), nil
}
