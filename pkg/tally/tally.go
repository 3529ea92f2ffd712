package tally

import (
	"fmt"

	"github.com/taurusgroup/paillier-tally/pkg/paillier"
)

// Tallier holds the election's secret key, and is the only party able to
// read the result.
type Tallier struct {
	SecretKey *paillier.SecretKey
}

// Tally decrypts the total of box and returns the number of votes received by
// each candidate, candidate 1 first.
//
// Individual ballots are never decrypted.
func (t Tallier) Tally(box *Box) ([]uint64, error) {
	if !t.SecretKey.PublicKey().Equal(box.PublicKey()) {
		return nil, ErrWrongKey
	}
	total, err := t.SecretKey.Dec(box.Total())
	if err != nil {
		return nil, fmt.Errorf("tally: decrypt total: %w", err)
	}
	return box.Config().Decode(total)
}
