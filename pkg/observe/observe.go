// Package observe reports Paillier key events through zerolog.
package observe

import (
	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/paillier-tally/pkg/paillier"
)

var _ paillier.Observer = Logger{}

// Logger implements paillier.Observer.
//
// Key generation is logged at Debug level. Every other event carries secret
// or per-voter values and is only logged at Trace level.
type Logger struct {
	Log zerolog.Logger
}

// New returns a Logger writing to log, tagged with the given component name.
func New(log zerolog.Logger, component string) Logger {
	return Logger{Log: log.With().Str("component", component).Logger()}
}

func (l Logger) KeyGenerated(pk *paillier.PublicKey, attempts int) {
	l.Log.Debug().
		Int("bits", pk.N().BitLen()).
		Int("attempts", attempts).
		Str("n", pk.N().Big().String()).
		Msg("key generated")
}

func (l Logger) Encrypted(m *saferith.Nat, ct *paillier.Ciphertext) {
	l.Log.Trace().
		Stringer("m", m.Big()).
		Stringer("ct", ct).
		Msg("encrypted")
}

func (l Logger) Decrypted(ct *paillier.Ciphertext, m *saferith.Nat) {
	l.Log.Trace().
		Stringer("ct", ct).
		Stringer("m", m.Big()).
		Msg("decrypted")
}

func (l Logger) Added(lhs, rhs, sum *paillier.Ciphertext) {
	l.Log.Trace().
		Stringer("lhs", lhs).
		Stringer("rhs", rhs).
		Stringer("sum", sum).
		Msg("added")
}

func (l Logger) Multiplied(ct *paillier.Ciphertext, k *saferith.Int, product *paillier.Ciphertext) {
	l.Log.Trace().
		Stringer("ct", ct).
		Stringer("k", k.Big()).
		Stringer("product", product).
		Msg("multiplied")
}
