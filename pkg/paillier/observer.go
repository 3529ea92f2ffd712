package paillier

import "github.com/cronokirby/saferith"

// Observer is notified of notable events by keys it is attached to.
//
// Notifications happen synchronously, after the result has been computed,
// and cannot influence it. Implementations must not modify their arguments,
// and must be safe for concurrent use if the key is shared.
type Observer interface {
	// KeyGenerated reports a new key, found after attempts candidate prime pairs.
	KeyGenerated(pk *PublicKey, attempts int)
	Encrypted(m *saferith.Nat, ct *Ciphertext)
	Decrypted(ct *Ciphertext, m *saferith.Nat)
	Added(lhs, rhs, sum *Ciphertext)
	Multiplied(ct *Ciphertext, k *saferith.Int, product *Ciphertext)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) KeyGenerated(*PublicKey, int)                       {}
func (NopObserver) Encrypted(*saferith.Nat, *Ciphertext)               {}
func (NopObserver) Decrypted(*Ciphertext, *saferith.Nat)               {}
func (NopObserver) Added(_, _, _ *Ciphertext)                          {}
func (NopObserver) Multiplied(*Ciphertext, *saferith.Int, *Ciphertext) {}
