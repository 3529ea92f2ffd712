// Package tally runs a single-choice election over Paillier ciphertexts.
//
// Each voter picks one of Candidates options. A choice c is encoded as
// (Voters+1)^(c-1), so that the sum of all ballots is a number whose digits in
// base Voters+1 are the per-candidate counts. Since no candidate can receive
// more than Voters votes, digits never carry over into each other.
//
// Ballots are encrypted under the election key, summed homomorphically in a
// Box, and only the final sum is ever decrypted, by a Tallier.
package tally
