package tally

import "errors"

var (
	ErrInvalidConfig   = errors.New("tally: invalid election configuration")
	ErrInvalidChoice   = errors.New("tally: choice is not a candidate")
	ErrInvalidBallot   = errors.New("tally: invalid ballot")
	ErrDuplicateBallot = errors.New("tally: ballot was already cast")
	ErrBoxFull         = errors.New("tally: every voter has already cast a ballot")
	ErrWrongKey        = errors.New("tally: secret key does not match the ballot box")
	ErrTotalOutOfRange = errors.New("tally: decrypted total does not decode to valid counts")
)
