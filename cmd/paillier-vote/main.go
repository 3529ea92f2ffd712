// Command paillier-vote runs a single-choice election on one terminal.
//
// It asks for the number of candidates and voters, generates a key large
// enough for the election, then reads one vote per voter. Votes are encrypted
// as soon as they are read and only their homomorphic sum is decrypted.
package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/paillier-tally/pkg/observe"
	"github.com/taurusgroup/paillier-tally/pkg/paillier"
	"github.com/taurusgroup/paillier-tally/pkg/pool"
	"github.com/taurusgroup/paillier-tally/pkg/tally"
)

type options struct {
	// workers is the size of the pool used for prime sampling, 0 for one per CPU.
	workers int
	// timeout bounds key generation.
	timeout time.Duration
	// minBits raises the prime size above what the election needs.
	minBits int
}

func main() {
	var (
		level   = flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
		workers = flag.Int("workers", 0, "workers sampling primes, 0 for one per CPU")
		timeout = flag.Duration("timeout", time.Minute, "maximum duration of key generation")
		minBits = flag.Int("min-bits", 0, "minimum size of each prime factor of the key")
	)
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(lvl).With().Timestamp().Logger()

	opts := options{workers: *workers, timeout: *timeout, minBits: *minBits}
	if err = run(context.Background(), log, os.Stdin, os.Stdout, opts); err != nil {
		log.Error().Err(err).Msg("election aborted")
		os.Exit(1)
	}
}

var errInput = errors.New("paillier-vote: invalid input")

// prompter writes questions to out and reads the answers from in, one per line.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) number(question string) (uint32, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	answer := strings.TrimSpace(p.in.Text())
	x, err := strconv.ParseUint(answer, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errInput, answer)
	}
	return uint32(x), nil
}

// maxCastAttempts bounds how many times a vote is encrypted again after
// colliding with a ballot already in the box.
const maxCastAttempts = 16

// cast encrypts choice and adds it to box.
// With the smallest keys two ballots can share a ciphertext, so a vote whose
// ballot is refused as a duplicate is encrypted again with a fresh nonce.
func cast(box *tally.Box, choice uint32) (*tally.Receipt, error) {
	for attempt := 1; ; attempt++ {
		ballot, err := tally.NewBallot(box.PublicKey(), rand.Reader, box.Config(), choice)
		if err != nil {
			return nil, err
		}
		receipt, err := box.Cast(ballot)
		if errors.Is(err, tally.ErrDuplicateBallot) && attempt < maxCastAttempts {
			continue
		}
		return receipt, err
	}
}

func run(ctx context.Context, log zerolog.Logger, in io.Reader, out io.Writer, opts options) error {
	p := &prompter{in: bufio.NewScanner(in), out: out}

	var cfg tally.Config
	var err error
	if cfg.Candidates, err = p.number("Number of candidates: "); err != nil {
		return err
	}
	if cfg.Voters, err = p.number("Number of voters: "); err != nil {
		return err
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	bits := cfg.KeyBits()
	if bits < opts.minBits {
		bits = opts.minBits
	}
	log.Info().Int("bits", bits).Msg("generating key")
	keyCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	_, sk, err := paillier.KeyGenerator{
		Rand:     rand.Reader,
		Pool:     pool.NewPool(opts.workers),
		Observer: observe.New(log, "paillier"),
	}.Generate(keyCtx, bits)
	if err != nil {
		return fmt.Errorf("paillier-vote: key generation: %w", err)
	}
	pk := sk.PublicKey()

	box, err := tally.NewBox(pk, rand.Reader, cfg)
	if err != nil {
		return err
	}
	for i := uint32(1); i <= cfg.Voters; i++ {
		choice, err := p.number(fmt.Sprintf("Vote #%d: ", i))
		if err != nil {
			return err
		}
		receipt, err := cast(box, choice)
		if err != nil {
			return err
		}
		log.Debug().
			Stringer("ballot", receipt.BallotID).
			Int("index", receipt.Index).
			Str("transcript", hex.EncodeToString(receipt.Transcript)).
			Msg("ballot cast")
	}

	counts, err := tally.Tallier{SecretKey: sk}.Tally(box)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Results:")
	for i, c := range counts {
		fmt.Fprintf(out, "Candidate #%d: %d\n", i+1, c)
	}
	return nil
}
