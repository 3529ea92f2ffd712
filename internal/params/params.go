package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// MinPrimeBits is the smallest prime size for which a key can be generated.
	//
	// The only 2-bit primes are 2 and 3, and ϕ(6) = 2 is never invertible mod 6.
	MinPrimeBits = 3

	// DefaultPrimeBits is the size of each factor of N when the caller has no
	// sizing policy of its own.
	DefaultPrimeBits = 4 * SecParam // = 1024

	// PrimalityIterations is the number of Miller-Rabin rounds used when
	// checking candidate primes. 20 is the same number that Go uses internally.
	PrimalityIterations = 20

	// MaxSampleIterations bounds the rejection loops that read from an
	// io.Reader, so that a broken source of randomness is detected.
	MaxSampleIterations = 255
)
