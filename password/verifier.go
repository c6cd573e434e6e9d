package password

import "fmt"

// Algorithm selects the hash used for new digests.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Config selects the algorithm and its parameters.
type Config struct {
	Algorithm  Algorithm
	Argon2     Argon2Config
	BcryptCost int
}

// Hasher is the contract shared by every algorithm.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
	NeedsUpgrade(digest string) (bool, error)
}

// Verifier hashes with the configured algorithm and verifies any supported
// digest by prefix.
type Verifier struct {
	algorithm Algorithm
	argon2    *Argon2
	bcrypt    *Bcrypt
}

// New builds a Verifier from cfg. A zero BcryptCost uses bcrypt's default.
func New(cfg Config) (*Verifier, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmArgon2id
	}
	if cfg.Algorithm != AlgorithmArgon2id && cfg.Algorithm != AlgorithmBcrypt {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidConfig, cfg.Algorithm)
	}
	if cfg.Argon2 == (Argon2Config{}) {
		cfg.Argon2 = DefaultArgon2Config()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}

	a, err := NewArgon2(cfg.Argon2)
	if err != nil {
		return nil, err
	}
	b, err := NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &Verifier{algorithm: cfg.Algorithm, argon2: a, bcrypt: b}, nil
}

// Algorithm reports the algorithm used for new digests.
func (v *Verifier) Algorithm() Algorithm { return v.algorithm }

func (v *Verifier) Hash(plaintext string) (string, error) {
	return v.current().Hash(plaintext)
}

func (v *Verifier) Verify(plaintext, digest string) (bool, error) {
	h, err := v.forDigest(digest)
	if err != nil {
		return false, err
	}
	return h.Verify(plaintext, digest)
}

// NeedsUpgrade is true when digest uses another algorithm or weaker
// parameters than the current configuration.
func (v *Verifier) NeedsUpgrade(digest string) (bool, error) {
	h, err := v.forDigest(digest)
	if err != nil {
		return false, err
	}
	if h != v.current() {
		return true, nil
	}
	return h.NeedsUpgrade(digest)
}

func (v *Verifier) current() Hasher {
	if v.algorithm == AlgorithmBcrypt {
		return v.bcrypt
	}
	return v.argon2
}

func (v *Verifier) forDigest(digest string) (Hasher, error) {
	switch {
	case len(digest) > len(argon2Prefix) && digest[:len(argon2Prefix)] == argon2Prefix:
		return v.argon2, nil
	case isBcrypt(digest):
		return v.bcrypt, nil
	default:
		return nil, fmt.Errorf("%w: unknown digest format", ErrInvalidDigest)
	}
}
