package password

import (
	"errors"
	"strings"
	"testing"
)

func fastArgon2() Argon2Config {
	return Argon2Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newFastVerifier(t *testing.T, alg Algorithm) *Verifier {
	t.Helper()
	v, err := New(Config{Algorithm: alg, Argon2: fastArgon2(), BcryptCost: 4})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func TestArgon2HashAndVerify(t *testing.T) {
	v := newFastVerifier(t, AlgorithmArgon2id)

	digest, err := v.Hash("Secret1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected digest format %q", digest)
	}

	ok, err := v.Verify("Secret1!", digest)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = v.Verify("Secret2!", digest)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, got ok=%v err=%v", ok, err)
	}
}

func TestHashIsSalted(t *testing.T) {
	v := newFastVerifier(t, AlgorithmArgon2id)
	a, _ := v.Hash("same")
	b, _ := v.Hash("same")
	if a == b {
		t.Fatal("expected distinct digests for the same password")
	}
}

func TestBcryptHashAndVerify(t *testing.T) {
	v := newFastVerifier(t, AlgorithmBcrypt)

	digest, err := v.Hash("Secret1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(digest, "$2a$04$") {
		t.Fatalf("unexpected digest format %q", digest)
	}
	if ok, err := v.Verify("Secret1!", digest); err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	if ok, err := v.Verify("nope", digest); err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestVerifierDispatchesByPrefix(t *testing.T) {
	argon := newFastVerifier(t, AlgorithmArgon2id)
	bc := newFastVerifier(t, AlgorithmBcrypt)

	bcDigest, _ := bc.Hash("pw")
	if ok, err := argon.Verify("pw", bcDigest); err != nil || !ok {
		t.Fatalf("argon2 verifier should accept bcrypt digest: ok=%v err=%v", ok, err)
	}

	argonDigest, _ := argon.Hash("pw")
	if ok, err := bc.Verify("pw", argonDigest); err != nil || !ok {
		t.Fatalf("bcrypt verifier should accept argon2 digest: ok=%v err=%v", ok, err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	argon := newFastVerifier(t, AlgorithmArgon2id)
	bc := newFastVerifier(t, AlgorithmBcrypt)

	bcDigest, _ := bc.Hash("pw")
	if up, err := argon.NeedsUpgrade(bcDigest); err != nil || !up {
		t.Fatalf("algorithm change should require upgrade: up=%v err=%v", up, err)
	}

	argonDigest, _ := argon.Hash("pw")
	if up, err := argon.NeedsUpgrade(argonDigest); err != nil || up {
		t.Fatalf("current digest should not need upgrade: up=%v err=%v", up, err)
	}

	stronger := fastArgon2()
	stronger.Time = 2
	sv, err := New(Config{Argon2: stronger})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	if up, err := sv.NeedsUpgrade(argonDigest); err != nil || !up {
		t.Fatalf("weaker parameters should require upgrade: up=%v err=%v", up, err)
	}
}

func TestVerifyRejectsMalformedDigest(t *testing.T) {
	v := newFastVerifier(t, AlgorithmArgon2id)

	cases := []string{
		"",
		"plain",
		"$argon2id$v=19$m=8192,t=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$aGFzaA",
		"$2a$xx$invalid",
	}
	for _, digest := range cases {
		if _, err := v.Verify("pw", digest); !errors.Is(err, ErrInvalidDigest) {
			t.Fatalf("digest %q: expected ErrInvalidDigest, got %v", digest, err)
		}
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{Algorithm: "md5"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown algorithm, got %v", err)
	}
	weak := fastArgon2()
	weak.Memory = 1024
	if _, err := New(Config{Argon2: weak}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for weak memory, got %v", err)
	}
	if _, err := New(Config{BcryptCost: 99}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bcrypt cost, got %v", err)
	}
}

func TestEmptyPasswordHashes(t *testing.T) {
	v := newFastVerifier(t, AlgorithmArgon2id)
	digest, err := v.Hash("")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ok, _ := v.Verify("", digest); !ok {
		t.Fatal("expected empty password to verify against its own digest")
	}
}
