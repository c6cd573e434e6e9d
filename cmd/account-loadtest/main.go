// Command account-loadtest measures Login, Refresh and Authenticate
// throughput against the Redis account store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/account/redisstore"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/mailer"
	"github.com/MrEthical07/goAccount/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const loadPassword = "load-test-password"

func main() {
	var (
		accounts    = flag.Int("accounts", 10000, "number of verified accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "acct-load", "account key prefix")
		cost        = flag.Int("bcrypt-cost", 4, "bcrypt cost for seeded digests")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := redisstore.New(client, *prefix)

	cfg := goAccount.DefaultConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("L", 32))
	cfg.Password.Algorithm = "bcrypt"
	cfg.Password.BcryptCost = *cost
	cfg.Metrics.EnableLatencyHistograms = true
	// Failures in the login phase must not lock seeded accounts.
	cfg.Lockout.MaxAttempts = 1 << 30

	engine, err := goAccount.New().
		WithConfig(cfg).
		WithStore(store).
		WithMailer(mailer.NewLogMailer(logging.Nop(), mailer.Templates{})).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	emails, err := seed(ctx, store, *accounts, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	tokens := make([]string, len(emails))
	loginStats := runPhase(*ops, *concurrency, len(emails), func(idx int) error {
		res, err := engine.Login(ctx, emails[idx], loadPassword)
		if err == nil {
			tokens[idx] = res.Token
		}
		return err
	})
	authStats := runPhase(*ops, *concurrency, len(emails), func(idx int) error {
		if tokens[idx] == "" {
			return errNoToken
		}
		_, err := engine.Authenticate(ctx, tokens[idx])
		return err
	})
	refreshStats := runPhase(*ops, *concurrency, len(emails), func(idx int) error {
		if tokens[idx] == "" {
			return errNoToken
		}
		_, err := engine.Refresh(ctx, tokens[idx])
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("authenticate", authStats)
	printStats("refresh", refreshStats)
}

var errNoToken = errors.New("no token for account")

func seed(ctx context.Context, store account.Store, n, cost int) ([]string, error) {
	hasher, err := password.NewBcrypt(cost)
	if err != nil {
		return nil, err
	}
	digest, err := hasher.Hash(loadPassword)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	emails := make([]string, n)
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		emails[i] = fmt.Sprintf("load-%d@example.com", i)
		acct := &account.Account{
			ID:             uuid.NewString(),
			Email:          emails[i],
			Name:           "Load Tester",
			PasswordDigest: digest,
			Status:         account.StatusVerified,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := store.Create(ctx, acct); err != nil {
			return nil, fmt.Errorf("create %s: %w", emails[i], err)
		}
	}
	fmt.Printf("seeded %d accounts in %s\n", n, time.Since(start).Round(time.Millisecond))
	return emails, nil
}

// runPhase issues ops calls of fn across concurrency workers. Each call
// targets a random account index. Token slots are written in the login
// phase only, and phases run one after another.
func runPhase(ops, concurrency, population int, fn func(idx int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
		slots     = make([]sync.Mutex, population)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(population)

				slots[idx].Lock()
				t0 := time.Now()
				err := fn(idx)
				d := time.Since(t0)
				slots[idx].Unlock()
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
