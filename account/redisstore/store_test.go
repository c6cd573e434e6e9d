package redisstore

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/account/storetest"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) account.Store {
		_, rdb := newTestRedis(t)
		return New(rdb, "")
	})
}

func TestStoreKeyLayout(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := New(rdb, "svc")

	acct := &account.Account{ID: "id-1", Email: "A@x.com", VerificationCode: "111111"}
	if err := s.Create(context.Background(), acct); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, key := range []string{"svc:id:id-1", "svc:email:a@x.com", "svc:code:111111"} {
		if !mr.Exists(key) {
			t.Fatalf("expected key %s to exist", key)
		}
	}
	if acct.Email != "a@x.com" {
		t.Fatalf("expected normalized email written back, got %q", acct.Email)
	}
}

func TestStoreRejectsUnknownRecordVersion(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := New(rdb, "")

	if err := mr.Set("acct:id:bad", `{"v":9,"id":"bad"}`); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	_, err := s.GetByID(context.Background(), "bad")
	if !errors.Is(err, account.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for unknown version, got %v", err)
	}
}

func TestStorePingReportsOutage(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := New(rdb, "")

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	mr.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, account.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after shutdown, got %v", err)
	}
}
