package credential

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(time.Minute, time.Minute),
		"redis":  NewRedisStore(client, time.Minute, time.Minute),
	}
}

func TestCodeSingleUse(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.PutCode(ctx, "cashout:100000000001", "482913"); err != nil {
				t.Fatalf("put code: %v", err)
			}

			// Mismatch does not consume the stored code.
			if err := store.VerifyCode(ctx, "cashout:100000000001", "000000"); !errors.Is(err, ErrCodeMismatch) {
				t.Fatalf("expected ErrCodeMismatch, got %v", err)
			}
			if err := store.VerifyCode(ctx, "cashout:100000000001", "482913"); err != nil {
				t.Fatalf("verify after mismatch: %v", err)
			}

			// Success consumes it; a replay is an invalid OTP, not a missing
			// credential.
			if err := store.VerifyCode(ctx, "cashout:100000000001", "482913"); !errors.Is(err, ErrCodeConsumed) {
				t.Fatalf("expected ErrCodeConsumed on replay, got %v", err)
			}
		})
	}
}

func TestRegistrationLifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			reg := Registration{
				Token:     "tok-1",
				Kind:      "wallet",
				Phone:     "212600000001",
				FirstName: "Amina",
				LastName:  "Berrada",
				CreatedAt: time.Now().UTC(),
			}
			if err := store.PutRegistration(ctx, reg); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, err := store.GetRegistration(ctx, "tok-1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Phone != reg.Phone || got.Kind != reg.Kind {
				t.Fatalf("unexpected registration: %+v", got)
			}
			if err := store.DeleteRegistration(ctx, "tok-1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := store.GetRegistration(ctx, "tok-1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestOperationLifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			op := Operation{
				Token:      "tok-op",
				Type:       "TT",
				Source:     "100000000001",
				Amount:     10_000,
				Fees:       500,
				Tax:        100,
				TotalFees:  600,
				TotalDebit: 10_600,
				CreatedAt:  time.Now().UTC(),
			}
			if err := store.PutOperation(ctx, op); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, err := store.GetOperation(ctx, "tok-op")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.TotalDebit != 10_600 || got.Type != "TT" {
				t.Fatalf("unexpected operation: %+v", got)
			}
			if err := store.DeleteOperation(ctx, "tok-op"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := store.GetOperation(ctx, "tok-op"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute).(*memoryStore)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	store.PutRegistration(ctx, Registration{Token: "tok-exp"})
	store.PutCode(ctx, "key-exp", "123456")

	store.now = func() time.Time { return base.Add(2 * time.Minute) }

	if _, err := store.GetRegistration(ctx, "tok-exp"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired registration, got %v", err)
	}
	if err := store.VerifyCode(ctx, "key-exp", "123456"); !errors.Is(err, ErrCodeConsumed) {
		t.Fatalf("expected expired code, got %v", err)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Minute, time.Minute)
	ctx := context.Background()

	if err := store.PutCode(ctx, "key-exp", "123456"); err != nil {
		t.Fatalf("put code: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if err := store.VerifyCode(ctx, "key-exp", "123456"); !errors.Is(err, ErrCodeConsumed) {
		t.Fatalf("expected expired code, got %v", err)
	}
}
