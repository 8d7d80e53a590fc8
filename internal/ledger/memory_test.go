package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestAccount(contractID, phone string, balance int64) Account {
	now := time.Now().UTC()
	return Account{
		ContractID:  contractID,
		RIB:         "007810000123456789012345",
		Phone:       phone,
		FirstName:   "Amina",
		LastName:    "Berrada",
		Kind:        KindWallet,
		Balance:     balance,
		Status:      StatusActive,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func TestMemoryStoreDualIndex(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, newTestAccount("100000000001", "212600000001", 5_000)); err != nil {
		t.Fatalf("create: %v", err)
	}

	byContract, err := store.Get(ctx, "100000000001")
	if err != nil {
		t.Fatalf("get by contract: %v", err)
	}
	byPhone, err := store.Get(ctx, "212600000001")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if byContract.ContractID != byPhone.ContractID || byContract.Balance != byPhone.Balance {
		t.Fatalf("indices disagree: %+v vs %+v", byContract, byPhone)
	}

	// A mutation through one key must be visible through the other.
	if _, err := store.Credit(ctx, "212600000001", 1_000); err != nil {
		t.Fatalf("credit by phone: %v", err)
	}
	byContract, _ = store.Get(ctx, "100000000001")
	if byContract.Balance != 6_000 {
		t.Fatalf("expected 6000 via contract lookup, got %d", byContract.Balance)
	}
}

func TestMemoryStoreDebitInsufficient(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Create(ctx, newTestAccount("100000000001", "212600000001", 100)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.Debit(ctx, "100000000001", 500); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	account, _ := store.Get(ctx, "100000000001")
	if account.Balance != 100 {
		t.Fatalf("failed debit mutated balance: %d", account.Balance)
	}
}

func TestMemoryStoreCreateCollision(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Create(ctx, newTestAccount("100000000001", "212600000001", 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, newTestAccount("100000000001", "212600000002", 0)); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists for contract collision, got %v", err)
	}
	if err := store.Create(ctx, newTestAccount("100000000002", "212600000001", 0)); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists for phone collision, got %v", err)
	}
}

func TestMemoryStoreTransferConservesFunds(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Create(ctx, newTestAccount("100000000001", "212600000001", 10_000))
	store.Create(ctx, newTestAccount("100000000002", "212600000002", 0))

	res, err := store.Transfer(ctx, "100000000001", "212600000002", 1_060, 1_000)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.From.Balance != 8_940 {
		t.Fatalf("expected source 8940, got %d", res.From.Balance)
	}
	if res.To.Balance != 1_000 {
		t.Fatalf("expected destination 1000, got %d", res.To.Balance)
	}
}

func TestMemoryStoreTransferInsufficientLeavesBothUntouched(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Create(ctx, newTestAccount("100000000001", "212600000001", 500))
	store.Create(ctx, newTestAccount("100000000002", "212600000002", 200))

	if _, err := store.Transfer(ctx, "100000000001", "100000000002", 1_000, 900); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	from, _ := store.Get(ctx, "100000000001")
	to, _ := store.Get(ctx, "100000000002")
	if from.Balance != 500 || to.Balance != 200 {
		t.Fatalf("failed transfer mutated balances: %d / %d", from.Balance, to.Balance)
	}
}

func TestMemoryStoreTransferSameAccount(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Create(ctx, newTestAccount("100000000001", "212600000001", 10_000))

	// The two keys resolve to one account; the transfer must refuse instead
	// of locking it twice.
	if _, err := store.Transfer(ctx, "100000000001", "212600000001", 1_060, 1_000); !errors.Is(err, ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}

	account, _ := store.Get(ctx, "100000000001")
	if account.Balance != 10_000 {
		t.Fatalf("refused transfer mutated balance: %d", account.Balance)
	}
}

func TestMemoryStoreConcurrentOpposingTransfers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Create(ctx, newTestAccount("100000000001", "212600000001", 100_000))
	store.Create(ctx, newTestAccount("100000000002", "212600000002", 100_000))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				store.Transfer(ctx, "100000000001", "100000000002", 500, 500)
			} else {
				store.Transfer(ctx, "100000000002", "100000000001", 500, 500)
			}
		}(i)
	}
	wg.Wait()

	from, _ := store.Get(ctx, "100000000001")
	to, _ := store.Get(ctx, "100000000002")
	if from.Balance+to.Balance != 200_000 {
		t.Fatalf("funds not conserved: %d", from.Balance+to.Balance)
	}
}

func TestMemoryStoreConcurrentDebitsNeverOverdraw(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Create(ctx, newTestAccount("100000000001", "212600000001", 1_000))

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Debit(ctx, "100000000001", 300)
		}()
	}
	wg.Wait()

	account, _ := store.Get(ctx, "100000000001")
	if account.Balance < 0 {
		t.Fatalf("balance went negative: %d", account.Balance)
	}
	if account.Balance != 100 {
		t.Fatalf("expected exactly three debits to land, balance %d", account.Balance)
	}
}

func TestMemoryStoreUnknownKey(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrContractNotFound) {
		t.Fatalf("expected ErrContractNotFound, got %v", err)
	}
}

func TestMemoryJournalOrderingAndLimit(t *testing.T) {
	journal := NewMemoryJournal()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 15; i++ {
		err := journal.Append(ctx, Transaction{
			Reference: fmt.Sprintf("TT-%06d", i),
			Type:      TypeTransfer,
			Source:    "100000000001",
			Amount:    100,
			Status:    "completed",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := journal.List(ctx, "100000000001", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != DefaultHistoryLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultHistoryLimit, len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatalf("entries not descending at index %d", i)
		}
	}
	if entries[0].Reference != "TT-000014" {
		t.Fatalf("expected most recent first, got %s", entries[0].Reference)
	}
}

func TestMemoryJournalMatchesSourceAndDestination(t *testing.T) {
	journal := NewMemoryJournal()
	ctx := context.Background()

	journal.Append(ctx, Transaction{Reference: "TT-A", Type: TypeTransfer, Source: "A", Destination: "B", CreatedAt: time.Now().UTC()})
	journal.Append(ctx, Transaction{Reference: "TT-B", Type: TypeTransfer, Source: "B", Destination: "C", CreatedAt: time.Now().UTC()})
	journal.Append(ctx, Transaction{Reference: "GAB-1", Type: TypeWithdrawal, Source: "A", CreatedAt: time.Now().UTC()})

	entries, err := journal.List(ctx, "B", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for B, got %d", len(entries))
	}
}

func TestMemoryJournalDuplicateReference(t *testing.T) {
	journal := NewMemoryJournal()
	ctx := context.Background()

	if err := journal.Append(ctx, Transaction{Reference: "CIN-1", Type: TypeCashIn, Source: "A", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := journal.Append(ctx, Transaction{Reference: "CIN-1", Type: TypeCashIn, Source: "A", CreatedAt: time.Now().UTC()}); !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}
}
