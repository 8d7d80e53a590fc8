package banking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dirham-pay/dirham_pay/internal/credential"
	"github.com/dirham-pay/dirham_pay/internal/gateway"
	"github.com/dirham-pay/dirham_pay/internal/identifier"
	"github.com/dirham-pay/dirham_pay/internal/ledger"
	"github.com/dirham-pay/dirham_pay/internal/validation"
)

func seedAccount(t *testing.T, store ledger.Store, contractID, phone string, balance int64) {
	t.Helper()
	now := time.Now().UTC()
	err := store.Create(context.Background(), ledger.Account{
		ContractID:  contractID,
		RIB:         "007810000123456789012345",
		Phone:       phone,
		FirstName:   "Amina",
		LastName:    "Berrada",
		Kind:        ledger.KindWallet,
		Balance:     balance,
		Status:      ledger.StatusActive,
		CreatedAt:   now,
		LastUpdated: now,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func newTestService(store ledger.Store, journal ledger.Journal) *Service {
	return NewService(
		store,
		journal,
		credential.NewMemoryStore(time.Minute, time.Minute),
		gateway.Static{},
		identifier.RandomCode{Length: 6},
		identifier.Static("123456"),
		nil,
	)
}

func TestWithdrawalFullFlow(t *testing.T) {
	store := ledger.NewMemoryStore()
	journal := ledger.NewMemoryJournal()
	svc := newTestService(store, journal)
	ctx := context.Background()
	seedAccount(t, store, "100000000001", "212600000001", 100_000)

	// Withdraw 200.00 MAD: fixed fees 3.00 + 0.27 make the debit 203.27.
	sim, err := svc.SimulateWithdrawal(ctx, "100000000001", 20_000)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if sim.Fee != 300 || sim.Tax != 27 || sim.TotalFees != 327 || sim.TotalDebit != 20_327 {
		t.Fatalf("unexpected pricing: %+v", sim)
	}

	code, err := svc.IssueWithdrawalCode(ctx, "100000000001")
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}
	receipt, err := svc.ConfirmWithdrawal(ctx, sim.Token, code, 20_000)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if receipt.Balance != 79_673 {
		t.Fatalf("expected balance 79673, got %d", receipt.Balance)
	}

	entries, _ := journal.List(ctx, "100000000001", 10)
	if len(entries) != 1 || entries[0].Type != ledger.TypeWithdrawal || entries[0].Destination != "" {
		t.Fatalf("unexpected journal: %+v", entries)
	}

	if _, err := svc.ConfirmWithdrawal(ctx, sim.Token, code, 20_000); !errors.Is(err, credential.ErrNotFound) {
		t.Fatalf("expected consumed token, got %v", err)
	}
}

func TestWithdrawalInsufficientForFees(t *testing.T) {
	store := ledger.NewMemoryStore()
	svc := newTestService(store, ledger.NewMemoryJournal())
	ctx := context.Background()
	// Covers the amount but not the 327 centimes of fixed fees.
	seedAccount(t, store, "100000000001", "212600000001", 20_100)

	sim, err := svc.SimulateWithdrawal(ctx, "100000000001", 20_000)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	code, _ := svc.IssueWithdrawalCode(ctx, "100000000001")

	if _, err := svc.ConfirmWithdrawal(ctx, sim.Token, code, 20_000); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	account, _ := store.Get(ctx, "100000000001")
	if account.Balance != 20_100 {
		t.Fatalf("failed confirm mutated balance: %d", account.Balance)
	}
}

func TestBankTransferFullFlow(t *testing.T) {
	store := ledger.NewMemoryStore()
	journal := ledger.NewMemoryJournal()
	svc := newTestService(store, journal)
	ctx := context.Background()
	seedAccount(t, store, "100000000001", "212600000001", 100_000)

	rib := "011780000987654321098765"
	sim, err := svc.SimulateBankTransfer(ctx, "100000000001", rib, 50_000)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if sim.TotalDebit != 50_000 {
		t.Fatalf("bank transfer carries no fee, got total debit %d", sim.TotalDebit)
	}

	code, err := svc.IssueBankTransferCode(ctx, "100000000001")
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}
	if code != "123456" {
		t.Fatalf("expected the fixed generator's code, got %q", code)
	}

	receipt, err := svc.ConfirmBankTransfer(ctx, sim.Token, code, 50_000)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if receipt.Balance != 50_000 {
		t.Fatalf("expected balance 50000, got %d", receipt.Balance)
	}

	entries, _ := journal.List(ctx, "100000000001", 10)
	if len(entries) != 1 || entries[0].Type != ledger.TypeBankTransfer || entries[0].Destination != rib {
		t.Fatalf("unexpected journal: %+v", entries)
	}
}

func TestBankTransferRejectsBadRIB(t *testing.T) {
	store := ledger.NewMemoryStore()
	svc := newTestService(store, ledger.NewMemoryJournal())
	ctx := context.Background()
	seedAccount(t, store, "100000000001", "212600000001", 100_000)

	if _, err := svc.SimulateBankTransfer(ctx, "100000000001", "0117800009876543210", 1_000); !errors.Is(err, validation.ErrInvalidRIB) {
		t.Fatalf("expected ErrInvalidRIB, got %v", err)
	}
}

func TestBankTransferWrongCode(t *testing.T) {
	store := ledger.NewMemoryStore()
	svc := newTestService(store, ledger.NewMemoryJournal())
	ctx := context.Background()
	seedAccount(t, store, "100000000001", "212600000001", 100_000)

	sim, err := svc.SimulateBankTransfer(ctx, "100000000001", "011780000987654321098765", 1_000)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if _, err := svc.IssueBankTransferCode(ctx, "100000000001"); err != nil {
		t.Fatalf("issue code: %v", err)
	}
	if _, err := svc.ConfirmBankTransfer(ctx, sim.Token, "654321", 1_000); !errors.Is(err, credential.ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
}
