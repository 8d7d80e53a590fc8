package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientBalance occurs when a debit would drive an account balance
	// below zero. The balance is left untouched.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrContractNotFound indicates the key resolves to no account, neither as
	// a contract ID nor as a phone number.
	ErrContractNotFound = errors.New("contract not found")

	// ErrAccountExists indicates a create collided with an existing contract ID
	// or phone number.
	ErrAccountExists = errors.New("account already exists")

	// ErrDuplicateReference indicates a journal append reused a reference.
	ErrDuplicateReference = errors.New("duplicate transaction reference")

	// ErrSameAccount indicates a transfer whose source and destination resolve
	// to the same account.
	ErrSameAccount = errors.New("transfer source and destination are the same account")
)

// Transaction types recorded in the journal.
const (
	TypeCashIn          = "CIN"
	TypeCashOut         = "COUT"
	TypeTransfer        = "TT"
	TypeMerchantPayment = "TM"
	TypeWithdrawal      = "GAB"
	TypeBankTransfer    = "VIREMENT"
)

// Account kinds.
const (
	KindWallet   = "wallet"
	KindMerchant = "merchant"
)

// StatusActive is the status newly activated accounts carry.
const StatusActive = "active"

// Account is a wallet or merchant account. Balance is carried in centimes.
type Account struct {
	ContractID  string
	RIB         string
	Phone       string
	FirstName   string
	LastName    string
	CompanyName string
	Kind        string
	Balance     int64
	Status      string
	Products    []string
	CreatedAt   time.Time
	LastUpdated time.Time
}

// TransferResult carries the post-mutation state of both parties of a
// cross-account movement.
type TransferResult struct {
	From Account
	To   Account
}

// Store is the account ledger. Accounts are addressable by contract ID or
// phone number; both keys resolve to the same record. Credit and Debit are
// atomic per account, Transfer acquires both participants in a fixed global
// order.
type Store interface {
	Create(ctx context.Context, account Account) error
	Get(ctx context.Context, key string) (Account, error)
	Credit(ctx context.Context, key string, amount int64) (Account, error)
	Debit(ctx context.Context, key string, amount int64) (Account, error)
	Transfer(ctx context.Context, fromKey, toKey string, debit, credit int64) (TransferResult, error)
}

// Transaction is an immutable journal record written after a successful
// balance mutation.
type Transaction struct {
	Reference   string
	Type        string
	Source      string
	Destination string
	Amount      int64
	Fees        int64
	TotalFees   int64
	Status      string
	IsCanceled  bool
	Note        string
	CreatedAt   time.Time
}

// Journal is the append-only record of completed ledger movements.
type Journal interface {
	Append(ctx context.Context, tx Transaction) error
	List(ctx context.Context, accountKey string, limit int) ([]Transaction, error)
}

// DefaultHistoryLimit bounds List results when the caller does not specify one.
const DefaultHistoryLimit = 10
