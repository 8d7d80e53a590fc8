package credential

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the token or key holds no live entry, either
	// because it never existed or because its TTL elapsed.
	ErrNotFound = errors.New("credential not found or expired")

	// ErrCodeMismatch indicates the supplied one-time code does not match the
	// stored one. The stored code is retained so the caller may retry.
	ErrCodeMismatch = errors.New("one-time code mismatch")

	// ErrCodeConsumed indicates no live code exists under the key: it was
	// already used, expired or never issued. Distinct from ErrNotFound so a
	// replayed code surfaces as an invalid OTP, not a missing credential.
	ErrCodeConsumed = errors.New("one-time code consumed or expired")
)

// Default lifetimes. Entries in the source system never expired; bounding
// them is a deliberate hardening.
const (
	DefaultPendingTTL = 15 * time.Minute
	DefaultCodeTTL    = 5 * time.Minute
)

// Registration holds the submitted fields of a wallet or merchant awaiting
// activation, keyed by its token.
type Registration struct {
	Token       string
	Kind        string
	Phone       string
	FirstName   string
	LastName    string
	CompanyName string
	CreatedAt   time.Time
}

// Operation is the output of a simulate step awaiting its confirm, keyed by
// its token.
type Operation struct {
	Token       string
	Type        string
	Source      string
	Destination string
	Amount      int64
	Fees        int64
	Tax         int64
	TotalFees   int64
	TotalDebit  int64
	CreatedAt   time.Time
}

// Store keeps short-lived registration data, pending operations and one-time
// codes. Codes are stored hashed and are consumed exactly once: deleted on a
// successful verification, kept on a mismatch.
type Store interface {
	PutRegistration(ctx context.Context, reg Registration) error
	GetRegistration(ctx context.Context, token string) (Registration, error)
	DeleteRegistration(ctx context.Context, token string) error

	PutOperation(ctx context.Context, op Operation) error
	GetOperation(ctx context.Context, token string) (Operation, error)
	DeleteOperation(ctx context.Context, token string) error

	PutCode(ctx context.Context, key, code string) error
	VerifyCode(ctx context.Context, key, code string) error
}
