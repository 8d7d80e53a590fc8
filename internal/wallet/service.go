package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dirham-pay/dirham_pay/internal/credential"
	"github.com/dirham-pay/dirham_pay/internal/identifier"
	"github.com/dirham-pay/dirham_pay/internal/ledger"
	"github.com/dirham-pay/dirham_pay/internal/validation"
)

const regCodeKeyPrefix = "reg:"

// Service handles account registration, activation, balance and history
// queries. Activation is the only path that creates ledger accounts.
type Service struct {
	store          ledger.Store
	journal        ledger.Journal
	creds          credential.Store
	codes          identifier.CodeGenerator
	openingBalance int64
}

// NewService builds a wallet service. openingBalance seeds new accounts in
// this simulated environment.
func NewService(store ledger.Store, journal ledger.Journal, creds credential.Store, codes identifier.CodeGenerator, openingBalance int64) *Service {
	return &Service{
		store:          store,
		journal:        journal,
		creds:          creds,
		codes:          codes,
		openingBalance: openingBalance,
	}
}

// PreCreateInput captures the submitted registration fields.
type PreCreateInput struct {
	Phone       string
	FirstName   string
	LastName    string
	CompanyName string
}

// PreCreateResult returns the activation token and the one-time code. A real
// rail would deliver the code out-of-band; the simulator echoes it back.
type PreCreateResult struct {
	Token string
	Code  string
	Phone string
}

// PreCreateWallet validates the submitted fields and stages a pending wallet
// registration.
func (s *Service) PreCreateWallet(ctx context.Context, in PreCreateInput) (PreCreateResult, error) {
	if err := validation.Required(map[string]string{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	}); err != nil {
		return PreCreateResult{}, err
	}
	return s.preCreate(ctx, ledger.KindWallet, in)
}

// PreCreateMerchant stages a pending merchant registration.
func (s *Service) PreCreateMerchant(ctx context.Context, in PreCreateInput) (PreCreateResult, error) {
	if err := validation.Required(map[string]string{
		"first_name":   in.FirstName,
		"last_name":    in.LastName,
		"company_name": in.CompanyName,
	}); err != nil {
		return PreCreateResult{}, err
	}
	return s.preCreate(ctx, ledger.KindMerchant, in)
}

func (s *Service) preCreate(ctx context.Context, kind string, in PreCreateInput) (PreCreateResult, error) {
	if err := validation.Phone(in.Phone); err != nil {
		return PreCreateResult{}, err
	}
	if _, err := s.store.Get(ctx, in.Phone); err == nil {
		return PreCreateResult{}, fmt.Errorf("%w: phone already registered", ledger.ErrAccountExists)
	} else if !errors.Is(err, ledger.ErrContractNotFound) {
		return PreCreateResult{}, err
	}

	token := identifier.Token()
	if err := s.creds.PutRegistration(ctx, credential.Registration{
		Token:       token,
		Kind:        kind,
		Phone:       in.Phone,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		CompanyName: in.CompanyName,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return PreCreateResult{}, err
	}

	code := s.codes.Generate()
	if err := s.creds.PutCode(ctx, regCodeKeyPrefix+token, code); err != nil {
		return PreCreateResult{}, err
	}

	return PreCreateResult{Token: token, Code: code, Phone: in.Phone}, nil
}

// Activate consumes a pending registration and mints the account. A wrong
// code leaves both the registration and the stored code intact for retry.
func (s *Service) Activate(ctx context.Context, token, code string) (ledger.Account, error) {
	if err := validation.Required(map[string]string{"token": token, "otp": code}); err != nil {
		return ledger.Account{}, err
	}

	reg, err := s.creds.GetRegistration(ctx, token)
	if err != nil {
		return ledger.Account{}, err
	}
	if err := s.creds.VerifyCode(ctx, regCodeKeyPrefix+token, code); err != nil {
		return ledger.Account{}, err
	}

	now := time.Now().UTC()
	account := ledger.Account{
		ContractID:  identifier.ContractID(),
		RIB:         identifier.RIB(),
		Phone:       reg.Phone,
		FirstName:   reg.FirstName,
		LastName:    reg.LastName,
		CompanyName: reg.CompanyName,
		Kind:        reg.Kind,
		Balance:     s.openingBalance,
		Status:      ledger.StatusActive,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return ledger.Account{}, err
	}

	if err := s.creds.DeleteRegistration(ctx, token); err != nil {
		return ledger.Account{}, err
	}
	return account, nil
}

// BalanceResult is a point-in-time balance snapshot.
type BalanceResult struct {
	ContractID string
	Balance    int64
	AsOf       time.Time
}

// Balance returns the current balance for a contract ID or phone number.
func (s *Service) Balance(ctx context.Context, key string) (BalanceResult, error) {
	account, err := s.store.Get(ctx, key)
	if err != nil {
		return BalanceResult{}, err
	}
	return BalanceResult{ContractID: account.ContractID, Balance: account.Balance, AsOf: time.Now().UTC()}, nil
}

// History lists the account's journal entries, most recent first.
func (s *Service) History(ctx context.Context, key string, limit int) ([]ledger.Transaction, error) {
	account, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.journal.List(ctx, account.ContractID, limit)
}
