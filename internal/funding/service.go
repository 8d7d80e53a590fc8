package funding

import (
	"context"
	"fmt"
	"time"

	"github.com/dirham-pay/dirham_pay/internal/credential"
	"github.com/dirham-pay/dirham_pay/internal/gateway"
	"github.com/dirham-pay/dirham_pay/internal/identifier"
	"github.com/dirham-pay/dirham_pay/internal/ledger"
	"github.com/dirham-pay/dirham_pay/internal/metrics"
	"github.com/dirham-pay/dirham_pay/internal/validation"
)

const cashOutCodePrefix = "cashout:"

// Service runs the cash-in and cash-out operation families. Cash-in is
// two-phase (simulate then confirm); cash-out adds an OTP gate before its
// confirm because money leaves the wallet.
type Service struct {
	store     ledger.Store
	journal   ledger.Journal
	creds     credential.Store
	connector gateway.Connector
	codes     identifier.CodeGenerator
	collector *metrics.Collector
}

// NewService constructs a funding service.
func NewService(store ledger.Store, journal ledger.Journal, creds credential.Store, connector gateway.Connector, codes identifier.CodeGenerator, collector *metrics.Collector) *Service {
	return &Service{
		store:     store,
		journal:   journal,
		creds:     creds,
		connector: connector,
		codes:     codes,
		collector: collector,
	}
}

// Simulation is the outcome of a simulate phase: the computed cost and the
// token the confirm phase must present.
type Simulation struct {
	Token      string
	Fee        int64
	TotalDebit int64
}

// Receipt is the outcome of a confirm phase.
type Receipt struct {
	Reference string
	Balance   int64
}

// SimulateCashIn computes the credit and stages a pending operation. Nothing
// is mutated.
func (s *Service) SimulateCashIn(ctx context.Context, contractID string, amount, fee int64) (Simulation, error) {
	if err := validation.Amount(amount); err != nil {
		return Simulation{}, err
	}
	if err := validation.Fee(fee); err != nil {
		return Simulation{}, err
	}
	account, err := s.store.Get(ctx, contractID)
	if err != nil {
		return Simulation{}, err
	}

	token := identifier.Token()
	if err := s.creds.PutOperation(ctx, credential.Operation{
		Token:     token,
		Type:      ledger.TypeCashIn,
		Source:    account.ContractID,
		Amount:    amount,
		Fees:      fee,
		TotalFees: fee,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return Simulation{}, err
	}
	return Simulation{Token: token, Fee: fee}, nil
}

// ConfirmCashIn credits the wallet and journals the movement. The token is
// consumed on success, so replaying the confirm fails instead of
// double-crediting.
func (s *Service) ConfirmCashIn(ctx context.Context, token string, amount int64) (Receipt, error) {
	op, err := s.creds.GetOperation(ctx, token)
	if err != nil {
		return Receipt{}, err
	}
	if op.Type != ledger.TypeCashIn {
		return Receipt{}, fmt.Errorf("%w: token was issued for %s", credential.ErrNotFound, op.Type)
	}
	if amount != op.Amount {
		return Receipt{}, validation.ErrAmountMismatch
	}

	started := time.Now()
	decision, err := s.connector.Authorize(ctx, gateway.Authorization{
		Operation:  op.Type,
		ContractID: op.Source,
		Amount:     op.Amount,
	})
	if err != nil {
		s.collector.RecordFailure(op.Type)
		return Receipt{}, err
	}

	account, err := s.store.Credit(ctx, op.Source, op.Amount)
	if err != nil {
		s.collector.RecordFailure(op.Type)
		return Receipt{}, err
	}

	reference := identifier.Reference(op.Type)
	if err := s.journal.Append(ctx, ledger.Transaction{
		Reference: reference,
		Type:      op.Type,
		Source:    op.Source,
		Amount:    op.Amount,
		Fees:      op.Fees,
		TotalFees: op.TotalFees,
		Status:    "completed",
		Note:      decision.Reference,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return Receipt{}, err
	}

	if err := s.creds.DeleteOperation(ctx, token); err != nil {
		return Receipt{}, err
	}
	s.collector.RecordConfirm(op.Type, time.Since(started))
	return Receipt{Reference: reference, Balance: account.Balance}, nil
}

// SimulateCashOut computes the total debit for a cash withdrawal at an agent
// and stages a pending operation keyed by a fresh token.
func (s *Service) SimulateCashOut(ctx context.Context, phone string, amount, fee int64) (Simulation, error) {
	if err := validation.Phone(phone); err != nil {
		return Simulation{}, err
	}
	if err := validation.Amount(amount); err != nil {
		return Simulation{}, err
	}
	if err := validation.Fee(fee); err != nil {
		return Simulation{}, err
	}
	account, err := s.store.Get(ctx, phone)
	if err != nil {
		return Simulation{}, err
	}

	totalDebit := amount + fee
	token := identifier.Token()
	if err := s.creds.PutOperation(ctx, credential.Operation{
		Token:      token,
		Type:       ledger.TypeCashOut,
		Source:     account.ContractID,
		Amount:     amount,
		Fees:       fee,
		TotalFees:  fee,
		TotalDebit: totalDebit,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return Simulation{}, err
	}
	return Simulation{Token: token, Fee: fee, TotalDebit: totalDebit}, nil
}

// IssueCashOutCode stores a fresh one-time code for the wallet owner.
func (s *Service) IssueCashOutCode(ctx context.Context, phone string) (string, error) {
	account, err := s.store.Get(ctx, phone)
	if err != nil {
		return "", err
	}
	code := s.codes.Generate()
	if err := s.creds.PutCode(ctx, cashOutCodePrefix+account.ContractID, code); err != nil {
		return "", err
	}
	return code, nil
}

// ConfirmCashOut verifies the code, re-checks the balance at confirm time and
// debits the wallet. A wrong code leaves both the code and the pending
// operation intact.
func (s *Service) ConfirmCashOut(ctx context.Context, token, code string, amount int64) (Receipt, error) {
	op, err := s.creds.GetOperation(ctx, token)
	if err != nil {
		return Receipt{}, err
	}
	if op.Type != ledger.TypeCashOut {
		return Receipt{}, fmt.Errorf("%w: token was issued for %s", credential.ErrNotFound, op.Type)
	}
	if amount != op.Amount {
		return Receipt{}, validation.ErrAmountMismatch
	}
	if err := s.creds.VerifyCode(ctx, cashOutCodePrefix+op.Source, code); err != nil {
		return Receipt{}, err
	}

	started := time.Now()
	decision, err := s.connector.Authorize(ctx, gateway.Authorization{
		Operation:  op.Type,
		ContractID: op.Source,
		Amount:     op.Amount,
	})
	if err != nil {
		s.collector.RecordFailure(op.Type)
		return Receipt{}, err
	}

	account, err := s.store.Debit(ctx, op.Source, op.TotalDebit)
	if err != nil {
		s.collector.RecordFailure(op.Type)
		return Receipt{}, err
	}

	reference := identifier.Reference(op.Type)
	if err := s.journal.Append(ctx, ledger.Transaction{
		Reference: reference,
		Type:      op.Type,
		Source:    op.Source,
		Amount:    op.Amount,
		Fees:      op.Fees,
		TotalFees: op.TotalFees,
		Status:    "completed",
		Note:      decision.Reference,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return Receipt{}, err
	}

	if err := s.creds.DeleteOperation(ctx, token); err != nil {
		return Receipt{}, err
	}
	s.collector.RecordConfirm(op.Type, time.Since(started))
	return Receipt{Reference: reference, Balance: account.Balance}, nil
}
