package banking

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

const (
	atmCodePrefix  = "atm:"
	bankCodePrefix = "bank:"
)

// Fixed ATM withdrawal pricing, in centimes.
const (
	ATMFee = 300
	ATMTax = 27
)

// Service runs the two rail-facing operation families: ATM withdrawals and
// bank transfers by RIB. Both debit a wallet without crediting any ledger
// account; the money leaves through the gateway.
type Service struct {
	store     ledger.Store
	journal   ledger.Journal
	creds     credential.Store
	connector gateway.Connector
	atmCodes  identifier.CodeGenerator
	bankCodes identifier.CodeGenerator
	collector *metrics.Collector
}

// NewService constructs a banking service. The bank-transfer family carries
// its own code generator so its issuance policy can differ from the ATM one.
func NewService(store ledger.Store, journal ledger.Journal, creds credential.Store, connector gateway.Connector, atmCodes, bankCodes identifier.CodeGenerator, collector *metrics.Collector) *Service {
	return &Service{
		store:     store,
		journal:   journal,
		creds:     creds,
		connector: connector,
		atmCodes:  atmCodes,
		bankCodes: bankCodes,
		collector: collector,
	}
}

// Simulation is the cost breakdown a simulate phase returns alongside the
// confirm token.
type Simulation struct {
	Token      string
	Fee        int64
	Tax        int64
	TotalFees  int64
	TotalDebit int64
}

// Receipt is the outcome of a confirm phase.
type Receipt struct {
	Reference string
	Balance   int64
}

// SimulateWithdrawal prices a cardless ATM withdrawal and stages it. The fee
// schedule is fixed: 3.00 MAD fee plus 0.27 MAD tax.
func (s *Service) SimulateWithdrawal(ctx context.Context, contractID string, amount int64) (Simulation, error) {
	if err := validation.Amount(amount); err != nil {
		return Simulation{}, err
	}
	account, err := s.store.Get(ctx, contractID)
	if err != nil {
		return Simulation{}, err
	}

	totalFees := int64(ATMFee + ATMTax)
	totalDebit := amount + totalFees
	token := identifier.Token()
	if err := s.creds.PutOperation(ctx, credential.Operation{
		Token:      token,
		Type:       ledger.TypeWithdrawal,
		Source:     account.ContractID,
		Amount:     amount,
		Fees:       ATMFee,
		Tax:        ATMTax,
		TotalFees:  totalFees,
		TotalDebit: totalDebit,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return Simulation{}, err
	}
	return Simulation{Token: token, Fee: ATMFee, Tax: ATMTax, TotalFees: totalFees, TotalDebit: totalDebit}, nil
}

// IssueWithdrawalCode stores a fresh one-time code for the wallet. At an ATM
// the code doubles as the cardless withdrawal secret.
func (s *Service) IssueWithdrawalCode(ctx context.Context, contractID string) (string, error) {
	account, err := s.store.Get(ctx, contractID)
	if err != nil {
		return "", err
	}
	code := s.atmCodes.Generate()
	if err := s.creds.PutCode(ctx, atmCodePrefix+account.ContractID, code); err != nil {
		return "", err
	}
	return code, nil
}

// ConfirmWithdrawal verifies the code and debits the wallet. No ledger
// account is credited; the cash is dispensed by the machine.
func (s *Service) ConfirmWithdrawal(ctx context.Context, token, code string, amount int64) (Receipt, error) {
	op, err := s.operation(ctx, token, ledger.TypeWithdrawal, amount)
	if err != nil {
		return Receipt{}, err
	}
	if err := s.creds.VerifyCode(ctx, atmCodePrefix+op.Source, code); err != nil {
		return Receipt{}, err
	}
	return s.settle(ctx, token, op)
}

// SimulateBankTransfer prices a transfer to an external bank account and
// stages it. No fee applies.
func (s *Service) SimulateBankTransfer(ctx context.Context, contractID, rib string, amount int64) (Simulation, error) {
	if err := validation.Amount(amount); err != nil {
		return Simulation{}, err
	}
	if err := validation.RIB(rib); err != nil {
		return Simulation{}, err
	}
	account, err := s.store.Get(ctx, contractID)
	if err != nil {
		return Simulation{}, err
	}

	token := identifier.Token()
	if err := s.creds.PutOperation(ctx, credential.Operation{
		Token:       token,
		Type:        ledger.TypeBankTransfer,
		Source:      account.ContractID,
		Destination: rib,
		Amount:      amount,
		TotalDebit:  amount,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return Simulation{}, err
	}
	return Simulation{Token: token, TotalDebit: amount}, nil
}

// IssueBankTransferCode stores a one-time code for the wallet using the
// bank-transfer code generator.
func (s *Service) IssueBankTransferCode(ctx context.Context, contractID string) (string, error) {
	account, err := s.store.Get(ctx, contractID)
	if err != nil {
		return "", err
	}
	code := s.bankCodes.Generate()
	if err := s.creds.PutCode(ctx, bankCodePrefix+account.ContractID, code); err != nil {
		return "", err
	}
	return code, nil
}

// ConfirmBankTransfer verifies the code, authorizes the movement with the
// bank rail and debits the wallet.
func (s *Service) ConfirmBankTransfer(ctx context.Context, token, code string, amount int64) (Receipt, error) {
	op, err := s.operation(ctx, token, ledger.TypeBankTransfer, amount)
	if err != nil {
		return Receipt{}, err
	}
	if err := s.creds.VerifyCode(ctx, bankCodePrefix+op.Source, code); err != nil {
		return Receipt{}, err
	}
	return s.settle(ctx, token, op)
}

func (s *Service) operation(ctx context.Context, token, txType string, amount int64) (credential.Operation, error) {
	op, err := s.creds.GetOperation(ctx, token)
	if err != nil {
		return credential.Operation{}, err
	}
	if op.Type != txType {
		return credential.Operation{}, fmt.Errorf("%w: token was issued for %s", credential.ErrNotFound, op.Type)
	}
	if amount != op.Amount {
		return credential.Operation{}, validation.ErrAmountMismatch
	}
	return op, nil
}

func (s *Service) settle(ctx context.Context, token string, op credential.Operation) (Receipt, error) {
	started := time.Now()
	decision, err := s.connector.Authorize(ctx, gateway.Authorization{
		Operation:  op.Type,
		ContractID: op.Source,
		RIB:        op.Destination,
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
		Reference:   reference,
		Type:        op.Type,
		Source:      op.Source,
		Destination: op.Destination,
		Amount:      op.Amount,
		Fees:        op.Fees,
		TotalFees:   op.TotalFees,
		Status:      "completed",
		Note:        decision.Reference,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return Receipt{}, err
	}

	if err := s.creds.DeleteOperation(ctx, token); err != nil {
		return Receipt{}, err
	}
	s.collector.RecordConfirm(op.Type, time.Since(started))
	return Receipt{Reference: reference, Balance: account.Balance}, nil
}
