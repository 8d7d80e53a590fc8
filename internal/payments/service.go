package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/dirham-pay/dirham_pay/internal/credential"
	"github.com/dirham-pay/dirham_pay/internal/gateway"
	"github.com/dirham-pay/dirham_pay/internal/identifier"
	"github.com/dirham-pay/dirham_pay/internal/ledger"
	"github.com/dirham-pay/dirham_pay/internal/metrics"
	"github.com/dirham-pay/dirham_pay/internal/notification"
	"github.com/dirham-pay/dirham_pay/internal/validation"
)

const (
	transferCodePrefix = "transfer:"
	paymentCodePrefix  = "payment:"
)

// TransferFees splits a wallet transfer amount into its fee components. The
// fee is 5% of the amount and the tax is 20% of the fee, both rounded
// half-up on centimes.
func TransferFees(amount int64) (fee, tax int64) {
	fee = (amount*5 + 50) / 100
	tax = (fee*20 + 50) / 100
	return fee, tax
}

// Service runs wallet-to-wallet transfers and merchant payments. Both are
// three-phase: simulate, OTP issuance, then an OTP-gated confirm that moves
// the money.
type Service struct {
	store     ledger.Store
	journal   ledger.Journal
	creds     credential.Store
	connector gateway.Connector
	codes     identifier.CodeGenerator
	notifier  notification.Notifier
	collector *metrics.Collector
}

// NewService constructs a payments service.
func NewService(store ledger.Store, journal ledger.Journal, creds credential.Store, connector gateway.Connector, codes identifier.CodeGenerator, notifier notification.Notifier, collector *metrics.Collector) *Service {
	return &Service{
		store:     store,
		journal:   journal,
		creds:     creds,
		connector: connector,
		codes:     codes,
		notifier:  notifier,
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

// SimulateTransfer prices a wallet-to-wallet transfer and stages it. The
// sender pays amount plus fees; the receiver gets the amount only.
func (s *Service) SimulateTransfer(ctx context.Context, contractID, destinationPhone string, amount int64) (Simulation, error) {
	if err := validation.Amount(amount); err != nil {
		return Simulation{}, err
	}
	if err := validation.Phone(destinationPhone); err != nil {
		return Simulation{}, err
	}
	source, err := s.store.Get(ctx, contractID)
	if err != nil {
		return Simulation{}, err
	}
	destination, err := s.store.Get(ctx, destinationPhone)
	if err != nil {
		return Simulation{}, err
	}
	if source.ContractID == destination.ContractID {
		return Simulation{}, fmt.Errorf("%w: cannot transfer to self", validation.ErrInvalidAmount)
	}

	fee, tax := TransferFees(amount)
	totalFees := fee + tax
	totalDebit := amount + totalFees
	token := identifier.Token()
	if err := s.creds.PutOperation(ctx, credential.Operation{
		Token:       token,
		Type:        ledger.TypeTransfer,
		Source:      source.ContractID,
		Destination: destination.ContractID,
		Amount:      amount,
		Fees:        fee,
		Tax:         tax,
		TotalFees:   totalFees,
		TotalDebit:  totalDebit,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return Simulation{}, err
	}
	return Simulation{Token: token, Fee: fee, Tax: tax, TotalFees: totalFees, TotalDebit: totalDebit}, nil
}

// IssueTransferCode stores a fresh one-time code for the sending wallet.
func (s *Service) IssueTransferCode(ctx context.Context, contractID string) (string, error) {
	account, err := s.store.Get(ctx, contractID)
	if err != nil {
		return "", err
	}
	code := s.codes.Generate()
	if err := s.creds.PutCode(ctx, transferCodePrefix+account.ContractID, code); err != nil {
		return "", err
	}
	return code, nil
}

// ConfirmTransfer verifies the code and moves the money: the sender is
// debited amount plus fees atomically with the receiver's credit of the
// amount.
func (s *Service) ConfirmTransfer(ctx context.Context, token, code string, amount int64) (Receipt, error) {
	op, err := s.operation(ctx, token, ledger.TypeTransfer, amount)
	if err != nil {
		return Receipt{}, err
	}
	if err := s.creds.VerifyCode(ctx, transferCodePrefix+op.Source, code); err != nil {
		return Receipt{}, err
	}
	return s.settle(ctx, token, op, notification.KindTransferReceived)
}

// SimulatePayment prices a merchant payment and stages it. No fee applies;
// the merchant receives the full amount.
func (s *Service) SimulatePayment(ctx context.Context, contractID, merchantContractID string, amount int64) (Simulation, error) {
	if err := validation.Amount(amount); err != nil {
		return Simulation{}, err
	}
	source, err := s.store.Get(ctx, contractID)
	if err != nil {
		return Simulation{}, err
	}
	merchant, err := s.store.Get(ctx, merchantContractID)
	if err != nil {
		return Simulation{}, err
	}
	if merchant.Kind != ledger.KindMerchant {
		return Simulation{}, fmt.Errorf("%w: destination is not a merchant", ledger.ErrContractNotFound)
	}
	if source.ContractID == merchant.ContractID {
		return Simulation{}, fmt.Errorf("%w: cannot pay self", validation.ErrInvalidAmount)
	}

	token := identifier.Token()
	if err := s.creds.PutOperation(ctx, credential.Operation{
		Token:       token,
		Type:        ledger.TypeMerchantPayment,
		Source:      source.ContractID,
		Destination: merchant.ContractID,
		Amount:      amount,
		TotalDebit:  amount,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return Simulation{}, err
	}
	return Simulation{Token: token, TotalDebit: amount}, nil
}

// IssuePaymentCode stores a fresh one-time code for the paying wallet.
func (s *Service) IssuePaymentCode(ctx context.Context, contractID string) (string, error) {
	account, err := s.store.Get(ctx, contractID)
	if err != nil {
		return "", err
	}
	code := s.codes.Generate()
	if err := s.creds.PutCode(ctx, paymentCodePrefix+account.ContractID, code); err != nil {
		return "", err
	}
	return code, nil
}

// ConfirmPayment verifies the code and pays the merchant.
func (s *Service) ConfirmPayment(ctx context.Context, token, code string, amount int64) (Receipt, error) {
	op, err := s.operation(ctx, token, ledger.TypeMerchantPayment, amount)
	if err != nil {
		return Receipt{}, err
	}
	if err := s.creds.VerifyCode(ctx, paymentCodePrefix+op.Source, code); err != nil {
		return Receipt{}, err
	}
	return s.settle(ctx, token, op, notification.KindPaymentReceived)
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

func (s *Service) settle(ctx context.Context, token string, op credential.Operation, notifyKind string) (Receipt, error) {
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

	result, err := s.store.Transfer(ctx, op.Source, op.Destination, op.TotalDebit, op.Amount)
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
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notifyKind,
			Destination: result.To.Phone,
			Body:        fmt.Sprintf("You received %d centimes (%s)", op.Amount, reference),
		})
	}
	s.collector.RecordConfirm(op.Type, time.Since(started))
	return Receipt{Reference: reference, Balance: result.From.Balance}, nil
}
