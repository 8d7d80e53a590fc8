package ledger

import (
	"context"
	"sync"
	"time"
)

type accountEntry struct {
	mu      sync.Mutex
	account Account
}

type memoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*accountEntry // keyed by contract ID
	phones   map[string]string        // phone -> contract ID
}

// NewMemoryStore creates a concurrency-safe in-memory account ledger.
func NewMemoryStore() Store {
	return &memoryStore{
		accounts: make(map[string]*accountEntry),
		phones:   make(map[string]string),
	}
}

func (s *memoryStore) Create(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.ContractID]; exists {
		return ErrAccountExists
	}
	if _, exists := s.phones[account.Phone]; exists {
		return ErrAccountExists
	}
	s.accounts[account.ContractID] = &accountEntry{account: account}
	s.phones[account.Phone] = account.ContractID
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (Account, error) {
	entry, err := s.resolve(key)
	if err != nil {
		return Account{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.account, nil
}

func (s *memoryStore) Credit(_ context.Context, key string, amount int64) (Account, error) {
	entry, err := s.resolve(key)
	if err != nil {
		return Account{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.account.Balance += amount
	entry.account.LastUpdated = time.Now().UTC()
	return entry.account, nil
}

func (s *memoryStore) Debit(_ context.Context, key string, amount int64) (Account, error) {
	entry, err := s.resolve(key)
	if err != nil {
		return Account{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.account.Balance < amount {
		return Account{}, ErrInsufficientBalance
	}
	entry.account.Balance -= amount
	entry.account.LastUpdated = time.Now().UTC()
	return entry.account, nil
}

func (s *memoryStore) Transfer(_ context.Context, fromKey, toKey string, debit, credit int64) (TransferResult, error) {
	from, err := s.resolve(fromKey)
	if err != nil {
		return TransferResult{}, err
	}
	to, err := s.resolve(toKey)
	if err != nil {
		return TransferResult{}, err
	}
	// Both keys may resolve to one account; locking it twice would deadlock.
	if from == to {
		return TransferResult{}, ErrSameAccount
	}

	// Lock both participants in contract-ID order so two opposing transfers
	// cannot deadlock.
	first, second := from, to
	if second.account.ContractID < first.account.ContractID {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if from.account.Balance < debit {
		return TransferResult{}, ErrInsufficientBalance
	}

	now := time.Now().UTC()
	from.account.Balance -= debit
	from.account.LastUpdated = now
	to.account.Balance += credit
	to.account.LastUpdated = now

	return TransferResult{From: from.account, To: to.account}, nil
}

func (s *memoryStore) resolve(key string) (*accountEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.accounts[key]; ok {
		return entry, nil
	}
	if contractID, ok := s.phones[key]; ok {
		return s.accounts[contractID], nil
	}
	return nil, ErrContractNotFound
}
