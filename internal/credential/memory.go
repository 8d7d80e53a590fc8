package credential

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type expiring[T any] struct {
	value     T
	expiresAt time.Time
}

type memoryStore struct {
	mu            sync.Mutex
	registrations map[string]expiring[Registration]
	operations    map[string]expiring[Operation]
	codes         map[string]expiring[[]byte] // bcrypt hashes
	pendingTTL    time.Duration
	codeTTL       time.Duration
	now           func() time.Time
}

// NewMemoryStore creates an in-memory credential store. Expiry is checked at
// read time; there is no background janitor.
func NewMemoryStore(pendingTTL, codeTTL time.Duration) Store {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	return &memoryStore{
		registrations: make(map[string]expiring[Registration]),
		operations:    make(map[string]expiring[Operation]),
		codes:         make(map[string]expiring[[]byte]),
		pendingTTL:    pendingTTL,
		codeTTL:       codeTTL,
		now:           time.Now,
	}
}

func (s *memoryStore) PutRegistration(_ context.Context, reg Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[reg.Token] = expiring[Registration]{value: reg, expiresAt: s.now().Add(s.pendingTTL)}
	return nil
}

func (s *memoryStore) GetRegistration(_ context.Context, token string) (Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.registrations[token]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.registrations, token)
		return Registration{}, ErrNotFound
	}
	return entry.value, nil
}

func (s *memoryStore) DeleteRegistration(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registrations, token)
	return nil
}

func (s *memoryStore) PutOperation(_ context.Context, op Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations[op.Token] = expiring[Operation]{value: op, expiresAt: s.now().Add(s.pendingTTL)}
	return nil
}

func (s *memoryStore) GetOperation(_ context.Context, token string) (Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.operations[token]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.operations, token)
		return Operation{}, ErrNotFound
	}
	return entry.value, nil
}

func (s *memoryStore) DeleteOperation(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.operations, token)
	return nil
}

func (s *memoryStore) PutCode(_ context.Context, key, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[key] = expiring[[]byte]{value: hash, expiresAt: s.now().Add(s.codeTTL)}
	return nil
}

func (s *memoryStore) VerifyCode(_ context.Context, key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.codes[key]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.codes, key)
		return ErrCodeConsumed
	}
	if bcrypt.CompareHashAndPassword(entry.value, []byte(code)) != nil {
		return ErrCodeMismatch
	}
	delete(s.codes, key)
	return nil
}
