package credential

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	regPrefix  = "cred:reg:"
	opPrefix   = "cred:op:"
	codePrefix = "cred:code:"
)

// RedisStore keeps credentials in Redis with native TTLs, so pending data
// survives process restarts and expires without a janitor.
type RedisStore struct {
	client     *redis.Client
	pendingTTL time.Duration
	codeTTL    time.Duration
}

// NewRedisStore builds a Redis-backed credential store.
func NewRedisStore(client *redis.Client, pendingTTL, codeTTL time.Duration) *RedisStore {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	return &RedisStore{client: client, pendingTTL: pendingTTL, codeTTL: codeTTL}
}

func (s *RedisStore) PutRegistration(ctx context.Context, reg Registration) error {
	return s.putJSON(ctx, regPrefix+reg.Token, reg, s.pendingTTL)
}

func (s *RedisStore) GetRegistration(ctx context.Context, token string) (Registration, error) {
	var reg Registration
	if err := s.getJSON(ctx, regPrefix+token, &reg); err != nil {
		return Registration{}, err
	}
	return reg, nil
}

func (s *RedisStore) DeleteRegistration(ctx context.Context, token string) error {
	return s.client.Del(ctx, regPrefix+token).Err()
}

func (s *RedisStore) PutOperation(ctx context.Context, op Operation) error {
	return s.putJSON(ctx, opPrefix+op.Token, op, s.pendingTTL)
}

func (s *RedisStore) GetOperation(ctx context.Context, token string) (Operation, error) {
	var op Operation
	if err := s.getJSON(ctx, opPrefix+token, &op); err != nil {
		return Operation{}, err
	}
	return op, nil
}

func (s *RedisStore) DeleteOperation(ctx context.Context, token string) error {
	return s.client.Del(ctx, opPrefix+token).Err()
}

func (s *RedisStore) PutCode(ctx context.Context, key, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, codePrefix+key, hash, s.codeTTL).Err()
}

func (s *RedisStore) VerifyCode(ctx context.Context, key, code string) error {
	hash, err := s.client.Get(ctx, codePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeConsumed
		}
		return err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		return ErrCodeMismatch
	}
	return s.client.Del(ctx, codePrefix+key).Err()
}

func (s *RedisStore) putJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}

func (s *RedisStore) getJSON(ctx context.Context, key string, dest any) error {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(payload, dest)
}
