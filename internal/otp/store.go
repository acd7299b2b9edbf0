package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no live OTP record exists for the email.
	ErrNotFound = errors.New("otp record not found")
	// ErrCodeMismatch is returned when the submitted code does not match.
	ErrCodeMismatch = errors.New("otp code mismatch")
	// ErrAttemptsExceeded is returned once the attempt budget is spent.
	ErrAttemptsExceeded = errors.New("otp attempts exceeded")
	// ErrCooldownActive is returned while the per-email cooldown marker lives.
	ErrCooldownActive = errors.New("otp cooldown active")
	// ErrRedisUnavailable wraps backend failures.
	ErrRedisUnavailable = errors.New("otp redis unavailable")
)

// consumeLua atomically performs the validation read-modify-write on a single
// OTP record: attempts check, hash comparison, and DEL-or-HINCRBY. Running it
// as one script means a lost attempts increment cannot happen under
// concurrent validations for the same email.
//
// KEYS[1] = record key
// ARGV[1] = provided hash (32 raw bytes)
// ARGV[2] = max attempts
//
// Returns the stored hash on success, or an error string:
// "not_found", "attempts_exceeded", "code_mismatch".
var consumeLua = redis.NewScript(`
local hash = redis.call('HGET', KEYS[1], 'hash')
if not hash then
  return {err='not_found'}
end

local attempts = tonumber(redis.call('HGET', KEYS[1], 'attempts') or '0')
local maxAttempts = tonumber(ARGV[2])

if attempts >= maxAttempts then
  redis.call('DEL', KEYS[1])
  return {err='attempts_exceeded'}
end

if hash ~= ARGV[1] then
  redis.call('HINCRBY', KEYS[1], 'attempts', 1)
  return {err='code_mismatch'}
end

redis.call('DEL', KEYS[1])
return hash
`)

// Store holds OTP records and cooldown markers in Redis. Records are hashes
// of {hash, attempts}; cooldown markers are presence-only strings. All
// multi-step mutations use the store's native atomic primitives.
type Store struct {
	redis          redis.UniversalClient
	otpPrefix      string
	cooldownPrefix string
}

// NewStore creates an OTP [Store] with the given key prefixes.
func NewStore(redisClient redis.UniversalClient, otpPrefix, cooldownPrefix string) *Store {
	if otpPrefix == "" {
		otpPrefix = "otp:"
	}
	if cooldownPrefix == "" {
		cooldownPrefix = "cooldown:"
	}
	return &Store{
		redis:          redisClient,
		otpPrefix:      otpPrefix,
		cooldownPrefix: cooldownPrefix,
	}
}

func (s *Store) key(email string) string {
	return s.otpPrefix + email
}

func (s *Store) cooldownKey(email string) string {
	return s.cooldownPrefix + email
}

// ClaimCooldown sets the cooldown marker if absent. It reports false when the
// marker already exists. SET NX makes check-and-claim a single atomic step,
// so two concurrent requests cannot both pass the cooldown gate.
func (s *Store) ClaimCooldown(ctx context.Context, email string, ttl time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.cooldownKey(email), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ok, nil
}

// Replace deletes any prior record for the email and writes a fresh one with
// zero attempts and the given TTL. At most one live record per email.
func (s *Store) Replace(ctx context.Context, email string, codeHash [32]byte, ttl time.Duration) error {
	key := s.key(email)

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "hash", string(codeHash[:]), "attempts", 0)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Consume validates a submitted code hash against the stored record in one
// atomic script. On success the record is deleted and the stored hash is
// returned for a Go-side constant-time re-check. A mismatch increments the
// attempts counter and keeps the record; hitting the budget deletes it.
func (s *Store) Consume(ctx context.Context, email string, providedHash [32]byte, maxAttempts int) ([]byte, error) {
	result, err := consumeLua.Run(ctx, s.redis,
		[]string{s.key(email)},
		string(providedHash[:]),
		maxAttempts,
	).Result()

	if err != nil {
		switch err.Error() {
		case "not_found":
			return nil, ErrNotFound
		case "attempts_exceeded":
			return nil, ErrAttemptsExceeded
		case "code_mismatch":
			return nil, ErrCodeMismatch
		default:
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	stored, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected lua result type", ErrRedisUnavailable)
	}

	return []byte(stored), nil
}

// Attempts reports the current attempts counter for the email's record.
// Missing records return zero.
func (s *Store) Attempts(ctx context.Context, email string) (int, error) {
	count, err := s.redis.HGet(ctx, s.key(email), "attempts").Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}

// Exists reports whether a live OTP record exists for the email.
func (s *Store) Exists(ctx context.Context, email string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(email)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
