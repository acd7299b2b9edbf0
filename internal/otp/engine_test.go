package otp

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func newEngineTest(t *testing.T, cfg Config) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	engine := NewEngine(NewStore(rdb, "otp:", "cooldown:"), cfg, zap.NewNop())
	return engine, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRequestReturnsSixDigitCode(t *testing.T) {
	engine, _, done := newEngineTest(t, Config{})
	defer done()

	code, err := engine.Request(context.Background(), "A@X.com")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if !sixDigits.MatchString(code) {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
}

func TestRequestCooldownRejectsImmediateRetry(t *testing.T) {
	engine, mr, done := newEngineTest(t, Config{Cooldown: 60 * time.Second})
	defer done()
	ctx := context.Background()

	if _, err := engine.Request(ctx, "a@x.com"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := engine.Request(ctx, "a@x.com"); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("expected ErrCooldownActive, got %v", err)
	}

	// Independent identities are not throttled by each other's markers.
	if _, err := engine.Request(ctx, "b@x.com"); err != nil {
		t.Fatalf("request for other email: %v", err)
	}

	mr.FastForward(61 * time.Second)

	if _, err := engine.Request(ctx, "a@x.com"); err != nil {
		t.Fatalf("request after cooldown: %v", err)
	}
}

func TestValidateRoundTrip(t *testing.T) {
	engine, _, done := newEngineTest(t, Config{})
	defer done()
	ctx := context.Background()

	code, err := engine.Request(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := engine.Validate(ctx, "A@X.COM", code); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// Single use: the record was consumed.
	if err := engine.Validate(ctx, "a@x.com", code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}
}

func TestValidateWrongCodeBudget(t *testing.T) {
	engine, _, done := newEngineTest(t, Config{MaxAttempts: 3})
	defer done()
	ctx := context.Background()

	code, err := engine.Request(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 3; i++ {
		if err := engine.Validate(ctx, "a@x.com", wrong); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("wrong attempt %d: expected ErrCodeMismatch, got %v", i, err)
		}
	}

	// Fourth submission with the originally-correct code still fails: the
	// budget is spent and the record is invalidated.
	if err := engine.Validate(ctx, "a@x.com", code); !errors.Is(err, ErrAttemptsExceeded) {
		t.Fatalf("expected ErrAttemptsExceeded, got %v", err)
	}
	if err := engine.Validate(ctx, "a@x.com", code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after invalidation, got %v", err)
	}
}

func TestValidateExpiredRecord(t *testing.T) {
	engine, mr, done := newEngineTest(t, Config{TTL: 5 * time.Minute})
	defer done()
	ctx := context.Background()

	code, err := engine.Request(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	mr.FastForward(6 * time.Minute)

	if err := engine.Validate(ctx, "a@x.com", code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestNewRequestReplacesOldCode(t *testing.T) {
	engine, mr, done := newEngineTest(t, Config{Cooldown: time.Second})
	defer done()
	ctx := context.Background()

	first, err := engine.Request(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}

	mr.FastForward(2 * time.Second)

	second, err := engine.Request(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if first != second {
		if err := engine.Validate(ctx, "a@x.com", first); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("expected old code to mismatch, got %v", err)
		}
	}
	if err := engine.Validate(ctx, "a@x.com", second); err != nil {
		t.Fatalf("new code must validate: %v", err)
	}
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !sixDigits.MatchString(code) || code[0] == '0' {
			t.Fatalf("code %q outside [100000, 999999]", code)
		}
	}
}
