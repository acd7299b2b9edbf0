package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vaishali515/switchboard-auth/internal/account"
	"github.com/vaishali515/switchboard-auth/internal/keys"
	"github.com/vaishali515/switchboard-auth/internal/otp"
	"github.com/vaishali515/switchboard-auth/internal/refresh"
	"github.com/vaishali515/switchboard-auth/internal/token"
)

type fakeAccounts struct {
	byEmail map[string]*account.Account
	byID    map[uuid.UUID]*account.Account
}

func newFakeAccounts(accts ...*account.Account) *fakeAccounts {
	f := &fakeAccounts{
		byEmail: make(map[string]*account.Account),
		byID:    make(map[uuid.UUID]*account.Account),
	}
	for _, a := range accts {
		f.byEmail[a.Email] = a
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	if a, ok := f.byEmail[email]; ok {
		return a, nil
	}
	return nil, account.ErrAccountNotFound
}

func (f *fakeAccounts) FindByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, account.ErrAccountNotFound
}

type capturedNotification struct {
	email string
	code  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []capturedNotification
}

func (f *fakeNotifier) OTPIssued(_ context.Context, email, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, capturedNotification{email: email, code: code})
}

func (f *fakeNotifier) last(t *testing.T) capturedNotification {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no notification captured")
	}
	return f.sent[len(f.sent)-1]
}

// fakeRefresh mirrors the manager's rotation semantics in memory.
type fakeRefresh struct {
	mu     sync.Mutex
	tokens map[string]*refresh.Token
	ttl    time.Duration
}

func newFakeRefresh(ttl time.Duration) *fakeRefresh {
	return &fakeRefresh{tokens: make(map[string]*refresh.Token), ttl: ttl}
}

func (f *fakeRefresh) Create(_ context.Context, accountID uuid.UUID) (*refresh.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.AccountID == accountID {
			t.Revoked = true
		}
	}
	now := time.Now()
	tok := &refresh.Token{
		ID:        uuid.New(),
		Value:     uuid.NewString(),
		AccountID: accountID,
		ExpiresAt: now.Add(f.ttl),
		CreatedAt: now,
	}
	f.tokens[tok.Value] = tok
	return tok, nil
}

func (f *fakeRefresh) FindValid(_ context.Context, value string) (*refresh.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[value]
	if !ok || t.Revoked || !t.ExpiresAt.After(time.Now()) {
		return nil, refresh.ErrTokenNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeRefresh) IsValid(_ context.Context, t *refresh.Token) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	live, ok := f.tokens[t.Value]
	return ok && !live.Revoked && live.ExpiresAt.After(time.Now()), nil
}

func (f *fakeRefresh) Revoke(_ context.Context, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[value]; ok {
		t.Revoked = true
	}
	return nil
}

type serviceTestEnv struct {
	service  Service
	notifier *fakeNotifier
	issuer   *token.Issuer
	redis    *miniredis.Miniredis
	account  *account.Account
}

func newServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	issuer := token.NewIssuer(keys.FromKeyPair(key, "auth-key-1"), 15*time.Minute, "switchboard-auth")

	acct := &account.Account{
		ID:    uuid.New(),
		Email: "a@x.com",
		Name:  "Ada",
		Roles: []string{"USER"},
	}

	notifier := &fakeNotifier{}
	engine := otp.NewEngine(otp.NewStore(rdb, "otp:", "cooldown:"), otp.Config{}, zap.NewNop())

	svc := NewService(
		newFakeAccounts(acct),
		engine,
		issuer,
		newFakeRefresh(7*24*time.Hour),
		notifier,
		zap.NewNop(),
	)

	return &serviceTestEnv{
		service:  svc,
		notifier: notifier,
		issuer:   issuer,
		redis:    mr,
		account:  acct,
	}
}

func TestRequestOTPUnknownEmail(t *testing.T) {
	env := newServiceTest(t)

	err := env.service.RequestOTP(context.Background(), "ghost@x.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(env.notifier.sent) != 0 {
		t.Fatal("no notification may be sent for unknown emails")
	}
}

func TestRequestOTPDeliversThroughNotifier(t *testing.T) {
	env := newServiceTest(t)

	if err := env.service.RequestOTP(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}

	note := env.notifier.last(t)
	if note.email != "a@x.com" {
		t.Fatalf("expected notification for a@x.com, got %q", note.email)
	}
	if !regexp.MustCompile(`^[0-9]{6}$`).MatchString(note.code) {
		t.Fatalf("expected 6-digit code, got %q", note.code)
	}
}

func TestRequestOTPCooldown(t *testing.T) {
	env := newServiceTest(t)
	ctx := context.Background()

	if err := env.service.RequestOTP(ctx, "a@x.com"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := env.service.RequestOTP(ctx, "a@x.com"); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("expected ErrCooldownActive, got %v", err)
	}
}

func TestValidateOTPIssuesTokenPair(t *testing.T) {
	env := newServiceTest(t)
	ctx := context.Background()

	if err := env.service.RequestOTP(ctx, "a@x.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	code := env.notifier.last(t).code

	pair, err := env.service.ValidateOTP(ctx, "a@x.com", code)
	if err != nil {
		t.Fatalf("validate otp: %v", err)
	}

	if pair.TokenType != "Bearer" {
		t.Fatalf("expected Bearer, got %q", pair.TokenType)
	}
	if pair.ExpiresIn != 900 {
		t.Fatalf("expected expiresIn 900, got %d", pair.ExpiresIn)
	}
	if pair.RefreshToken == "" {
		t.Fatal("expected a refresh token")
	}

	claims, err := env.issuer.Parse(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != "a@x.com" || claims.UID != env.account.ID.String() {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// The code was consumed: a replay fails.
	if _, err := env.service.ValidateOTP(ctx, "a@x.com", code); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound on replay, got %v", err)
	}
}

func TestValidateOTPFailureMapping(t *testing.T) {
	env := newServiceTest(t)
	ctx := context.Background()

	if _, err := env.service.ValidateOTP(ctx, "a@x.com", "123456"); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound with no record, got %v", err)
	}

	if err := env.service.RequestOTP(ctx, "a@x.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	code := env.notifier.last(t).code

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 3; i++ {
		if _, err := env.service.ValidateOTP(ctx, "a@x.com", wrong); !errors.Is(err, ErrOTPInvalid) {
			t.Fatalf("attempt %d: expected ErrOTPInvalid, got %v", i, err)
		}
	}

	// Budget spent: even the correct code is rejected until a new request.
	if _, err := env.service.ValidateOTP(ctx, "a@x.com", code); !errors.Is(err, ErrOTPAttemptsExceeded) {
		t.Fatalf("expected ErrOTPAttemptsExceeded, got %v", err)
	}
	if _, err := env.service.ValidateOTP(ctx, "a@x.com", code); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound after invalidation, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	env := newServiceTest(t)
	ctx := context.Background()

	if err := env.service.RequestOTP(ctx, "a@x.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	pair1, err := env.service.ValidateOTP(ctx, "a@x.com", env.notifier.last(t).code)
	if err != nil {
		t.Fatalf("validate otp: %v", err)
	}

	pair2, err := env.service.Refresh(ctx, pair1.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair2.RefreshToken == pair1.RefreshToken {
		t.Fatal("rotation must produce a new refresh token")
	}
	if pair2.TokenType != "Bearer" || pair2.ExpiresIn != 900 {
		t.Fatalf("unexpected refreshed pair: %+v", pair2)
	}

	// The presented token was invalidated by its own use.
	if _, err := env.service.Refresh(ctx, pair1.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid for rotated-out token, got %v", err)
	}

	// The replacement works.
	if _, err := env.service.Refresh(ctx, pair2.RefreshToken); err != nil {
		t.Fatalf("refresh with replacement: %v", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	env := newServiceTest(t)

	if _, err := env.service.Refresh(context.Background(), "no-such-token"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid, got %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newServiceTest(t)
	ctx := context.Background()

	if err := env.service.RequestOTP(ctx, "a@x.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	pair, err := env.service.ValidateOTP(ctx, "a@x.com", env.notifier.last(t).code)
	if err != nil {
		t.Fatalf("validate otp: %v", err)
	}

	if err := env.service.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := env.service.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid after logout, got %v", err)
	}

	// Logging out twice is harmless.
	if err := env.service.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}
