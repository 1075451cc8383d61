// Package service issues and checks the one-time codes that prove control of
// an email address during registration.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CodeStore,Mailer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cashwallet/internal/verification/metrics"
	"cashwallet/internal/verification/models"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/email"
	"cashwallet/pkg/platform/sentinel"
	platformsync "cashwallet/pkg/platform/sync"
)

const (
	codeDigits = 6

	defaultTTL         = 10 * time.Minute
	defaultCooldown    = 30 * time.Second
	defaultMaxAttempts = 5
	defaultVerifiedTTL = time.Hour
)

// CodeStore persists outstanding codes and verified-email markers.
type CodeStore interface {
	Save(ctx context.Context, rec *models.CodeRecord) error
	Find(ctx context.Context, address string) (*models.CodeRecord, error)
	Execute(ctx context.Context, address string, validate func(*models.CodeRecord) error, mutate func(*models.CodeRecord)) (*models.CodeRecord, error)
	Delete(ctx context.Context, address string) error
	MarkVerified(ctx context.Context, address string, until time.Time) error
	IsVerified(ctx context.Context, address string, now time.Time) (bool, error)
	ClearVerified(ctx context.Context, address string) error
}

// Mailer delivers a plain code to its recipient.
type Mailer interface {
	SendCode(ctx context.Context, to, code string, ttl time.Duration) error
}

// expirer is implemented by stores without native key expiry.
type expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Service struct {
	codes       CodeStore
	mailer      Mailer
	ttl         time.Duration
	cooldown    time.Duration
	verifiedTTL time.Duration
	maxAttempts int
	hashCost    int
	exposeCodes bool
	generate    func() (string, error)
	now         func() time.Time
	logger      *slog.Logger
	metrics     *metrics.Metrics
	sendLocks   *platformsync.KeyedMutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCodeTTL sets how long an issued code stays valid.
func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithResendCooldown sets the minimum delay between two codes for one address.
// Zero disables the cooldown.
func WithResendCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.cooldown = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithVerifiedTTL sets how long a verified address may be used to create an account.
func WithVerifiedTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.verifiedTTL = ttl
		}
	}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// WithExposeCodes returns issued codes to the caller. Never enable in production.
func WithExposeCodes(expose bool) Option {
	return func(s *Service) {
		s.exposeCodes = expose
	}
}

func WithCodeGenerator(generate func() (string, error)) Option {
	return func(s *Service) {
		s.generate = generate
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(codes CodeStore, mailer Mailer, opts ...Option) (*Service, error) {
	if codes == nil {
		return nil, errors.New("code store is required")
	}
	if mailer == nil {
		return nil, errors.New("mailer is required")
	}
	s := &Service{
		codes:       codes,
		mailer:      mailer,
		ttl:         defaultTTL,
		cooldown:    defaultCooldown,
		verifiedTTL: defaultVerifiedTTL,
		maxAttempts: defaultMaxAttempts,
		hashCost:    bcrypt.DefaultCost,
		generate:    generateCode,
		now:         time.Now,
		logger:      slog.Default(),
		sendLocks:   platformsync.NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send issues a fresh code for address and delivers it. A new code replaces
// any outstanding one once the resend cooldown has passed.
func (s *Service) Send(ctx context.Context, address string) (models.SendResult, error) {
	address = email.Normalize(address)
	if !email.IsValid(address) {
		s.incSent("invalid_email")
		return models.SendResult{}, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	// The cooldown check and the save must not interleave for one address.
	s.sendLocks.Lock(address)
	defer s.sendLocks.Unlock(address)
	now := s.now()

	existing, err := s.codes.Find(ctx, address)
	switch {
	case err == nil:
		if !existing.IsExpired(now) && existing.InCooldown(now, s.cooldown) {
			return models.SendResult{}, s.handleSendError(ctx, address, fmt.Errorf("resend: %w", sentinel.ErrCooldown))
		}
	case !errors.Is(err, sentinel.ErrNotFound):
		return models.SendResult{}, s.handleSendError(ctx, address, err)
	}

	code, err := s.generate()
	if err != nil {
		return models.SendResult{}, s.handleSendError(ctx, address, fmt.Errorf("generate code: %w", err))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return models.SendResult{}, s.handleSendError(ctx, address, fmt.Errorf("hash code: %w", err))
	}

	rec := &models.CodeRecord{
		Email:     address,
		Hash:      string(hash),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.codes.Save(ctx, rec); err != nil {
		return models.SendResult{}, s.handleSendError(ctx, address, err)
	}

	if err := s.mailer.SendCode(ctx, address, code, s.ttl); err != nil {
		if delErr := s.codes.Delete(ctx, address); delErr != nil && !errors.Is(delErr, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to drop undelivered code", "error", delErr)
		}
		return models.SendResult{}, s.handleSendError(ctx, address, fmt.Errorf("deliver code: %w: %w", sentinel.ErrUnavailable, err))
	}

	s.logEvent(ctx, "otp_sent", address)
	s.incSent("sent")

	result := models.SendResult{OK: true}
	if s.exposeCodes {
		result.Code = code
	}
	return result, nil
}

// Verify checks code against the outstanding record for address. A match
// consumes the code and marks the address verified. Every compare counts
// toward the attempt limit; the code is discarded once it is reached.
func (s *Service) Verify(ctx context.Context, address, code string) (models.VerifyResult, error) {
	address = email.Normalize(address)
	if !email.IsValid(address) {
		return models.VerifyResult{}, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	now := s.now()

	rec, err := s.codes.Find(ctx, address)
	if err != nil {
		return models.VerifyResult{}, s.handleVerifyError(ctx, address, err)
	}
	if rec.IsExpired(now) {
		s.discard(ctx, address)
		return models.VerifyResult{}, s.handleVerifyError(ctx, address, sentinel.ErrExpired)
	}
	if rec.Attempts >= s.maxAttempts {
		s.discard(ctx, address)
		return models.VerifyResult{}, s.handleVerifyError(ctx, address, sentinel.ErrTooManyAttempts)
	}

	// The attempt is reserved before the compare so parallel guesses cannot
	// all pass the limit check on the same snapshot.
	reserved, err := s.codes.Execute(ctx, address,
		func(cur *models.CodeRecord) error {
			if cur.Hash != rec.Hash {
				return fmt.Errorf("code reissued: %w", sentinel.ErrMismatch)
			}
			if cur.Attempts >= s.maxAttempts {
				return sentinel.ErrTooManyAttempts
			}
			return nil
		},
		func(cur *models.CodeRecord) {
			cur.Attempts++
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrTooManyAttempts) {
			s.discard(ctx, address)
		}
		return models.VerifyResult{}, s.handleVerifyError(ctx, address, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.Hash), []byte(code)) != nil {
		if reserved.Attempts >= s.maxAttempts {
			s.discard(ctx, address)
			return models.VerifyResult{}, s.handleVerifyError(ctx, address, sentinel.ErrTooManyAttempts)
		}
		return models.VerifyResult{}, s.handleVerifyError(ctx, address, sentinel.ErrMismatch)
	}

	s.discard(ctx, address)
	if err := s.codes.MarkVerified(ctx, address, now.Add(s.verifiedTTL)); err != nil {
		return models.VerifyResult{}, s.handleVerifyError(ctx, address, err)
	}

	s.logEvent(ctx, "otp_verified", address)
	s.incChecked("verified")
	return models.VerifyResult{OK: true}, nil
}

// IsVerified reports whether address passed verification recently enough to
// open an account.
func (s *Service) IsVerified(ctx context.Context, address string) (bool, error) {
	ok, err := s.codes.IsVerified(ctx, email.Normalize(address), s.now())
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email verification")
	}
	return ok, nil
}

// ClearVerified consumes the verified marker once an account has been opened.
func (s *Service) ClearVerified(ctx context.Context, address string) error {
	if err := s.codes.ClearVerified(ctx, email.Normalize(address)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear email verification")
	}
	return nil
}

// PurgeExpired removes stale codes from stores that do not expire keys natively.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	e, ok := s.codes.(expirer)
	if !ok {
		return 0, nil
	}
	n, err := e.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired codes: %w", err)
	}
	return n, nil
}

func (s *Service) discard(ctx context.Context, address string) {
	if err := s.codes.Delete(ctx, address); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to delete code record", "error", err)
	}
}

func generateCode() (string, error) {
	limit := big.NewInt(1)
	for range codeDigits {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
