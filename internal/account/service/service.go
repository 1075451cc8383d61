// Package service opens wallet accounts for verified email addresses and
// checks their passwords.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,EmailVerifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cashwallet/internal/account/metrics"
	"cashwallet/internal/account/models"
	"cashwallet/pkg/domain"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/email"
	"cashwallet/pkg/platform/outbox"
	"cashwallet/pkg/platform/sentinel"
)

// Store persists accounts. Create must write the account, its wallets and the
// event atomically.
type Store interface {
	Create(ctx context.Context, account *models.Account, wallets []*models.Wallet, event *outbox.Entry) error
	FindByID(ctx context.Context, accountID domain.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, address string) (*models.Account, error)
	ListWallets(ctx context.Context, accountID domain.AccountID) ([]*models.Wallet, error)
}

// EmailVerifier answers whether an address passed one-time code verification.
type EmailVerifier interface {
	IsVerified(ctx context.Context, address string) (bool, error)
	ClearVerified(ctx context.Context, address string) error
}

type Service struct {
	accounts Store
	verifier EmailVerifier
	hashCost int
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics

	// compared against when the email is unknown so both paths cost one bcrypt check
	dummyHash []byte
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

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(accounts Store, verifier EmailVerifier, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	if verifier == nil {
		return nil, errors.New("email verifier is required")
	}
	s := &Service{
		accounts: accounts,
		verifier: verifier,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("cashwallet-dummy-password"), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	s.dummyHash = hash
	return s, nil
}

// Create opens an account with one empty wallet per supported currency. The
// email must have been verified; the verified marker is consumed on success.
func (s *Service) Create(ctx context.Context, req models.CreateRequest) (models.CreateResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.incCreated("invalid")
		return models.CreateResult{}, err
	}
	if !email.IsValid(req.Email) {
		s.incCreated("invalid")
		return models.CreateResult{}, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	now := s.now()

	var birthDate *time.Time
	if req.BirthDate != "" {
		d, err := domain.ParseBirthDate(req.BirthDate, now)
		if err != nil {
			s.incCreated("invalid")
			return models.CreateResult{}, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		birthDate = &d
	}

	verified, err := s.verifier.IsVerified(ctx, req.Email)
	if err != nil {
		return models.CreateResult{}, s.handleCreateError(ctx, req.Email, err)
	}
	if !verified {
		return models.CreateResult{}, s.handleCreateError(ctx, req.Email, fmt.Errorf("email %s: %w", req.Email, errNotVerified))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return models.CreateResult{}, s.handleCreateError(ctx, req.Email, fmt.Errorf("hash password: %w", err))
	}

	account := &models.Account{
		ID:           domain.NewAccountID(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		CountryCode:  req.CountryCode,
		BirthDate:    birthDate,
		Language:     req.Language,
		Role:         models.RoleUser,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	wallets := models.NewWallets(account.ID, now)

	event, err := newCreatedEvent(account, wallets)
	if err != nil {
		return models.CreateResult{}, s.handleCreateError(ctx, req.Email, err)
	}
	if err := s.accounts.Create(ctx, account, wallets, event); err != nil {
		return models.CreateResult{}, s.handleCreateError(ctx, req.Email, err)
	}

	if err := s.verifier.ClearVerified(ctx, account.Email); err != nil {
		s.logger.WarnContext(ctx, "failed to clear verified email marker", "account_id", account.ID.String(), "error", err)
	}

	s.logEvent(ctx, "account_created", account.Email, "account_id", account.ID.String())
	s.incCreated("created")
	return models.CreateResult{OK: true, AccountID: account.ID.String()}, nil
}

// Authenticate checks a password against the stored hash. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, address, password string) (*models.Account, error) {
	address = email.Normalize(address)
	account, err := s.accounts.FindByEmail(ctx, address)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.incLogin("rejected")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		s.logFailure(ctx, "login_rejected", address, "password_mismatch", nil)
		s.incLogin("rejected")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	s.incLogin("ok")
	return account, nil
}

// Get returns the account profile with its wallets.
func (s *Service) Get(ctx context.Context, accountID domain.AccountID) (models.AccountView, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.AccountView{}, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return models.AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	wallets, err := s.accounts.ListWallets(ctx, accountID)
	if err != nil {
		return models.AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load wallets")
	}
	return models.NewAccountView(account, wallets), nil
}

func newCreatedEvent(account *models.Account, wallets []*models.Wallet) (*outbox.Entry, error) {
	currencies := make([]string, 0, len(wallets))
	for _, w := range wallets {
		currencies = append(currencies, string(w.Currency))
	}
	payload, err := json.Marshal(models.AccountCreated{
		AccountID:  account.ID.String(),
		Email:      account.Email,
		FirstName:  account.FirstName,
		LastName:   account.LastName,
		Language:   account.Language,
		Currencies: currencies,
		CreatedAt:  account.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode account event: %w", err)
	}
	return outbox.NewEntry(models.AggregateAccount, account.ID.String(), models.EventAccountCreated, payload, account.CreatedAt), nil
}
