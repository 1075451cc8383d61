// Package service owns the signed-in session: it is started after registration
// or login, restored from the access token on each request, and torn down on
// logout.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Authenticator,AccountReader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	accountmodels "cashwallet/internal/account/models"
	jwttoken "cashwallet/internal/jwt_token"
	"cashwallet/internal/platform/privacy"
	"cashwallet/internal/session/metrics"
	"cashwallet/internal/session/models"
	"cashwallet/pkg/domain"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/platform/sentinel"
	"cashwallet/pkg/requestcontext"
)

const tokenType = "Bearer"

type Store interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID domain.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID domain.SessionID) error
	DeleteByAccount(ctx context.Context, accountID domain.AccountID) (int, error)
}

// Authenticator checks account credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, address, password string) (*accountmodels.Account, error)
}

// AccountReader loads the profile of the signed-in account.
type AccountReader interface {
	Get(ctx context.Context, accountID domain.AccountID) (accountmodels.AccountView, error)
}

// expirer is implemented by stores without native key expiry.
type expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Current is the restored session state returned to the client.
type Current struct {
	Session models.SessionView        `json:"session"`
	Account accountmodels.AccountView `json:"account"`
}

type Service struct {
	sessions Store
	tokens   *jwttoken.JWTService
	auth     Authenticator
	accounts AccountReader
	logger   *slog.Logger
	metrics  *metrics.Metrics
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

func New(sessions Store, tokens *jwttoken.JWTService, auth Authenticator, accounts AccountReader, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if tokens == nil {
		return nil, errors.New("token service is required")
	}
	if auth == nil || accounts == nil {
		return nil, errors.New("account service is required")
	}
	s := &Service{
		sessions: sessions,
		tokens:   tokens,
		auth:     auth,
		accounts: accounts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start opens a session for an account that was just created. deviceLabel is
// the display form of the caller's User-Agent.
func (s *Service) Start(ctx context.Context, accountID domain.AccountID, deviceLabel string) (models.Grant, error) {
	return s.open(ctx, accountID, deviceLabel, models.OriginRegistration)
}

// Login checks credentials and opens a new session on the calling device.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.Grant, error) {
	account, err := s.auth.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return models.Grant{}, err
	}
	return s.open(ctx, account.ID, requestcontext.UserAgent(ctx), models.OriginLogin)
}

func (s *Service) open(ctx context.Context, accountID domain.AccountID, deviceLabel string, origin models.Origin) (models.Grant, error) {
	if accountID.IsNil() {
		return models.Grant{}, dErrors.New(dErrors.CodeBadRequest, "account is required")
	}
	if deviceLabel == "" {
		deviceLabel = "unknown device"
	}
	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:                domain.NewSessionID(),
		AccountID:         accountID,
		Origin:            origin,
		DeviceDisplayName: deviceLabel,
		ClientIP:          requestcontext.ClientIP(ctx),
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.tokens.TTL()),
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(ctx, accountID, session.ID)
	if err != nil {
		return models.Grant{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}
	session.ExpiresAt = expiresAt
	if err := s.sessions.Create(ctx, session); err != nil {
		return models.Grant{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store session")
	}

	s.logEvent(ctx, "session_started", session, "origin", string(origin))
	if s.metrics != nil {
		s.metrics.IncStarted(string(origin))
	}
	return models.Grant{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresAt:   expiresAt,
		AccountID:   accountID.String(),
	}, nil
}

// Resolve maps an access token to its live session. A valid token whose
// session was logged out is rejected.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		s.incAuthFailure()
		return nil, err
	}
	sessionID, err := domain.ParseSessionID(claims.SessionID)
	if err != nil {
		s.incAuthFailure()
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.incAuthFailure()
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session ended")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.IsExpired(requestcontext.Now(ctx)) || session.AccountID.String() != claims.AccountID {
		s.incAuthFailure()
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session ended")
	}
	return session, nil
}

// ResolveSession adapts Resolve to the session middleware.
func (s *Service) ResolveSession(ctx context.Context, token string) (domain.AccountID, domain.SessionID, error) {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return domain.AccountID{}, domain.SessionID{}, err
	}
	return session.AccountID, session.ID, nil
}

// Current restores the session and account behind token.
func (s *Service) Current(ctx context.Context, token string) (Current, error) {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return Current{}, err
	}
	account, err := s.accounts.Get(ctx, session.AccountID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return Current{}, dErrors.New(dErrors.CodeUnauthorized, "session ended")
		}
		return Current{}, err
	}
	return Current{Session: models.NewSessionView(session), Account: account}, nil
}

// Logout ends the session behind token.
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
	}
	s.logEvent(ctx, "session_ended", session)
	s.addEnded("logout", 1)
	return nil
}

// LogoutAll ends every session of the account behind token.
func (s *Service) LogoutAll(ctx context.Context, token string) (int, error) {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}
	n, err := s.sessions.DeleteByAccount(ctx, session.AccountID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to end sessions")
	}
	s.logEvent(ctx, "sessions_ended", session, "count", n)
	s.addEnded("logout_all", n)
	return n, nil
}

// PurgeExpired removes stale sessions from stores that do not expire keys natively.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	e, ok := s.sessions.(expirer)
	if !ok {
		return 0, nil
	}
	n, err := e.DeleteExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	s.addEnded("expired", n)
	return n, nil
}

func (s *Service) logEvent(ctx context.Context, event string, session *models.Session, attributes ...any) {
	args := append(attributes,
		"event", event,
		"log_type", "session",
		"account_id", session.AccountID.String(),
		"session_id", session.ID.String(),
		"device", session.DeviceDisplayName,
		"client_ip", privacy.AnonymizeIP(session.ClientIP),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) incAuthFailure() {
	if s.metrics != nil {
		s.metrics.IncAuthFailure()
	}
}

func (s *Service) addEnded(reason string, n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.AddEnded(reason, n)
	}
}
