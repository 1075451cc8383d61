package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountevents "cashwallet/internal/account/events"
	accounthandler "cashwallet/internal/account/handler"
	accountmetrics "cashwallet/internal/account/metrics"
	accountservice "cashwallet/internal/account/service"
	accountstore "cashwallet/internal/account/store"
	jwttoken "cashwallet/internal/jwt_token"
	"cashwallet/internal/platform/config"
	"cashwallet/internal/platform/health"
	"cashwallet/internal/platform/kafka"
	"cashwallet/internal/platform/kafka/consumer"
	"cashwallet/internal/platform/mailer"
	platformmetrics "cashwallet/internal/platform/metrics"
	"cashwallet/internal/platform/tracer"
	"cashwallet/internal/registration/adapters"
	"cashwallet/internal/registration/adapters/remote"
	registrationhandler "cashwallet/internal/registration/handler"
	registrationmetrics "cashwallet/internal/registration/metrics"
	registrationmodels "cashwallet/internal/registration/models"
	registrationservice "cashwallet/internal/registration/service"
	"cashwallet/internal/registration/workers/cleanup"
	"cashwallet/internal/registration/workflow"
	sessionhandler "cashwallet/internal/session/handler"
	sessionmetrics "cashwallet/internal/session/metrics"
	sessionservice "cashwallet/internal/session/service"
	sessionstore "cashwallet/internal/session/store"
	httptransport "cashwallet/internal/transport/http"
	verificationhandler "cashwallet/internal/verification/handler"
	verificationmetrics "cashwallet/internal/verification/metrics"
	verificationservice "cashwallet/internal/verification/service"
	verificationstore "cashwallet/internal/verification/store"
	"cashwallet/pkg/platform/circuit"
	"cashwallet/pkg/platform/middleware/request"
	"cashwallet/pkg/platform/outbox"
	outboxmetrics "cashwallet/pkg/platform/outbox/metrics"
	outboxmemory "cashwallet/pkg/platform/outbox/store/memory"
	outboxpostgres "cashwallet/pkg/platform/outbox/store/postgres"
	"cashwallet/pkg/platform/outbox/worker"
)

type app struct {
	router          http.Handler
	health          *health.Handler
	outbox          *worker.Worker
	welcome         *consumer.Consumer
	cleanup         *cleanup.CleanupService
	platformMetrics *platformmetrics.Metrics
}

type mailSender interface {
	verificationservice.Mailer
	accountevents.WelcomeMailer
}

func newMailer(cfg config.Mailer, log *slog.Logger) mailSender {
	if cfg.APIURL == "" {
		return mailer.NewLog(log)
	}
	return mailer.NewHTTP(cfg)
}

func buildApp(cfg config.Config, in *infra, log *slog.Logger) (*app, error) {
	mail := newMailer(cfg.Mailer, log)
	accountMetrics := accountmetrics.New()

	// Verification
	var codes verificationservice.CodeStore = verificationstore.NewInMemory()
	if in.redis != nil {
		codes = verificationstore.NewRedis(in.redis.Client)
	}
	verification, err := verificationservice.New(codes, mail,
		verificationservice.WithLogger(log),
		verificationservice.WithMetrics(verificationmetrics.New()),
		verificationservice.WithCodeTTL(cfg.OTP.TTL),
		verificationservice.WithResendCooldown(cfg.OTP.ResendCooldown),
		verificationservice.WithMaxAttempts(cfg.OTP.MaxAttempts),
		verificationservice.WithVerifiedTTL(cfg.OTP.VerifiedTTL),
		verificationservice.WithExposeCodes(cfg.ExposeIssuedCodes()),
	)
	if err != nil {
		return nil, fmt.Errorf("verification service: %w", err)
	}

	// Accounts and their event outbox
	var events outbox.Store
	var accountStore accountservice.Store
	if in.pool != nil {
		pgEvents := outboxpostgres.New(in.pool.DB())
		events = pgEvents
		accountStore = accountstore.NewPostgres(in.pool.DB(), pgEvents)
	} else {
		memEvents := outboxmemory.New()
		events = memEvents
		accountStore = accountstore.NewInMemory(memEvents)
	}
	accounts, err := accountservice.New(accountStore, verification,
		accountservice.WithLogger(log),
		accountservice.WithMetrics(accountMetrics),
	)
	if err != nil {
		return nil, fmt.Errorf("account service: %w", err)
	}
	outboxWorker := worker.New(events, in.producer,
		worker.WithTopic(cfg.Kafka.AccountTopic),
		worker.WithLogger(log),
		worker.WithMetrics(outboxmetrics.New()),
	)

	// Sessions
	tokens := jwttoken.NewJWTService(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.TTL)
	tokens.SetEnv(cfg.Environment)
	var sessionStore sessionservice.Store = sessionstore.NewInMemory()
	if in.redis != nil {
		sessionStore = sessionstore.NewRedis(in.redis.Client)
	}
	sessions, err := sessionservice.New(sessionStore, tokens, accounts, accounts,
		sessionservice.WithLogger(log),
		sessionservice.WithMetrics(sessionmetrics.New()),
	)
	if err != nil {
		return nil, fmt.Errorf("session service: %w", err)
	}

	// Registration
	registrationMetrics := registrationmetrics.New()
	verifier, creator, err := registrationPorts(cfg.Remote, verification, accounts, registrationMetrics, log)
	if err != nil {
		return nil, err
	}
	profile, ok := registrationmodels.LookupProfile(cfg.Registration.Profile)
	if !ok {
		return nil, fmt.Errorf("unknown REGISTRATION_PROFILE %q", cfg.Registration.Profile)
	}
	registrations := registrationservice.New(verifier, creator,
		registrationservice.WithLogger(log),
		registrationservice.WithMetrics(registrationMetrics),
		registrationservice.WithTracer(tracer.NewOTel()),
		registrationservice.WithSessionStarter(adapters.NewSessions(sessions)),
		registrationservice.WithDefaultProfile(profile),
		registrationservice.WithMinPasswordScore(cfg.Registration.MinPasswordScore),
		registrationservice.WithCallTimeout(cfg.Registration.CallTimeout),
		registrationservice.WithIdleTTL(cfg.Registration.IdleTTL),
		registrationservice.WithMaxActive(cfg.Registration.MaxActive),
	)
	cleanupService, err := cleanup.New(registrations, verification, sessions,
		cleanup.WithCleanupInterval(cfg.Registration.CleanupInterval),
		cleanup.WithCleanupLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("registration cleanup: %w", err)
	}

	// Welcome mail consumer
	var welcome *consumer.Consumer
	if cfg.Kafka.Brokers != "" {
		welcome, err = consumer.New(consumer.Config{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroup,
			Topics:  []string{cfg.Kafka.AccountTopic},
		}, accountevents.NewWelcomeHandler(mail,
			accountevents.WithLogger(log),
			accountevents.WithMetrics(accountMetrics),
		), log)
		if err != nil {
			return nil, fmt.Errorf("welcome consumer: %w", err)
		}
	}

	// HTTP
	checks := health.New(cfg.Environment)
	if in.pool != nil {
		checks.RegisterCheck("postgres", in.pool.Health)
	}
	if in.redis != nil {
		checks.RegisterCheck("redis", in.redis.Health)
	}
	if cfg.Kafka.Brokers != "" {
		checks.RegisterCheck("kafka", kafka.Reachable(cfg.Kafka.Brokers))
	}

	accountHTTP := accounthandler.New(accounts, log)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        request.NewMetrics(),
		MetricsHandler: promhttp.Handler(),
		Sessions:       sessions,
		Operational:    []httptransport.Routes{checks},
		Public: []httptransport.Routes{
			registrationhandler.New(registrations, log),
			verificationhandler.New(verification, log),
			accountHTTP,
			sessionhandler.New(sessions, log),
		},
		Authenticated: []httptransport.Routes{
			httptransport.RegisterFunc(accountHTTP.RegisterAuthenticated),
		},
	})

	return &app{
		router:          router,
		health:          checks,
		outbox:          outboxWorker,
		welcome:         welcome,
		cleanup:         cleanupService,
		platformMetrics: platformmetrics.New(),
	}, nil
}

// registrationPorts selects in-process services unless remote URLs are configured.
func registrationPorts(
	cfg config.Remote,
	verification adapters.CodeService,
	accounts adapters.AccountService,
	m *registrationmetrics.Metrics,
	log *slog.Logger,
) (workflow.Verifier, workflow.AccountCreator, error) {
	var verifier workflow.Verifier = adapters.NewVerification(verification)
	var creator workflow.AccountCreator = adapters.NewAccounts(accounts)

	breaker := func(name string) *circuit.Breaker {
		return circuit.New(name,
			circuit.WithFailureThreshold(cfg.FailureThreshold),
			circuit.WithCoolOff(cfg.CoolOff),
			circuit.WithStateChange(func(service string, from, to circuit.State) {
				log.Warn("circuit breaker state changed", "service", service, "from", from.String(), "to", to.String())
				m.SetBreakerState(service, int(to))
			}),
		)
	}

	if cfg.VerificationURL != "" {
		client, err := remote.NewVerificationClient(remote.Config{
			BaseURL: cfg.VerificationURL,
			Timeout: cfg.Timeout,
			Breaker: breaker("verification"),
			Logger:  log,
		})
		if err != nil {
			return nil, nil, err
		}
		verifier = client
	}
	if cfg.AccountURL != "" {
		client, err := remote.NewAccountClient(remote.Config{
			BaseURL: cfg.AccountURL,
			Timeout: cfg.Timeout,
			Breaker: breaker("account"),
			Logger:  log,
		})
		if err != nil {
			return nil, nil, err
		}
		creator = client
	}
	return verifier, creator, nil
}
