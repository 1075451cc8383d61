package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cashwallet/internal/registration/metrics"
	"cashwallet/internal/registration/models"
	"cashwallet/internal/registration/service/mocks"
	workflowMocks "cashwallet/internal/registration/workflow/mocks"
	"cashwallet/pkg/domain"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	verifier *workflowMocks.MockVerifier
	accounts *workflowMocks.MockAccountCreator
	sessions *mocks.MockSessionStarter
	metrics  *metrics.Metrics
	now      time.Time
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verifier = workflowMocks.NewMockVerifier(s.ctrl)
	s.accounts = workflowMocks.NewMockAccountCreator(s.ctrl)
	s.sessions = mocks.NewMockSessionStarter(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = context.Background()
	s.service = New(s.verifier, s.accounts,
		WithSessionStarter(s.sessions),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithIdleTTL(30*time.Minute),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ServiceSuite) create(profile string) domain.WorkflowID {
	snap, err := s.service.Create(s.ctx, CreateRequest{Profile: profile})
	s.Require().NoError(err)
	id, err := domain.ParseWorkflowID(snap.WorkflowID)
	s.Require().NoError(err)
	return id
}

func (s *ServiceSuite) edit(id domain.WorkflowID, fields ...string) {
	for i := 0; i+1 < len(fields); i += 2 {
		_, err := s.service.EditField(s.ctx, id, fields[i], fields[i+1])
		s.Require().NoError(err)
	}
}

// readyToSubmit drives a workflow through all three steps.
func (s *ServiceSuite) readyToSubmit() domain.WorkflowID {
	id := s.create("")
	s.edit(id, "first_name", "Jane", "last_name", "Doe", "email", "a@b.com")
	s.verifier.EXPECT().RequestCode(gomock.Any(), "a@b.com").Return(models.CodeResult{OK: true}, nil)
	s.verifier.EXPECT().VerifyCode(gomock.Any(), "a@b.com", "123456").Return(models.VerifyResult{OK: true}, nil)
	_, err := s.service.RequestCode(s.ctx, id)
	s.Require().NoError(err)
	_, err = s.service.SubmitCode(s.ctx, id, "123456")
	s.Require().NoError(err)
	_, err = s.service.Advance(s.ctx, id)
	s.Require().NoError(err)
	s.edit(id, "birth_date", "1990-04-12", "phone", "944123456")
	_, err = s.service.Advance(s.ctx, id)
	s.Require().NoError(err)
	s.edit(id, "password", "Abcd123!", "confirm_password", "Abcd123!")
	return id
}

func (s *ServiceSuite) TestCreate() {
	s.Run("default profile", func() {
		snap, err := s.service.Create(s.ctx, CreateRequest{Language: "en"})
		s.Require().NoError(err)
		s.Equal("advanced", snap.Profile)
		s.Equal("en", snap.Fields[models.FieldLanguage])
		s.NotEmpty(snap.WorkflowID)
	})

	s.Run("named profile", func() {
		snap, err := s.service.Create(s.ctx, CreateRequest{Profile: "Compact"})
		s.Require().NoError(err)
		s.Equal("compact", snap.Profile)
		s.Equal("+963", snap.Fields[models.FieldCountryCode])
	})

	s.Run("unknown profile", func() {
		_, err := s.service.Create(s.ctx, CreateRequest{Profile: "express"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Equal(2, s.service.Active())
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.ActiveWorkflows))
}

func (s *ServiceSuite) TestCreateRespectsCapacity() {
	svc := New(s.verifier, s.accounts, WithMaxActive(1))
	_, err := svc.Create(s.ctx, CreateRequest{})
	s.Require().NoError(err)
	_, err = svc.Create(s.ctx, CreateRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestUnknownWorkflow() {
	id := domain.NewWorkflowID()
	_, err := s.service.Snapshot(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.EditField(s.ctx, id, "first_name", "x")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.service.Discard(s.ctx, id), dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestFailedOperationStillReturnsSnapshot() {
	id := s.create("")
	snap, err := s.service.Advance(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Require().NotNil(snap.Error)
	s.Equal(models.FieldFirstName, snap.Error.Field)
	s.Equal(models.Step1, snap.Step)
}

func (s *ServiceSuite) TestSubmitStartsSessionAndUnmounts() {
	id := s.readyToSubmit()
	ctx := requestcontext.WithClientMetadata(s.ctx, "10.0.0.1", "Mozilla/5.0")
	expires := s.now.Add(720 * time.Hour)
	s.accounts.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).Return(models.AccountResult{OK: true, AccountID: "acc-1"}, nil)
	s.sessions.EXPECT().StartSession(gomock.Any(), "acc-1", "Mozilla/5.0").
		Return(models.SessionGrant{AccessToken: "tok", ExpiresAt: expires}, nil)

	done, snap, err := s.service.Submit(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.Completion{AccountID: "acc-1", Redirect: RedirectDashboard, AccessToken: "tok", ExpiresAt: expires}, done)
	s.Equal(models.StateSucceeded, snap.State)

	_, err = s.service.Snapshot(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "workflow is unmounted after success")
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.WorkflowsFinished.WithLabelValues("succeeded")))
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.ActiveWorkflows))
}

func (s *ServiceSuite) TestSubmitFallsBackToLoginWhenSessionFails() {
	id := s.readyToSubmit()
	s.accounts.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).Return(models.AccountResult{OK: true, AccountID: "acc-1"}, nil)
	s.sessions.EXPECT().StartSession(gomock.Any(), "acc-1", "").Return(models.SessionGrant{}, errors.New("redis down"))

	done, _, err := s.service.Submit(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("acc-1", done.AccountID)
	s.Equal(RedirectLogin, done.Redirect)
	s.Empty(done.AccessToken)
}

func (s *ServiceSuite) TestRejectedSubmitKeepsWorkflowMounted() {
	id := s.readyToSubmit()
	s.accounts.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
		Return(models.AccountResult{OK: false, Reason: "Email already registered"}, nil)

	_, snap, err := s.service.Submit(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeSubmissionFailed))
	s.Equal(models.StateFailed, snap.State)
	s.Equal("Email already registered", snap.Error.Message)

	again, err := s.service.Snapshot(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.Step3, again.Step)
}

func (s *ServiceSuite) TestDiscard() {
	id := s.create("")
	s.Require().NoError(s.service.Discard(s.ctx, id))
	_, err := s.service.Snapshot(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.WorkflowsFinished.WithLabelValues("discarded")))
}

func (s *ServiceSuite) TestExpireIdle() {
	stale := s.create("")
	s.now = s.now.Add(20 * time.Minute)
	fresh := s.create("")
	s.now = s.now.Add(15 * time.Minute)

	n, err := s.service.ExpireIdle(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, n)

	_, err = s.service.Snapshot(s.ctx, stale)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.Snapshot(s.ctx, fresh)
	s.NoError(err)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.WorkflowsFinished.WithLabelValues("expired")))
}

func (s *ServiceSuite) TestEditsKeepWorkflowAlive() {
	id := s.create("")
	s.now = s.now.Add(25 * time.Minute)
	s.edit(id, "first_name", "Jane")
	s.now = s.now.Add(25 * time.Minute)

	n, err := s.service.ExpireIdle(s.ctx, s.now)
	s.Require().NoError(err)
	s.Zero(n)
}
