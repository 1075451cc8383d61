package workflow

import (
	"context"
	"errors"

	"go.uber.org/mock/gomock"

	"cashwallet/internal/registration/models"
	dErrors "cashwallet/pkg/domain-errors"
)

func (s *ControllerSuite) withCodeSent() *Controller {
	c := s.newController()
	s.edit(c, map[models.Field]string{models.FieldEmail: "a@b.com"})
	s.verifier.EXPECT().RequestCode(gomock.Any(), "a@b.com").Return(models.CodeResult{OK: true, Code: "654321"}, nil)
	s.Require().NoError(c.RequestCode(s.ctx))
	return c
}

func (s *ControllerSuite) TestRequestCode() {
	s.Run("requires an email", func() {
		c := s.newController()
		err := c.RequestCode(s.ctx)
		s.requireCode(err, dErrors.CodeValidation)
		s.Equal("Please enter email", c.Snapshot().Error.Message)
	})

	s.Run("records the issued code when exposed", func() {
		c := s.withCodeSent()
		snap := c.Snapshot()
		s.Equal(models.VerificationSent, snap.Verification.State)
		s.True(snap.Verification.CodeRequested)
		s.Equal("654321", snap.Verification.LastIssuedCode)
		s.False(snap.Verification.EmailVerified)
	})

	s.Run("resend replaces the previous code", func() {
		c := s.withCodeSent()
		s.verifier.EXPECT().RequestCode(gomock.Any(), "a@b.com").Return(models.CodeResult{OK: true, Code: "111111"}, nil)
		s.Require().NoError(c.RequestCode(s.ctx))
		s.Equal("111111", c.Snapshot().Verification.LastIssuedCode)
	})

	s.Run("remote rejection surfaces its reason", func() {
		c := s.newController()
		s.edit(c, map[models.Field]string{models.FieldEmail: "a@b.com"})
		s.verifier.EXPECT().RequestCode(gomock.Any(), "a@b.com").
			Return(models.CodeResult{OK: false, Reason: "Please wait before requesting another code"}, nil)

		s.requireCode(c.RequestCode(s.ctx), dErrors.CodeVerificationFailed)
		snap := c.Snapshot()
		s.Equal(models.KindVerification, snap.Error.Kind)
		s.Equal("Please wait before requesting another code", snap.Error.Message)
		s.Equal(models.VerificationNotSent, snap.Verification.State)
	})

	s.Run("transport failure is a generic verification error", func() {
		c := s.newController()
		s.edit(c, map[models.Field]string{models.FieldEmail: "a@b.com"})
		s.verifier.EXPECT().RequestCode(gomock.Any(), "a@b.com").Return(models.CodeResult{}, errors.New("timeout"))

		s.requireCode(c.RequestCode(s.ctx), dErrors.CodeVerificationFailed)
		s.Equal("Failed to send OTP", c.Snapshot().Error.Message)
		s.False(c.Snapshot().Busy.RequestingCode)
	})

	s.Run("rejected once verified", func() {
		c := s.verifiedAtStep1()
		s.requireCode(c.RequestCode(s.ctx), dErrors.CodeValidation)
		s.Equal("Email already verified", c.Snapshot().Error.Message)
	})
}

func (s *ControllerSuite) TestRequestCodeWhileInFlightCallsOnce() {
	c := s.newController()
	s.edit(c, map[models.Field]string{models.FieldEmail: "a@b.com"})
	call := newBlockingCall()
	s.verifier.EXPECT().RequestCode(gomock.Any(), "a@b.com").
		DoAndReturn(func(context.Context, string) (models.CodeResult, error) {
			call.wait()
			return models.CodeResult{OK: true}, nil
		}).Times(1)

	done := make(chan error, 1)
	go func() { done <- c.RequestCode(s.ctx) }()
	<-call.started

	s.True(c.Snapshot().Busy.RequestingCode)
	s.requireCode(c.RequestCode(s.ctx), dErrors.CodeConflict)
	s.Nil(c.Snapshot().Error, "ignored request leaves no annotation")

	close(call.release)
	s.Require().NoError(<-done)
	s.False(c.Snapshot().Busy.RequestingCode)
}

func (s *ControllerSuite) TestEmailChangedWhileRequestInFlight() {
	c := s.newController()
	s.edit(c, map[models.Field]string{models.FieldEmail: "a@b.com"})
	call := newBlockingCall()
	s.verifier.EXPECT().RequestCode(gomock.Any(), "a@b.com").
		DoAndReturn(func(context.Context, string) (models.CodeResult, error) {
			call.wait()
			return models.CodeResult{OK: true, Code: "123456"}, nil
		})

	done := make(chan error, 1)
	go func() { done <- c.RequestCode(s.ctx) }()
	<-call.started
	s.Require().NoError(c.EditField("email", "c@d.com"))
	close(call.release)

	s.requireCode(<-done, dErrors.CodeVerificationFailed)
	snap := c.Snapshot()
	s.Equal(models.VerificationNotSent, snap.Verification.State)
	s.Empty(snap.Verification.LastIssuedCode)
}

func (s *ControllerSuite) TestWrongLengthCodeNeverReachesVerifier() {
	c := s.withCodeSent()
	s.verifier.EXPECT().VerifyCode(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	for _, code := range []string{"", "12345", "1234567", "12 34"} {
		err := c.SubmitCode(s.ctx, code)
		s.requireCode(err, dErrors.CodeValidation)
		s.Equal(models.FieldCode, c.Snapshot().Error.Field)
		s.Equal("Code must be 6 characters", c.Snapshot().Error.Message)
	}
	s.False(c.Snapshot().Verification.EmailVerified)
}

func (s *ControllerSuite) TestSubmitCode() {
	s.Run("before any code was requested", func() {
		c := s.newController()
		s.edit(c, map[models.Field]string{models.FieldEmail: "a@b.com"})
		s.requireCode(c.SubmitCode(s.ctx, "123456"), dErrors.CodeValidation)
		s.Equal("Please request a verification code first", c.Snapshot().Error.Message)
	})

	s.Run("wrong code keeps the sub-flow open", func() {
		c := s.withCodeSent()
		s.verifier.EXPECT().VerifyCode(gomock.Any(), "a@b.com", "000000").Return(models.VerifyResult{OK: false}, nil)

		s.requireCode(c.SubmitCode(s.ctx, "000000"), dErrors.CodeVerificationFailed)
		snap := c.Snapshot()
		s.Equal("Invalid OTP", snap.Error.Message)
		s.Equal(models.VerificationSent, snap.Verification.State)

		s.verifier.EXPECT().VerifyCode(gomock.Any(), "a@b.com", "654321").Return(models.VerifyResult{OK: true}, nil)
		s.Require().NoError(c.SubmitCode(s.ctx, "654321"))
		s.True(c.Snapshot().Verification.EmailVerified)
		s.Nil(c.Snapshot().Error)
	})

	s.Run("verifier reason is surfaced", func() {
		c := s.withCodeSent()
		s.verifier.EXPECT().VerifyCode(gomock.Any(), "a@b.com", "000000").
			Return(models.VerifyResult{OK: false, Reason: "Code expired"}, nil)
		s.requireCode(c.SubmitCode(s.ctx, "000000"), dErrors.CodeVerificationFailed)
		s.Equal("Code expired", c.Snapshot().Error.Message)
	})

	s.Run("transport failure", func() {
		c := s.withCodeSent()
		s.verifier.EXPECT().VerifyCode(gomock.Any(), "a@b.com", "654321").Return(models.VerifyResult{}, errors.New("503"))
		s.requireCode(c.SubmitCode(s.ctx, "654321"), dErrors.CodeVerificationFailed)
		s.Equal("Could not verify the code, please try again", c.Snapshot().Error.Message)
		s.False(c.Snapshot().Verification.EmailVerified)
	})

	s.Run("already verified is a no-op", func() {
		c := s.verifiedAtStep1()
		s.NoError(c.SubmitCode(s.ctx, "999999"))
	})
}

func (s *ControllerSuite) TestDiscardDropsLateVerification() {
	c := s.withCodeSent()
	call := newBlockingCall()
	s.verifier.EXPECT().VerifyCode(gomock.Any(), "a@b.com", "654321").
		DoAndReturn(func(ctx context.Context, _, _ string) (models.VerifyResult, error) {
			call.wait()
			return models.VerifyResult{OK: true}, nil
		})

	done := make(chan error, 1)
	go func() { done <- c.SubmitCode(s.ctx, "654321") }()
	<-call.started
	s.True(c.Discard())
	close(call.release)

	s.requireCode(<-done, dErrors.CodeInvalidState)
	snap := c.Snapshot()
	s.Equal(models.StateDiscarded, snap.State)
	s.False(snap.Verification.EmailVerified)
}

func (s *ControllerSuite) TestCallerCancellationDoesNotAbortRemoteCall() {
	c := s.withCodeSent()
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.verifier.EXPECT().VerifyCode(gomock.Any(), "a@b.com", "654321").
		DoAndReturn(func(ctx context.Context, _, _ string) (models.VerifyResult, error) {
			s.NoError(ctx.Err())
			return models.VerifyResult{OK: true}, nil
		})

	s.Require().NoError(c.SubmitCode(ctx, "654321"))
	s.True(c.Snapshot().Verification.EmailVerified)
}
