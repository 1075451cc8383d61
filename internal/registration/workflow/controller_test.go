package workflow

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/mock/gomock"

	"cashwallet/internal/registration/models"
	"cashwallet/internal/registration/password"
	dErrors "cashwallet/pkg/domain-errors"
)

func (s *ControllerSuite) TestNewWorkflowStartsEmptyAtStep1() {
	c := s.newController()
	snap := c.Snapshot()

	s.Equal(models.Step1, snap.Step)
	s.Equal(models.StateStep1, snap.State)
	s.Equal("advanced", snap.Profile)
	s.Equal("wf-test", snap.WorkflowID)
	s.Equal(models.VerificationNotSent, snap.Verification.State)
	s.False(snap.Verification.EmailVerified)
	s.False(snap.CanAdvance)
	s.Equal("ar", snap.Fields[models.FieldLanguage])
	s.Nil(snap.Error)
}

func (s *ControllerSuite) TestEditField() {
	s.Run("unknown field is a bad request and not recorded", func() {
		c := s.newController()
		s.requireCode(c.EditField("email_verified", "true"), dErrors.CodeBadRequest)
		s.Nil(c.Snapshot().Error)
	})

	s.Run("over-long value is a field-scoped validation error", func() {
		c := s.newController()
		err := c.EditField("first_name", strings.Repeat("x", 101))
		s.requireCode(err, dErrors.CodeValidation)

		var info *models.ErrorInfo
		s.Require().True(errors.As(err, &info))
		s.Equal(models.FieldFirstName, info.Field)
		s.Equal(models.KindValidation, info.Kind)
		s.Empty(c.Snapshot().Fields[models.FieldFirstName])
	})

	s.Run("editing the erroring field clears the annotation", func() {
		c := s.newController()
		s.requireCode(c.RequestCode(s.ctx), dErrors.CodeValidation)
		s.Require().NotNil(c.Snapshot().Error)
		s.Require().NoError(c.EditField("email", "a@b.com"))
		s.Nil(c.Snapshot().Error)
	})

	s.Run("passwords are never echoed", func() {
		c := s.newController()
		s.edit(c, map[models.Field]string{models.FieldPassword: "abc"})
		snap := c.Snapshot()
		_, present := snap.Fields[models.FieldPassword]
		s.False(present)
		s.True(snap.PasswordSet)
		s.Equal(20, snap.PasswordStrength.Score)
	})

	s.Run("mismatch is signalled as soon as both passwords are entered", func() {
		c := s.newController()
		s.edit(c, map[models.Field]string{models.FieldPassword: "Abcd123!"})
		s.False(c.Snapshot().PasswordsMismatch)
		s.edit(c, map[models.Field]string{models.FieldConfirmPassword: "Abcd123"})
		s.True(c.Snapshot().PasswordsMismatch)
	})

	s.Run("language is normalized", func() {
		c := s.newController()
		s.edit(c, map[models.Field]string{models.FieldLanguage: "en-US"})
		s.Equal("en", c.Snapshot().Fields[models.FieldLanguage])
	})
}

func (s *ControllerSuite) TestEmailImmutableOnceVerified() {
	c := s.verifiedAtStep1()

	s.NoError(c.EditField("email", "other@b.com"), "edit is a silent no-op")
	snap := c.Snapshot()
	s.Equal("a@b.com", snap.Fields[models.FieldEmail])
	s.True(snap.Verification.EmailVerified)
}

func (s *ControllerSuite) TestEmailChangeBeforeVerificationResetsSubFlow() {
	c := s.newController()
	s.edit(c, map[models.Field]string{models.FieldEmail: "a@b.com"})
	s.verifier.EXPECT().RequestCode(gomock.Any(), "a@b.com").Return(models.CodeResult{OK: true, Code: "123456"}, nil)
	s.Require().NoError(c.RequestCode(s.ctx))
	s.Equal(models.VerificationSent, c.Snapshot().Verification.State)

	s.edit(c, map[models.Field]string{models.FieldEmail: "c@d.com"})
	snap := c.Snapshot()
	s.Equal(models.VerificationNotSent, snap.Verification.State)
	s.Empty(snap.Verification.LastIssuedCode)

	// The old code can no longer be submitted for the new address.
	s.requireCode(c.SubmitCode(s.ctx, "123456"), dErrors.CodeValidation)
}

func (s *ControllerSuite) TestAdvanceGateStep1() {
	complete := map[models.Field]string{
		models.FieldFirstName: "Jane",
		models.FieldLastName:  "Doe",
		models.FieldEmail:     "a@b.com",
	}
	for omitted := range complete {
		s.Run("blocked without "+string(omitted), func() {
			c := s.verifiedAtStep1()
			if omitted != models.FieldEmail {
				s.Require().NoError(c.EditField(string(omitted), ""))
			} else {
				// A verified email cannot be cleared; use a fresh draft instead.
				c = s.newController()
				s.edit(c, map[models.Field]string{models.FieldFirstName: "Jane", models.FieldLastName: "Doe"})
			}
			err := c.Advance()
			s.requireCode(err, dErrors.CodeValidation)
			snap := c.Snapshot()
			s.Equal(models.Step1, snap.Step)
			s.Require().NotNil(snap.Error)
			s.Equal(omitted, snap.Error.Field)
		})
	}

	s.Run("blocked while email unverified", func() {
		c := s.newController()
		s.edit(c, complete)
		s.requireCode(c.Advance(), dErrors.CodeValidation)
		s.Equal(models.FieldEmail, c.Snapshot().Error.Field)
		s.Equal("Please verify email first", c.Snapshot().Error.Message)
	})
}

func (s *ControllerSuite) TestAdvanceGateStep2() {
	c := s.verifiedAtStep1()
	s.Require().NoError(c.Advance())

	s.edit(c, map[models.Field]string{models.FieldBirthDate: "1990-04-12"})
	s.requireCode(c.Advance(), dErrors.CodeValidation)
	s.Equal(models.FieldPhone, c.Snapshot().Error.Field)

	s.edit(c, map[models.Field]string{models.FieldPhone: "944123456"})
	s.Require().NoError(c.Advance())
	s.Equal(models.Step3, c.Snapshot().Step)

	s.requireCode(c.Advance(), dErrors.CodeInvalidState)
}

func (s *ControllerSuite) TestCompactProfileRequiresCountryCode() {
	c := s.verifiedAtStep1(WithRequirements(models.ProfileCompact))
	s.Equal("+963", c.Snapshot().Fields[models.FieldCountryCode])
	s.Require().NoError(c.Advance())

	s.edit(c, map[models.Field]string{
		models.FieldBirthDate:   "1990-04-12",
		models.FieldPhone:       "944123456",
		models.FieldCountryCode: "",
	})
	s.requireCode(c.Advance(), dErrors.CodeValidation)
	s.Equal(models.FieldCountryCode, c.Snapshot().Error.Field)

	s.edit(c, map[models.Field]string{models.FieldCountryCode: "+90"})
	s.NoError(c.Advance())
}

func (s *ControllerSuite) TestRetreatIsNonDestructive() {
	c := s.readyToSubmit()
	s.Require().NoError(c.Retreat())
	s.Require().NoError(c.Retreat())
	s.Require().NoError(c.Retreat(), "retreat at step 1 still succeeds")

	snap := c.Snapshot()
	s.Equal(models.Step1, snap.Step)
	s.Equal("Jane", snap.Fields[models.FieldFirstName])
	s.Equal("944123456", snap.Fields[models.FieldPhone])
	s.True(snap.PasswordSet)
	s.True(snap.Verification.EmailVerified)

	s.Require().NoError(c.Advance())
	s.Require().NoError(c.Advance())
	s.True(c.Snapshot().CanSubmit)
}

func (s *ControllerSuite) TestScenarioA_VerifyThenAdvance() {
	c := s.verifiedAtStep1()
	snap := c.Snapshot()
	s.True(snap.Verification.EmailVerified)
	s.Equal(models.VerificationVerified, snap.Verification.State)
	s.True(snap.CanAdvance)

	s.Require().NoError(c.Advance())
	s.Equal(models.Step2, c.Snapshot().Step)
}

func (s *ControllerSuite) TestScenarioB_WeakPasswordBlocksSubmit() {
	c := s.readyToSubmit()
	s.edit(c, map[models.Field]string{
		models.FieldPassword:        "abc",
		models.FieldConfirmPassword: "abc",
	})
	snap := c.Snapshot()
	s.Equal(20, snap.PasswordStrength.Score)
	s.Equal(password.CategoryWeak, snap.PasswordStrength.Category)
	s.False(snap.CanSubmit)

	_, err := c.Submit(s.ctx)
	s.requireCode(err, dErrors.CodeValidation)
	s.Equal("Password is too weak", c.Snapshot().Error.Message)
	s.Equal(models.FieldPassword, c.Snapshot().Error.Field)
}

func (s *ControllerSuite) TestScenarioC_StrongPasswordPassesGate() {
	c := s.readyToSubmit()
	snap := c.Snapshot()
	s.Equal(100, snap.PasswordStrength.Score)
	s.Equal("Very Strong", snap.PasswordStrength.Label)
	s.True(snap.CanSubmit)

	s.edit(c, map[models.Field]string{models.FieldConfirmPassword: "Abcd123?"})
	s.False(c.Snapshot().CanSubmit)
	_, err := c.Submit(s.ctx)
	s.requireCode(err, dErrors.CodeValidation)
	s.Equal("Passwords do not match", c.Snapshot().Error.Message)
}

func (s *ControllerSuite) TestFourOfFiveRulesMeetDefaultThreshold() {
	c := s.readyToSubmit()
	s.edit(c, map[models.Field]string{
		models.FieldPassword:        "Abcdefg1",
		models.FieldConfirmPassword: "Abcdefg1",
	})
	s.True(c.Snapshot().CanSubmit)

	strict := s.readyToSubmit(WithMinPasswordScore(100))
	s.edit(strict, map[models.Field]string{
		models.FieldPassword:        "Abcdefg1",
		models.FieldConfirmPassword: "Abcdefg1",
	})
	s.False(strict.Snapshot().CanSubmit)
}

func (s *ControllerSuite) TestScenarioD_RejectedSubmissionKeepsDraft() {
	c := s.readyToSubmit()
	s.accounts.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
		Return(models.AccountResult{OK: false, Reason: "email taken"}, nil)

	_, err := c.Submit(s.ctx)
	s.requireCode(err, dErrors.CodeSubmissionFailed)

	snap := c.Snapshot()
	s.Equal(models.Step3, snap.Step)
	s.Equal(models.StateFailed, snap.State)
	s.Require().NotNil(snap.Error)
	s.Equal("email taken", snap.Error.Message)
	s.Equal(models.KindSubmission, snap.Error.Kind)
	s.Equal("Jane", snap.Fields[models.FieldFirstName])
	s.Equal("Doe", snap.Fields[models.FieldLastName])
	s.Equal("a@b.com", snap.Fields[models.FieldEmail])
	s.Equal("1990-04-12", snap.Fields[models.FieldBirthDate])
	s.Equal("944123456", snap.Fields[models.FieldPhone])
	s.True(snap.PasswordSet)
	s.True(snap.CanSubmit, "resubmission is possible without re-entering earlier steps")
}

func (s *ControllerSuite) TestScenarioE_DoubleSubmitCallsAccountServiceOnce() {
	c := s.readyToSubmit()
	call := newBlockingCall()
	s.accounts.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Payload) (models.AccountResult, error) {
			call.wait()
			return models.AccountResult{OK: true, AccountID: "acc-1"}, nil
		}).Times(1)

	type result struct {
		id  string
		err error
	}
	first := make(chan result, 1)
	go func() {
		id, err := c.Submit(s.ctx)
		first <- result{id, err}
	}()
	<-call.started

	snap := c.Snapshot()
	s.True(snap.Busy.Submitting)
	s.Equal(models.StateSubmitting, snap.State)
	s.False(snap.CanSubmit)

	_, err := c.Submit(s.ctx)
	s.requireCode(err, dErrors.CodeConflict)

	close(call.release)
	got := <-first
	s.Require().NoError(got.err)
	s.Equal("acc-1", got.id)
}

func (s *ControllerSuite) TestSubmitPayload() {
	c := s.readyToSubmit()
	s.edit(c, map[models.Field]string{models.FieldLanguage: "en"})
	s.accounts.EXPECT().CreateAccount(gomock.Any(), models.Payload{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "a@b.com",
		Phone:     "944123456",
		BirthDate: "1990-04-12",
		Password:  "Abcd123!",
		Language:  "en",
	}).Return(models.AccountResult{OK: true, AccountID: "acc-7"}, nil)

	id, err := c.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal("acc-7", id)

	snap := c.Snapshot()
	s.Equal(models.StateSucceeded, snap.State)
	s.Equal("acc-7", snap.AccountID)
	s.False(snap.CanSubmit)
	s.True(c.Closed())
}

func (s *ControllerSuite) TestSubmitRequiresStep3AndRechecksEarlierGates() {
	c := s.verifiedAtStep1()
	_, err := c.Submit(s.ctx)
	s.requireCode(err, dErrors.CodeInvalidState)

	c = s.readyToSubmit()
	s.edit(c, map[models.Field]string{models.FieldLastName: ""})
	_, err = c.Submit(s.ctx)
	s.requireCode(err, dErrors.CodeValidation)
	s.Equal(models.FieldLastName, c.Snapshot().Error.Field)
}

func (s *ControllerSuite) TestSubmitTransportErrorIsGenericSubmissionError() {
	c := s.readyToSubmit()
	s.accounts.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
		Return(models.AccountResult{}, errors.New("dial tcp: connection refused"))

	_, err := c.Submit(s.ctx)
	s.requireCode(err, dErrors.CodeSubmissionFailed)
	snap := c.Snapshot()
	s.Equal("Registration failed, please try again", snap.Error.Message)
	s.NotContains(snap.Error.Message, "dial tcp")
	s.Equal(models.Step3, snap.Step)
}

func (s *ControllerSuite) TestRejectionWithoutReasonUsesDefault() {
	c := s.readyToSubmit()
	s.accounts.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).Return(models.AccountResult{OK: false}, nil)
	_, err := c.Submit(s.ctx)
	s.requireCode(err, dErrors.CodeSubmissionFailed)
	s.Equal("Registration failed", c.Snapshot().Error.Message)
}

func (s *ControllerSuite) TestClosedAfterSuccess() {
	c := s.readyToSubmit()
	s.accounts.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).Return(models.AccountResult{OK: true, AccountID: "acc-1"}, nil)
	_, err := c.Submit(s.ctx)
	s.Require().NoError(err)

	s.requireCode(c.EditField("first_name", "Janet"), dErrors.CodeInvalidState)
	s.requireCode(c.RequestCode(s.ctx), dErrors.CodeInvalidState)
	s.requireCode(c.SubmitCode(s.ctx, "123456"), dErrors.CodeInvalidState)
	s.requireCode(c.Advance(), dErrors.CodeInvalidState)
	s.requireCode(c.Retreat(), dErrors.CodeInvalidState)
	_, err = c.Submit(s.ctx)
	s.requireCode(err, dErrors.CodeInvalidState)
	s.False(c.Discard(), "already closed")
}

func (s *ControllerSuite) TestDiscardDropsLateSubmission() {
	c := s.readyToSubmit()
	call := newBlockingCall()
	s.accounts.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ models.Payload) (models.AccountResult, error) {
			call.wait()
			return models.AccountResult{OK: true, AccountID: "acc-late"}, nil
		})

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(s.ctx)
		done <- err
	}()
	<-call.started
	s.True(c.Discard())
	close(call.release)

	s.requireCode(<-done, dErrors.CodeInvalidState)
	snap := c.Snapshot()
	s.Equal(models.StateDiscarded, snap.State)
	s.Empty(snap.AccountID)
}
