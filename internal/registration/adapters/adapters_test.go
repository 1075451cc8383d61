package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountmodels "cashwallet/internal/account/models"
	"cashwallet/internal/registration/models"
	sessionmodels "cashwallet/internal/session/models"
	verificationmodels "cashwallet/internal/verification/models"
	"cashwallet/pkg/domain"
	dErrors "cashwallet/pkg/domain-errors"
)

type fakeCodes struct {
	send   verificationmodels.SendResult
	verify verificationmodels.VerifyResult
	err    error
}

func (f *fakeCodes) Send(context.Context, string) (verificationmodels.SendResult, error) {
	return f.send, f.err
}

func (f *fakeCodes) Verify(context.Context, string, string) (verificationmodels.VerifyResult, error) {
	return f.verify, f.err
}

type fakeAccounts struct {
	got accountmodels.CreateRequest
	res accountmodels.CreateResult
	err error
}

func (f *fakeAccounts) Create(_ context.Context, req accountmodels.CreateRequest) (accountmodels.CreateResult, error) {
	f.got = req
	return f.res, f.err
}

type fakeSessions struct {
	gotID     domain.AccountID
	gotDevice string
	grant     sessionmodels.Grant
	err       error
}

func (f *fakeSessions) Start(_ context.Context, accountID domain.AccountID, device string) (sessionmodels.Grant, error) {
	f.gotID = accountID
	f.gotDevice = device
	return f.grant, f.err
}

func TestVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("passes through an issued code", func(t *testing.T) {
		v := NewVerification(&fakeCodes{send: verificationmodels.SendResult{OK: true, Code: "123456"}})
		res, err := v.RequestCode(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, models.CodeResult{OK: true, Code: "123456"}, res)
	})

	t.Run("rejection becomes a result", func(t *testing.T) {
		v := NewVerification(&fakeCodes{err: dErrors.New(dErrors.CodeVerificationFailed, "Please wait before requesting a new code")})
		res, err := v.RequestCode(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, "Please wait before requesting a new code", res.Reason)
	})

	t.Run("validation failure becomes a result", func(t *testing.T) {
		v := NewVerification(&fakeCodes{err: dErrors.New(dErrors.CodeValidation, "Invalid email")})
		res, err := v.VerifyCode(ctx, "bad", "1")
		require.NoError(t, err)
		assert.Equal(t, models.VerifyResult{OK: false, Reason: "Invalid email"}, res)
	})

	t.Run("other failures are returned", func(t *testing.T) {
		v := NewVerification(&fakeCodes{err: errors.New("redis down")})
		_, err := v.VerifyCode(ctx, "jane@example.com", "123456")
		require.Error(t, err)
		_, err = v.RequestCode(ctx, "jane@example.com")
		require.Error(t, err)
	})

	t.Run("accepted code", func(t *testing.T) {
		v := NewVerification(&fakeCodes{verify: verificationmodels.VerifyResult{OK: true}})
		res, err := v.VerifyCode(ctx, "jane@example.com", "123456")
		require.NoError(t, err)
		assert.True(t, res.OK)
	})
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	payload := models.Payload{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane@example.com",
		Phone:       "+905551112233",
		CountryCode: "TR",
		BirthDate:   "1990-04-01",
		Password:    "Secret1!",
		Language:    "en",
	}

	t.Run("maps the payload and the created account", func(t *testing.T) {
		fake := &fakeAccounts{res: accountmodels.CreateResult{OK: true, AccountID: "acc-1"}}
		res, err := NewAccounts(fake).CreateAccount(ctx, payload)
		require.NoError(t, err)
		assert.Equal(t, models.AccountResult{OK: true, AccountID: "acc-1"}, res)
		assert.Equal(t, "Jane", fake.got.FirstName)
		assert.Equal(t, "TR", fake.got.CountryCode)
		assert.Equal(t, "1990-04-01", fake.got.BirthDate)
		assert.Equal(t, "Secret1!", fake.got.Password)
	})

	t.Run("submission failure is a rejection", func(t *testing.T) {
		fake := &fakeAccounts{err: dErrors.New(dErrors.CodeSubmissionFailed, "Email already registered")}
		res, err := NewAccounts(fake).CreateAccount(ctx, payload)
		require.NoError(t, err)
		assert.Equal(t, models.AccountResult{OK: false, Reason: "Email already registered"}, res)
	})

	t.Run("internal failure is returned", func(t *testing.T) {
		fake := &fakeAccounts{err: dErrors.New(dErrors.CodeInternal, "failed to create account")}
		_, err := NewAccounts(fake).CreateAccount(ctx, payload)
		require.Error(t, err)
	})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	accountID := domain.NewAccountID()
	expires := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("starts a session for the new account", func(t *testing.T) {
		fake := &fakeSessions{grant: sessionmodels.Grant{AccessToken: "tok", ExpiresAt: expires}}
		grant, err := NewSessions(fake).StartSession(ctx, accountID.String(), "Chrome on macOS")
		require.NoError(t, err)
		assert.Equal(t, models.SessionGrant{AccessToken: "tok", ExpiresAt: expires}, grant)
		assert.Equal(t, accountID, fake.gotID)
		assert.Equal(t, "Chrome on macOS", fake.gotDevice)
	})

	t.Run("rejects a malformed account id", func(t *testing.T) {
		fake := &fakeSessions{}
		_, err := NewSessions(fake).StartSession(ctx, "not-a-uuid", "")
		require.Error(t, err)
		assert.True(t, fake.gotID.IsNil())
	})

	t.Run("propagates start failures", func(t *testing.T) {
		fake := &fakeSessions{err: errors.New("store down")}
		_, err := NewSessions(fake).StartSession(ctx, accountID.String(), "")
		require.Error(t, err)
	})
}
