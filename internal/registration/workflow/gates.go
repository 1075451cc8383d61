package workflow

import (
	"cashwallet/internal/registration/models"
	"cashwallet/internal/registration/password"
)

// gateLocked evaluates the predicate for leaving step s and returns the first
// failure, or nil when the gate holds.
func (c *Controller) gateLocked(s models.Step) *models.ErrorInfo {
	d := &c.draft
	switch s {
	case models.Step1:
		if f, missing := c.reqs.FirstMissing(d, models.Step1); missing {
			return newFailure(models.KindValidation, f, requiredMessage(f))
		}
		if !d.EmailVerified() {
			return newFailure(models.KindValidation, models.FieldEmail, msgVerifyEmailFirst)
		}
	case models.Step2:
		if f, missing := c.reqs.FirstMissing(d, models.Step2); missing {
			return newFailure(models.KindValidation, f, requiredMessage(f))
		}
	case models.Step3:
		if f, missing := c.reqs.FirstMissing(d, models.Step3); missing {
			return newFailure(models.KindValidation, f, requiredMessage(f))
		}
		if d.Password != d.ConfirmPassword {
			return newFailure(models.KindValidation, models.FieldConfirmPassword, msgPasswordsMismatch)
		}
		if password.Evaluate(d.Password).Score < c.minScore {
			return newFailure(models.KindValidation, models.FieldPassword, msgPasswordTooWeak)
		}
		if !d.EmailVerified() {
			return newFailure(models.KindValidation, models.FieldEmail, msgVerifyEmailFirst)
		}
	}
	return nil
}

// submitGateLocked re-checks every gate. Edits are allowed at any step, so an
// earlier step's fields may have been cleared after the cursor moved on.
func (c *Controller) submitGateLocked() *models.ErrorInfo {
	for _, s := range []models.Step{models.Step1, models.Step2, models.Step3} {
		if info := c.gateLocked(s); info != nil {
			return info
		}
	}
	return nil
}
