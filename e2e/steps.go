package e2e

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the wallet API is running$`, tc.apiIsRunning)

	// Registration workflow
	ctx.Step(`^I start a registration with profile "([^"]*)"$`, tc.startRegistration)
	ctx.Step(`^I set "([^"]*)" to "([^"]*)"$`, tc.setField)
	ctx.Step(`^I set "email" to a fresh address$`, tc.setFreshEmail)
	ctx.Step(`^I request a verification code$`, tc.requestCode)
	ctx.Step(`^I submit the issued verification code$`, tc.submitIssuedCode)
	ctx.Step(`^I submit the verification code "([^"]*)"$`, tc.submitCode)
	ctx.Step(`^I advance$`, tc.advance)
	ctx.Step(`^I go back$`, tc.retreat)
	ctx.Step(`^I submit the registration$`, tc.submit)
	ctx.Step(`^I fetch the registration$`, tc.fetchRegistration)
	ctx.Step(`^I discard the registration$`, tc.discard)

	// Session
	ctx.Step(`^I keep the access token$`, tc.keepAccessToken)
	ctx.Step(`^I fetch my profile$`, tc.fetchProfile)
	ctx.Step(`^I log out$`, tc.logout)
	ctx.Step(`^I log in with the registered address and password "([^"]*)"$`, tc.login)

	// Assertions
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the response field "email" should equal the registered address$`, tc.responseEmailShouldMatch)
	ctx.Step(`^the registration should be on step (\d+)$`, tc.registrationShouldBeOnStep)
}

func (tc *TestContext) apiIsRunning(context.Context) error {
	if err := tc.Do("GET", "/health/live", nil); err != nil {
		return err
	}
	return tc.expectStatus(200)
}

func (tc *TestContext) registrationPath(suffix string) string {
	return "/api/registrations/" + tc.WorkflowID + suffix
}

func (tc *TestContext) startRegistration(_ context.Context, profile string) error {
	if err := tc.Do("POST", "/api/registrations", map[string]any{"profile": profile, "language": "en"}); err != nil {
		return err
	}
	if err := tc.expectStatus(201); err != nil {
		return err
	}
	id, err := tc.StringField("workflow_id")
	if err != nil {
		return err
	}
	tc.WorkflowID = id
	return nil
}

func (tc *TestContext) setField(_ context.Context, field, value string) error {
	if err := tc.Do("PATCH", tc.registrationPath("/fields"), map[string]any{"field": field, "value": value}); err != nil {
		return err
	}
	return tc.expectStatus(200)
}

func (tc *TestContext) setFreshEmail(ctx context.Context) error {
	tc.Email = fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())
	return tc.setField(ctx, "email", tc.Email)
}

func (tc *TestContext) requestCode(context.Context) error {
	if err := tc.Do("POST", tc.registrationPath("/code"), nil); err != nil {
		return err
	}
	return tc.expectStatus(200)
}

func (tc *TestContext) submitIssuedCode(ctx context.Context) error {
	code, err := tc.StringField("verification.last_issued_code")
	if err != nil {
		return fmt.Errorf("no issued code exposed (is CASHWALLET_ENV=development?): %w", err)
	}
	return tc.submitCode(ctx, code)
}

func (tc *TestContext) submitCode(_ context.Context, code string) error {
	return tc.Do("POST", tc.registrationPath("/code/verify"), map[string]any{"code": code})
}

func (tc *TestContext) advance(context.Context) error {
	return tc.Do("POST", tc.registrationPath("/advance"), nil)
}

func (tc *TestContext) retreat(context.Context) error {
	return tc.Do("POST", tc.registrationPath("/retreat"), nil)
}

func (tc *TestContext) submit(context.Context) error {
	return tc.Do("POST", tc.registrationPath("/submit"), nil)
}

func (tc *TestContext) fetchRegistration(context.Context) error {
	return tc.Do("GET", tc.registrationPath(""), nil)
}

func (tc *TestContext) discard(context.Context) error {
	return tc.Do("DELETE", tc.registrationPath(""), nil)
}

func (tc *TestContext) keepAccessToken(context.Context) error {
	token, err := tc.StringField("access_token")
	if err != nil {
		return err
	}
	tc.AccessToken = token
	return nil
}

func (tc *TestContext) fetchProfile(context.Context) error {
	return tc.Do("GET", "/api/user/profile", nil)
}

func (tc *TestContext) logout(context.Context) error {
	return tc.Do("POST", "/api/auth/logout", nil)
}

func (tc *TestContext) login(ctx context.Context, password string) error {
	tc.AccessToken = ""
	if err := tc.Do("POST", "/api/auth/login", map[string]any{"email": tc.Email, "password": password}); err != nil {
		return err
	}
	if err := tc.expectStatus(200); err != nil {
		return err
	}
	return tc.keepAccessToken(ctx)
}

func (tc *TestContext) expectStatus(expected int) error {
	if tc.Status() != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, tc.Status(), string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseStatusShouldBe(_ context.Context, expected int) error {
	return tc.expectStatus(expected)
}

func (tc *TestContext) responseShouldContain(_ context.Context, text string) error {
	if !strings.Contains(string(tc.LastResponseBody), text) {
		return fmt.Errorf("response does not contain %q: %s", text, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(_ context.Context, field, expected string) error {
	actual, err := tc.StringField(field)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("field %s: expected %q, got %q", field, expected, actual)
	}
	return nil
}

func (tc *TestContext) responseEmailShouldMatch(ctx context.Context) error {
	return tc.responseFieldShouldEqual(ctx, "email", tc.Email)
}

func (tc *TestContext) registrationShouldBeOnStep(ctx context.Context, step int) error {
	return tc.responseFieldShouldEqual(ctx, "step", strconv.Itoa(step))
}
