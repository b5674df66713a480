package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

const defaultOwner = "0x00000000000000000000000000000000000000a0"

func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("LEDGERGUARD_E2E_URL")
	if baseURL == "" {
		t.Skip("LEDGERGUARD_E2E_URL not set")
	}
	owner := os.Getenv("LEDGERGUARD_E2E_OWNER")
	if owner == "" {
		owner = defaultOwner
	}
	tc := NewTestContext(baseURL, owner)

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("e2e scenarios failed")
	}
}
