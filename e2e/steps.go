package e2e

import (
	"github.com/cucumber/godog"

	"ledgerguard/e2e/steps/common"
	"ledgerguard/e2e/steps/ledger"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (identities, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register ledger-specific steps (roles, lists, transfers, proposals)
	ledger.RegisterSteps(ctx, tc)
}
