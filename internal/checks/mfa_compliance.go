package checks

import (
	"context"
	"fmt"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// MFAComplianceCheck flags console-enabled users without an MFA device.
// API-only users (password_enabled != "true") cannot sign in to the console
// and are skipped.
type MFAComplianceCheck struct{}

func (c MFAComplianceCheck) ID() string   { return "IAM_MFA_COMPLIANCE" }
func (c MFAComplianceCheck) Name() string { return "Console Users Without MFA" }

func (c MFAComplianceCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	for _, row := range env.Report.Rows(ctx) {
		if row.IsRoot() {
			continue
		}
		if row.PasswordEnabled != "true" || row.MFAActive != "false" {
			continue
		}
		if env.Exempt.IsEmergencyAccess(ctx, models.PrincipalUser, row.User) {
			continue
		}
		run.AddFinding(newFinding(env, c.ID(), models.SeverityHigh, 0,
			models.PrincipalUser, row.User, row.User,
			fmt.Sprintf("User %q has console access but no MFA device registered.", row.User),
			"Require an MFA device for every user with console access."))
	}
	return nil
}
