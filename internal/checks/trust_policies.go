package checks

import (
	"context"
	"fmt"

	"github.com/devsec-tools/iamaudit/internal/models"
	"github.com/devsec-tools/iamaudit/internal/policydoc"
)

// externalIDConditionKey must constrain cross-account trust statements.
const externalIDConditionKey = "sts:ExternalId"

// TrustPoliciesCheck flags roles whose trust policy allows an AWS (account or
// wildcard) principal without requiring an external ID. Service principals
// and Deny statements never match. One finding per role.
type TrustPoliciesCheck struct{}

func (c TrustPoliciesCheck) ID() string   { return "IAM_ROLE_TRUST_POLICY" }
func (c TrustPoliciesCheck) Name() string { return "Unconstrained Cross-Account Trust" }

func (c TrustPoliciesCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	roles, err := env.Directory.Roles(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}

	for _, role := range roles {
		if env.Exempt.IsServiceLinkedPath(role.Path) {
			continue
		}
		if env.Exempt.IsEmergencyAccess(ctx, models.PrincipalRole, role.Name) {
			continue
		}

		detail, err := env.Directory.RoleDetail(ctx, role.Name)
		if err != nil {
			env.Log().Warn("role detail fetch failed", "role", role.Name, "error", err)
			continue
		}
		doc, err := policydoc.ParseEncoded(detail.TrustPolicy)
		if err != nil {
			env.Log().Warn("trust policy parse failed", "role", role.Name, "error", err)
			continue
		}

		if !hasOpenCrossAccountTrust(doc) {
			continue
		}
		run.AddFinding(newFinding(env, c.ID(), models.SeverityHigh, 0,
			models.PrincipalRole, role.Name, role.Name,
			fmt.Sprintf("Role %q trusts an AWS principal without requiring sts:ExternalId.", role.Name),
			"Add an sts:ExternalId condition to cross-account trust statements."))
	}
	return nil
}

// hasOpenCrossAccountTrust reports whether any Allow statement names an AWS
// principal and lacks an sts:ExternalId condition.
func hasOpenCrossAccountTrust(doc *policydoc.Document) bool {
	for _, stmt := range doc.Statements() {
		if !stmt.IsAllow() {
			continue
		}
		if len(stmt.AWSPrincipals()) == 0 {
			continue
		}
		if stmt.ConditionRequires(externalIDConditionKey) {
			continue
		}
		return true
	}
	return false
}
