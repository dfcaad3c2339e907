package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/devsec-tools/iamaudit/internal/models"
	"github.com/devsec-tools/iamaudit/internal/policydoc"
)

// PrivilegeEscalationCheck matches every Allow statement in user inline
// policies, role inline policies, and customer-managed policy documents
// against the escalation pattern catalog. Each matched (statement, pattern)
// pair yields one EscalationPath, one CRITICAL finding, and one remediation
// recommendation.
type PrivilegeEscalationCheck struct{}

func (c PrivilegeEscalationCheck) ID() string   { return "IAM_PRIVILEGE_ESCALATION" }
func (c PrivilegeEscalationCheck) Name() string { return "Privilege Escalation Paths" }

func (c PrivilegeEscalationCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	users, err := env.Directory.Users(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, user := range users {
		policies, err := env.Directory.InlineUserPolicies(ctx, user.Name)
		if err != nil {
			env.Log().Warn("inline policy fetch failed", "user", user.Name, "error", err)
			continue
		}
		for _, policy := range policies {
			c.matchDocument(env, run, models.PrincipalUser, user.Name, policy.Name, policy.Document)
		}
	}

	roles, err := env.Directory.Roles(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	for _, role := range roles {
		policies, err := env.Directory.InlineRolePolicies(ctx, role.Name)
		if err != nil {
			env.Log().Warn("inline policy fetch failed", "role", role.Name, "error", err)
			continue
		}
		for _, policy := range policies {
			c.matchDocument(env, run, models.PrincipalRole, role.Name, policy.Name, policy.Document)
		}
	}

	managed, err := env.Directory.CustomerManagedPolicies(ctx)
	if err != nil {
		return fmt.Errorf("list customer managed policies: %w", err)
	}
	for _, policy := range managed {
		raw, err := env.Directory.PolicyDocument(ctx, policy.ARN, policy.DefaultVersionID)
		if err != nil {
			env.Log().Warn("policy document fetch failed", "policy", policy.Name, "error", err)
			continue
		}
		c.matchDocument(env, run, models.PrincipalPolicy, policy.Name, policy.Name, raw)
	}
	return nil
}

// matchDocument parses one URL-encoded policy document and records every
// escalation path its Allow statements match. Unparseable documents are
// logged and skipped.
func (c PrivilegeEscalationCheck) matchDocument(env *Env, run *AuditRun,
	principalType models.PrincipalType, principalName, policyName, encoded string) {
	doc, err := policydoc.ParseEncoded(encoded)
	if err != nil {
		env.Log().Warn("policy document parse failed",
			"principal", principalName, "policy", policyName, "error", err)
		return
	}
	for _, stmt := range doc.Statements() {
		if !stmt.IsAllow() {
			continue
		}
		for _, path := range env.Matcher.Match(stmt) {
			run.AddEscalationPath(models.EscalationPath{
				Pattern:       path.Pattern,
				PrincipalType: string(principalType),
				PrincipalName: principalName,
				PolicyName:    policyName,
				Actions:       path.Actions,
				RiskScore:     path.RiskScore,
				Description:   path.Description,
			})

			finding := newFinding(env, c.ID(), models.SeverityCritical, 0,
				principalType, principalName,
				fmt.Sprintf("%s-%s-%s", principalName, policyName, path.Pattern),
				fmt.Sprintf("%s %q can escalate privileges via %s (policy %q grants %s on all resources).",
					principalType, principalName, path.Pattern, policyName, strings.Join(path.Actions, ", ")),
				fmt.Sprintf("Remove or resource-scope the %s grant in policy %q.",
					strings.Join(path.Actions, ", "), policyName))
			finding.RiskScore = path.RiskScore
			run.AddFinding(finding)

			run.AddRecommendation(models.Recommendation{
				PrincipalType: principalType,
				PrincipalName: principalName,
				Action: fmt.Sprintf("Break the %s escalation path by scoping policy %q to specific resources.",
					path.Pattern, policyName),
			})
		}
	}
}
