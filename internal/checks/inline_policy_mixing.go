package checks

import (
	"context"
	"fmt"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// InlinePolicyMixingCheck flags principals that mix inline and attached
// managed policies. A principal with only one kind never flags: the issue is
// the split, which makes effective permissions hard to review. Service-linked
// roles are skipped.
type InlinePolicyMixingCheck struct{}

func (c InlinePolicyMixingCheck) ID() string   { return "IAM_INLINE_POLICY_MIXING" }
func (c InlinePolicyMixingCheck) Name() string { return "Mixed Inline and Managed Policies" }

func (c InlinePolicyMixingCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	users, err := env.Directory.Users(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, user := range users {
		inline, err := env.Directory.InlineUserPolicies(ctx, user.Name)
		if err != nil {
			env.Log().Warn("inline policy fetch failed", "user", user.Name, "error", err)
			continue
		}
		attached, err := env.Directory.AttachedUserPolicies(ctx, user.Name)
		if err != nil {
			env.Log().Warn("attached policy fetch failed", "user", user.Name, "error", err)
			continue
		}
		if len(inline) >= 1 && len(attached) >= 1 {
			run.AddFinding(c.finding(env, models.PrincipalUser, user.Name, len(inline), len(attached)))
		}
	}

	roles, err := env.Directory.Roles(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	for _, role := range roles {
		if env.Exempt.IsServiceLinkedPath(role.Path) {
			continue
		}
		inline, err := env.Directory.InlineRolePolicies(ctx, role.Name)
		if err != nil {
			env.Log().Warn("inline policy fetch failed", "role", role.Name, "error", err)
			continue
		}
		attached, err := env.Directory.AttachedRolePolicies(ctx, role.Name)
		if err != nil {
			env.Log().Warn("attached policy fetch failed", "role", role.Name, "error", err)
			continue
		}
		if len(inline) >= 1 && len(attached) >= 1 {
			run.AddFinding(c.finding(env, models.PrincipalRole, role.Name, len(inline), len(attached)))
		}
	}
	return nil
}

func (c InlinePolicyMixingCheck) finding(env *Env, principalType models.PrincipalType,
	name string, inline, attached int) models.Finding {
	return newFinding(env, c.ID(), models.SeverityLow, 0,
		principalType, name, name,
		fmt.Sprintf("%s %q mixes %d inline and %d attached managed policies.",
			principalType, name, inline, attached),
		"Consolidate permissions into managed policies; avoid inline policies.")
}
