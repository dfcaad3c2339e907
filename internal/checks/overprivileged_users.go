package checks

import (
	"context"
	"fmt"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// adminPolicyName is the AWS-managed full-administrator policy.
const adminPolicyName = "AdministratorAccess"

// OverprivilegedUsersCheck flags users holding AdministratorAccess, whether
// attached directly or inherited through any group membership. One finding
// per user; the attachment route goes in the issue text.
type OverprivilegedUsersCheck struct{}

func (c OverprivilegedUsersCheck) ID() string   { return "IAM_OVERPRIVILEGED_USERS" }
func (c OverprivilegedUsersCheck) Name() string { return "Users With Administrator Access" }

func (c OverprivilegedUsersCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	users, err := env.Directory.Users(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		if env.Exempt.IsEmergencyAccess(ctx, models.PrincipalUser, user.Name) {
			continue
		}
		route, found := c.adminRoute(ctx, env, user.Name)
		if !found {
			continue
		}
		run.AddFinding(newFinding(env, c.ID(), models.SeverityCritical, 0,
			models.PrincipalUser, user.Name, user.Name,
			fmt.Sprintf("User %q has AdministratorAccess %s.", user.Name, route),
			"Replace broad administrator access with least-privilege policies or a dedicated admin role."))
	}
	return nil
}

// adminRoute reports how the user holds AdministratorAccess: directly, or via
// the first group found carrying it. Lookup failures for a single user are
// logged and treated as "no admin access found".
func (c OverprivilegedUsersCheck) adminRoute(ctx context.Context, env *Env, userName string) (string, bool) {
	attached, err := env.Directory.AttachedUserPolicies(ctx, userName)
	if err != nil {
		env.Log().Warn("attached policy lookup failed", "user", userName, "error", err)
		return "", false
	}
	if hasAdminPolicy(attached) {
		return "attached directly", true
	}

	groups, err := env.Directory.GroupsForUser(ctx, userName)
	if err != nil {
		env.Log().Warn("group lookup failed", "user", userName, "error", err)
		return "", false
	}
	for _, group := range groups {
		groupPolicies, err := env.Directory.AttachedGroupPolicies(ctx, group)
		if err != nil {
			env.Log().Warn("group policy lookup failed", "group", group, "error", err)
			continue
		}
		if hasAdminPolicy(groupPolicies) {
			return fmt.Sprintf("via group %q", group), true
		}
	}
	return "", false
}

func hasAdminPolicy(policies []models.AttachedPolicy) bool {
	for _, p := range policies {
		if p.Name == adminPolicyName {
			return true
		}
	}
	return false
}
