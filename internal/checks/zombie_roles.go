package checks

import (
	"context"
	"fmt"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// ZombieRolesCheck flags roles that have not been used inside the stale
// window. Roles younger than the window are skipped before any detail fetch,
// as are service-linked roles (classified from the listed path).
type ZombieRolesCheck struct{}

func (c ZombieRolesCheck) ID() string   { return "IAM_ZOMBIE_ROLES" }
func (c ZombieRolesCheck) Name() string { return "Inactive Roles" }

func (c ZombieRolesCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	roles, err := env.Directory.Roles(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}

	now := env.Clock()
	window := env.StaleWindow()
	for _, role := range roles {
		if now.Sub(role.CreateDate) <= window {
			continue
		}
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

		var issue string
		switch {
		case detail.LastUsedDate == nil:
			issue = fmt.Sprintf("Role %q has never been used since its creation %d days ago.",
				role.Name, int(now.Sub(role.CreateDate).Hours()/24))
		case now.Sub(*detail.LastUsedDate) > window:
			issue = fmt.Sprintf("Role %q has not been used for %d days.",
				role.Name, int(now.Sub(*detail.LastUsedDate).Hours()/24))
		default:
			continue
		}
		run.AddFinding(newFinding(env, c.ID(), models.SeverityMedium, 0,
			models.PrincipalRole, role.Name, role.Name, issue,
			"Delete unused roles to shrink the account's attack surface."))
	}
	return nil
}
