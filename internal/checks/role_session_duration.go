package checks

import (
	"context"
	"fmt"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// maxSessionDurationSeconds is the longest acceptable role session duration.
const maxSessionDurationSeconds = 43200

// RoleSessionDurationCheck flags roles whose maximum session duration exceeds
// 12 hours. Ignore-listed roles are skipped before any detail fetch, as are
// service-linked roles (classified from the listed path).
type RoleSessionDurationCheck struct{}

func (c RoleSessionDurationCheck) ID() string   { return "IAM_ROLE_SESSION_DURATION" }
func (c RoleSessionDurationCheck) Name() string { return "Excessive Role Session Duration" }

func (c RoleSessionDurationCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	roles, err := env.Directory.Roles(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}

	for _, role := range roles {
		if env.Config.IsSessionDurationIgnored(role.Name) {
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
		if detail.MaxSessionDuration <= maxSessionDurationSeconds {
			continue
		}
		run.AddFinding(newFinding(env, c.ID(), models.SeverityMedium, 0,
			models.PrincipalRole, role.Name, role.Name,
			fmt.Sprintf("Role %q allows sessions of %d seconds, above the %d-second limit.",
				role.Name, detail.MaxSessionDuration, maxSessionDurationSeconds),
			"Reduce the role's maximum session duration to 12 hours or less."))
	}
	return nil
}
