package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// ZombieUsersCheck flags users with no recorded activity inside the stale
// window. Activity is the most recent of password use and either key's last
// use; a user with no parseable activity timestamp at all counts as never
// active and is flagged.
type ZombieUsersCheck struct{}

func (c ZombieUsersCheck) ID() string   { return "IAM_ZOMBIE_USERS" }
func (c ZombieUsersCheck) Name() string { return "Inactive Users" }

func (c ZombieUsersCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	now := env.Clock()
	window := env.StaleWindow()

	for _, row := range env.Report.Rows(ctx) {
		if row.IsRoot() {
			continue
		}

		var lastActivity time.Time
		seen := false
		for _, value := range []string{row.PasswordLastUsed, row.AccessKey1LastUsed, row.AccessKey2LastUsed} {
			t, ok := parseReportTime(value)
			if !ok {
				continue
			}
			seen = true
			if t.After(lastActivity) {
				lastActivity = t
			}
		}

		if seen && now.Sub(lastActivity) <= window {
			continue
		}
		if env.Exempt.IsEmergencyAccess(ctx, models.PrincipalUser, row.User) {
			continue
		}

		issue := fmt.Sprintf("User %q has never been used.", row.User)
		if seen {
			issue = fmt.Sprintf("User %q has been inactive for %d days.",
				row.User, int(now.Sub(lastActivity).Hours()/24))
		}
		run.AddFinding(newFinding(env, c.ID(), models.SeverityMedium, 0,
			models.PrincipalUser, row.User, row.User, issue,
			"Remove unused users or disable their credentials."))
	}
	return nil
}
