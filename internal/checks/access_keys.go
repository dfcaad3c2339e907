package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// AccessKeysCheck flags stale access keys and users running with both key
// slots active at once. The two conditions are independent: a user can
// collect one finding per stale key plus one for having both keys active.
type AccessKeysCheck struct{}

func (c AccessKeysCheck) ID() string   { return "IAM_ACCESS_KEYS" }
func (c AccessKeysCheck) Name() string { return "Access Key Hygiene" }

func (c AccessKeysCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	now := env.Clock()
	window := env.StaleWindow()

	for _, row := range env.Report.Rows(ctx) {
		if row.IsRoot() {
			continue
		}
		key1Active := row.AccessKey1Active == "true"
		key2Active := row.AccessKey2Active == "true"
		if !key1Active && !key2Active {
			continue
		}
		if env.Exempt.IsEmergencyAccess(ctx, models.PrincipalUser, row.User) {
			continue
		}

		c.checkKeyAge(env, run, row.User, 1, key1Active, row.AccessKey1Created, now, window)
		c.checkKeyAge(env, run, row.User, 2, key2Active, row.AccessKey2Created, now, window)

		if key1Active && key2Active {
			run.AddFinding(newFinding(env, c.ID(), models.SeverityLow, 0,
				models.PrincipalUser, row.User, row.User+"-both-keys",
				fmt.Sprintf("User %q has both access keys active at the same time.", row.User),
				"Keep a single active access key per user; deactivate the unused one."))
		}
	}
	return nil
}

// checkKeyAge emits one MEDIUM finding when an active key is older than the
// stale window. Keys with no parseable rotation timestamp are not flagged.
func (c AccessKeysCheck) checkKeyAge(env *Env, run *AuditRun, user string, slot int,
	active bool, created string, now time.Time, window time.Duration) {
	if !active {
		return
	}
	createdAt, ok := parseReportTime(created)
	if !ok {
		return
	}
	age := now.Sub(createdAt)
	if age <= window {
		return
	}
	run.AddFinding(newFinding(env, c.ID(), models.SeverityMedium, 0,
		models.PrincipalUser, user, fmt.Sprintf("%s-key%d", user, slot),
		fmt.Sprintf("User %q has an active access key (slot %d) that has not been rotated in %d days.",
			user, slot, int(age.Hours()/24)),
		"Rotate long-lived access keys and deactivate the old key after cutover."))
}
