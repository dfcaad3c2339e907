package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// minPasswordLength is the shortest acceptable minimum password length.
const minPasswordLength = 14

// PasswordPolicyCheck flags a missing account password policy (CRITICAL) or
// a configured but weak one (one aggregated HIGH finding listing every
// weakness, not one finding per weakness).
type PasswordPolicyCheck struct{}

func (c PasswordPolicyCheck) ID() string   { return "IAM_PASSWORD_POLICY" }
func (c PasswordPolicyCheck) Name() string { return "Account Password Policy" }

func (c PasswordPolicyCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	policy, err := env.Directory.AccountPasswordPolicy(ctx)
	if err != nil {
		return fmt.Errorf("fetch account password policy: %w", err)
	}

	if !policy.Present {
		run.AddFinding(newFinding(env, c.ID(), models.SeverityCritical, 0,
			models.PrincipalAccount, env.AccountID, "missing",
			"The account has no password policy configured.",
			"Configure an account password policy with length and complexity requirements."))
		return nil
	}

	var weaknesses []string
	if policy.MinimumLength < minPasswordLength {
		weaknesses = append(weaknesses,
			fmt.Sprintf("minimum length %d is below %d", policy.MinimumLength, minPasswordLength))
	}
	if !policy.RequireSymbols {
		weaknesses = append(weaknesses, "symbols not required")
	}
	if !policy.RequireNumbers {
		weaknesses = append(weaknesses, "numbers not required")
	}
	if !policy.RequireUppercase {
		weaknesses = append(weaknesses, "uppercase characters not required")
	}
	if !policy.RequireLowercase {
		weaknesses = append(weaknesses, "lowercase characters not required")
	}
	if len(weaknesses) == 0 {
		return nil
	}

	run.AddFinding(newFinding(env, c.ID(), models.SeverityHigh, 0,
		models.PrincipalAccount, env.AccountID, "weak",
		"The account password policy is weak: "+strings.Join(weaknesses, "; ")+".",
		"Strengthen the password policy to require 14+ characters and all character classes."))
	return nil
}
