// Package iam provides the IAM audit check pack.
// It groups all identity checks into a single New() function that the engine
// wires into a checks.Registry before running the audit.
//
// Convention: every check pack lives in internal/checkpacks/<domain>/pack.go
// and exposes a single New() func returning []checks.Check. The slice order
// is the execution order.
package iam

import "github.com/devsec-tools/iamaudit/internal/checks"

// New returns the default IAM audit check pack.
func New() []checks.Check {
	return []checks.Check{
		checks.MFAComplianceCheck{},        // HIGH:     console user without MFA
		checks.AccessKeysCheck{},           // MEDIUM:   stale or doubled-up access keys
		checks.ZombieUsersCheck{},          // MEDIUM:   user inactive beyond the stale window
		checks.PasswordPolicyCheck{},       // CRITICAL: missing or weak password policy
		checks.OverprivilegedUsersCheck{},  // CRITICAL: user holds AdministratorAccess
		checks.DangerousPoliciesCheck{},    // HIGH:     unconditioned sensitive actions
		checks.RoleSessionDurationCheck{},  // MEDIUM:   session duration above 12 hours
		checks.PrivilegeEscalationCheck{},  // CRITICAL: escalation pattern reachable
		checks.TrustPoliciesCheck{},        // HIGH:     open cross-account trust
		checks.S3CrossAccountCheck{},       // CRITICAL: public bucket policy
		checks.ZombieRolesCheck{},          // MEDIUM:   role unused beyond the stale window
		checks.InlinePolicyMixingCheck{},   // LOW:      inline and managed policies mixed
	}
}
