package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/devsec-tools/iamaudit/internal/models"
	"github.com/devsec-tools/iamaudit/internal/policydoc"
)

// sensitiveActions is the built-in catalog of non-read-only actions that are
// dangerous when granted without a Condition. The audit config can extend it.
var sensitiveActions = []string{
	"*",
	"iam:*",
	"iam:CreateUser",
	"iam:CreateAccessKey",
	"iam:PutUserPolicy",
	"iam:PutRolePolicy",
	"iam:AttachUserPolicy",
	"iam:AttachRolePolicy",
	"iam:UpdateAssumeRolePolicy",
	"iam:PassRole",
	"sts:AssumeRole",
	"s3:PutBucketPolicy",
	"kms:PutKeyPolicy",
	"kms:ScheduleKeyDeletion",
	"lambda:CreateFunction",
	"ec2:RunInstances",
	"organizations:LeaveOrganization",
}

// DangerousPoliciesCheck flags customer-managed policies containing an Allow
// statement with no Condition that grants sensitive actions. Matching is
// literal: a statement granting "ec2:*" does not match "ec2:RunInstances".
// One finding per policy, listing every sensitive action found.
type DangerousPoliciesCheck struct{}

func (c DangerousPoliciesCheck) ID() string   { return "IAM_DANGEROUS_POLICIES" }
func (c DangerousPoliciesCheck) Name() string { return "Dangerous Managed Policies" }

func (c DangerousPoliciesCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	policies, err := env.Directory.CustomerManagedPolicies(ctx)
	if err != nil {
		return fmt.Errorf("list customer managed policies: %w", err)
	}

	catalog := c.catalog(env)
	for _, policy := range policies {
		raw, err := env.Directory.PolicyDocument(ctx, policy.ARN, policy.DefaultVersionID)
		if err != nil {
			env.Log().Warn("policy document fetch failed", "policy", policy.Name, "error", err)
			continue
		}
		doc, err := policydoc.ParseEncoded(raw)
		if err != nil {
			env.Log().Warn("policy document parse failed", "policy", policy.Name, "error", err)
			continue
		}

		matched := make(map[string]struct{})
		for _, stmt := range doc.Statements() {
			if !stmt.IsAllow() || stmt.HasCondition() {
				continue
			}
			for action := range catalog {
				if stmt.Actions.Has(action) {
					matched[action] = struct{}{}
				}
			}
		}
		if len(matched) == 0 {
			continue
		}

		actions := make([]string, 0, len(matched))
		for a := range matched {
			actions = append(actions, a)
		}
		sort.Strings(actions)

		finding := newFinding(env, c.ID(), models.SeverityHigh, 0,
			models.PrincipalPolicy, policy.Name, policy.Name,
			fmt.Sprintf("Managed policy %q allows sensitive actions without any condition: %s.",
				policy.Name, strings.Join(actions, ", ")),
			"Scope sensitive actions to specific resources and guard them with conditions.")
		finding.Metadata = map[string]any{"sensitive_actions": actions}
		run.AddFinding(finding)
	}
	return nil
}

// catalog merges the built-in sensitive actions with the configured extras.
func (c DangerousPoliciesCheck) catalog(env *Env) policydoc.StringSet {
	set := policydoc.NewStringSet(sensitiveActions...)
	if env.Config != nil {
		for _, a := range env.Config.ExtraSensitiveActions {
			set[a] = struct{}{}
		}
	}
	return set
}
