package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsec-tools/iamaudit/internal/models"
)

func TestInlinePolicyMixingFlagsMixedUser(t *testing.T) {
	dir := &fakeDirectory{
		users: []models.UserSummary{{Name: "alice"}},
		inlineUser: map[string][]models.InlinePolicy{
			"alice": {{Name: "custom", Document: "{}"}},
		},
		attachedUser: map[string][]models.AttachedPolicy{
			"alice": {{Name: "ReadOnlyAccess"}},
		},
	}
	env := newTestEnv(dir, nil, nil)
	run := NewAuditRun()

	require.NoError(t, InlinePolicyMixingCheck{}.Run(context.Background(), env, run))

	// Exactly one finding for the mixed user.
	findings := run.Findings()
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityLow, findings[0].Severity)
	assert.Contains(t, findings[0].Issue, "mixes 1 inline and 1 attached")
}

func TestInlinePolicyMixingPureInlinePasses(t *testing.T) {
	dir := &fakeDirectory{
		users: []models.UserSummary{{Name: "bob"}},
		inlineUser: map[string][]models.InlinePolicy{
			"bob": {{Name: "a", Document: "{}"}, {Name: "b", Document: "{}"}},
		},
	}
	env := newTestEnv(dir, nil, nil)
	run := NewAuditRun()

	require.NoError(t, InlinePolicyMixingCheck{}.Run(context.Background(), env, run))
	assert.Empty(t, run.Findings())
}

func TestInlinePolicyMixingPureManagedPasses(t *testing.T) {
	dir := &fakeDirectory{
		users: []models.UserSummary{{Name: "carol"}},
		attachedUser: map[string][]models.AttachedPolicy{
			"carol": {{Name: "ReadOnlyAccess"}, {Name: "PowerUserAccess"}},
		},
	}
	env := newTestEnv(dir, nil, nil)
	run := NewAuditRun()

	require.NoError(t, InlinePolicyMixingCheck{}.Run(context.Background(), env, run))
	assert.Empty(t, run.Findings())
}

func TestInlinePolicyMixingFlagsMixedRole(t *testing.T) {
	dir := &fakeDirectory{
		roles: []models.RoleSummary{{Name: "deployer", Path: "/"}},
		inlineRole: map[string][]models.InlinePolicy{
			"deployer": {{Name: "extra", Document: "{}"}},
		},
		attachedRole: map[string][]models.AttachedPolicy{
			"deployer": {{Name: "DeployPolicy"}},
		},
	}
	env := newTestEnv(dir, nil, nil)
	run := NewAuditRun()

	require.NoError(t, InlinePolicyMixingCheck{}.Run(context.Background(), env, run))

	findings := run.Findings()
	require.Len(t, findings, 1)
	assert.Equal(t, models.PrincipalRole, findings[0].PrincipalType)
}

func TestInlinePolicyMixingSkipsServiceLinkedRoles(t *testing.T) {
	dir := &fakeDirectory{
		roles: []models.RoleSummary{
			{Name: "AWSServiceRoleForTest", Path: "/aws-service-role/test.amazonaws.com/"},
		},
		inlineRole: map[string][]models.InlinePolicy{
			"AWSServiceRoleForTest": {{Name: "managed-by-aws", Document: "{}"}},
		},
		attachedRole: map[string][]models.AttachedPolicy{
			"AWSServiceRoleForTest": {{Name: "ServicePolicy"}},
		},
	}
	env := newTestEnv(dir, nil, nil)
	run := NewAuditRun()

	require.NoError(t, InlinePolicyMixingCheck{}.Run(context.Background(), env, run))
	assert.Empty(t, run.Findings())
}
