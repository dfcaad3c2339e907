package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsec-tools/iamaudit/internal/models"
)

var adminAttachment = []models.AttachedPolicy{
	{Name: "AdministratorAccess", ARN: "arn:aws:iam::aws:policy/AdministratorAccess"},
}

func TestOverprivilegedUsersDirectAttachment(t *testing.T) {
	dir := &fakeDirectory{
		users:        []models.UserSummary{{Name: "alice"}},
		attachedUser: map[string][]models.AttachedPolicy{"alice": adminAttachment},
	}
	env := newTestEnv(dir, nil, nil)
	run := NewAuditRun()

	require.NoError(t, OverprivilegedUsersCheck{}.Run(context.Background(), env, run))

	findings := run.Findings()
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityCritical, findings[0].Severity)
	assert.Contains(t, findings[0].Issue, "attached directly")
}

func TestOverprivilegedUsersViaGroup(t *testing.T) {
	dir := &fakeDirectory{
		users:         []models.UserSummary{{Name: "bob"}},
		groups:        map[string][]string{"bob": {"devs", "admins"}},
		attachedGroup: map[string][]models.AttachedPolicy{"admins": adminAttachment},
	}
	env := newTestEnv(dir, nil, nil)
	run := NewAuditRun()

	require.NoError(t, OverprivilegedUsersCheck{}.Run(context.Background(), env, run))

	findings := run.Findings()
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Issue, `via group "admins"`)
}

func TestOverprivilegedUsersNoAdminAccess(t *testing.T) {
	dir := &fakeDirectory{
		users: []models.UserSummary{{Name: "carol"}},
		attachedUser: map[string][]models.AttachedPolicy{
			"carol": {{Name: "ReadOnlyAccess"}},
		},
		groups: map[string][]string{"carol": {"devs"}},
		attachedGroup: map[string][]models.AttachedPolicy{
			"devs": {{Name: "PowerUserAccess"}},
		},
	}
	env := newTestEnv(dir, nil, nil)
	run := NewAuditRun()

	require.NoError(t, OverprivilegedUsersCheck{}.Run(context.Background(), env, run))
	assert.Empty(t, run.Findings())
}

func TestOverprivilegedUsersSkipsEmergencyAccess(t *testing.T) {
	dir := &fakeDirectory{
		users:        []models.UserSummary{{Name: "breakglass"}},
		attachedUser: map[string][]models.AttachedPolicy{"breakglass": adminAttachment},
	}
	env := newTestEnv(dir, nil, &fakeExempt{emergency: map[string]bool{"breakglass": true}})
	run := NewAuditRun()

	require.NoError(t, OverprivilegedUsersCheck{}.Run(context.Background(), env, run))
	assert.Empty(t, run.Findings())
}

func TestOverprivilegedUsersOneFindingPerUser(t *testing.T) {
	// Admin both directly and via a group still yields a single finding.
	dir := &fakeDirectory{
		users:         []models.UserSummary{{Name: "dave"}},
		attachedUser:  map[string][]models.AttachedPolicy{"dave": adminAttachment},
		groups:        map[string][]string{"dave": {"admins"}},
		attachedGroup: map[string][]models.AttachedPolicy{"admins": adminAttachment},
	}
	env := newTestEnv(dir, nil, nil)
	run := NewAuditRun()

	require.NoError(t, OverprivilegedUsersCheck{}.Run(context.Background(), env, run))
	assert.Len(t, run.Findings(), 1)
}
