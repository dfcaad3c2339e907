package checks

import (
	"context"
	"log/slog"
	"time"

	"github.com/devsec-tools/iamaudit/internal/config"
	"github.com/devsec-tools/iamaudit/internal/escalation"
	"github.com/devsec-tools/iamaudit/internal/models"
)

// fixedNow keeps age arithmetic in tests deterministic.
var fixedNow = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func daysAgo(days int) time.Time {
	return fixedNow.Add(-time.Duration(days) * 24 * time.Hour)
}

func reportTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// fakeDirectory is an in-memory IdentityDirectory. Zero value answers every
// call with empty results; tests fill in only what the check under test
// reads. Per-method error fields simulate partial API failures.
type fakeDirectory struct {
	users []models.UserSummary
	roles []models.RoleSummary

	roleDetails map[string]*models.RoleDetail
	groups      map[string][]string

	managedPolicies []models.ManagedPolicySummary
	policyDocs      map[string]string

	inlineUser map[string][]models.InlinePolicy
	inlineRole map[string][]models.InlinePolicy

	attachedUser  map[string][]models.AttachedPolicy
	attachedRole  map[string][]models.AttachedPolicy
	attachedGroup map[string][]models.AttachedPolicy

	passwordPolicy models.PasswordPolicy

	buckets        []string
	bucketPolicies map[string]string

	usersErr          error
	rolesErr          error
	roleDetailErr     error
	passwordPolicyErr error
	bucketsErr        error
	bucketPolicyErr   error

	roleDetailCalls []string
}

func (f *fakeDirectory) Users(context.Context) ([]models.UserSummary, error) {
	return f.users, f.usersErr
}

func (f *fakeDirectory) Roles(context.Context) ([]models.RoleSummary, error) {
	return f.roles, f.rolesErr
}

func (f *fakeDirectory) RoleDetail(_ context.Context, roleName string) (*models.RoleDetail, error) {
	f.roleDetailCalls = append(f.roleDetailCalls, roleName)
	if f.roleDetailErr != nil {
		return nil, f.roleDetailErr
	}
	detail, ok := f.roleDetails[roleName]
	if !ok {
		return nil, errNotFound
	}
	return detail, nil
}

func (f *fakeDirectory) GroupsForUser(_ context.Context, userName string) ([]string, error) {
	return f.groups[userName], nil
}

func (f *fakeDirectory) CustomerManagedPolicies(context.Context) ([]models.ManagedPolicySummary, error) {
	return f.managedPolicies, nil
}

func (f *fakeDirectory) PolicyDocument(_ context.Context, policyARN, versionID string) (string, error) {
	doc, ok := f.policyDocs[policyARN+"@"+versionID]
	if !ok {
		return "", errNotFound
	}
	return doc, nil
}

func (f *fakeDirectory) InlineUserPolicies(_ context.Context, userName string) ([]models.InlinePolicy, error) {
	return f.inlineUser[userName], nil
}

func (f *fakeDirectory) InlineRolePolicies(_ context.Context, roleName string) ([]models.InlinePolicy, error) {
	return f.inlineRole[roleName], nil
}

func (f *fakeDirectory) AttachedUserPolicies(_ context.Context, userName string) ([]models.AttachedPolicy, error) {
	return f.attachedUser[userName], nil
}

func (f *fakeDirectory) AttachedRolePolicies(_ context.Context, roleName string) ([]models.AttachedPolicy, error) {
	return f.attachedRole[roleName], nil
}

func (f *fakeDirectory) AttachedGroupPolicies(_ context.Context, groupName string) ([]models.AttachedPolicy, error) {
	return f.attachedGroup[groupName], nil
}

func (f *fakeDirectory) AccountPasswordPolicy(context.Context) (models.PasswordPolicy, error) {
	return f.passwordPolicy, f.passwordPolicyErr
}

func (f *fakeDirectory) Buckets(context.Context) ([]string, error) {
	return f.buckets, f.bucketsErr
}

func (f *fakeDirectory) BucketPolicy(_ context.Context, bucket string) (string, error) {
	if f.bucketPolicyErr != nil {
		return "", f.bucketPolicyErr
	}
	return f.bucketPolicies[bucket], nil
}

// fakeReport serves canned credential-report rows.
type fakeReport struct {
	rows []models.CredentialReportRow
}

func (f *fakeReport) Rows(context.Context) []models.CredentialReportRow {
	return f.rows
}

// fakeExempt classifies from static name sets.
type fakeExempt struct {
	emergency     map[string]bool
	serviceLinked map[string]bool
}

func (f *fakeExempt) IsEmergencyAccess(_ context.Context, _ models.PrincipalType, name string) bool {
	return f.emergency[name]
}

func (f *fakeExempt) IsServiceLinkedRole(_ context.Context, roleName string) bool {
	return f.serviceLinked[roleName]
}

func (f *fakeExempt) IsServiceLinkedPath(path string) bool {
	return path == "/aws-service-role/test.amazonaws.com/"
}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var errNotFound = notFoundError{}

// newTestEnv assembles an Env over the given fakes with a fixed clock.
func newTestEnv(dir *fakeDirectory, report *fakeReport, exempt *fakeExempt) *Env {
	if dir == nil {
		dir = &fakeDirectory{}
	}
	if report == nil {
		report = &fakeReport{}
	}
	if exempt == nil {
		exempt = &fakeExempt{}
	}
	return &Env{
		Directory: dir,
		Report:    report,
		Exempt:    exempt,
		Matcher:   escalation.NewMatcher(escalation.DefaultCatalog()),
		Config:    config.Default(),
		AccountID: "123456789012",
		Profile:   "test",
		Logger:    slog.Default(),
		Now:       func() time.Time { return fixedNow },
	}
}
