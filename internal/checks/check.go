// Package checks implements the audit checks. Each check pulls the data it
// needs through the identity-directory client, applies the exemption
// classifiers, and appends findings to the shared run collector.
package checks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devsec-tools/iamaudit/internal/config"
	"github.com/devsec-tools/iamaudit/internal/escalation"
	"github.com/devsec-tools/iamaudit/internal/models"
	"github.com/devsec-tools/iamaudit/internal/risk"
)

// IdentityDirectory is the slice of the identity-directory client the checks
// consume. The production implementation is the AWS identity Directory;
// tests substitute an in-memory fake.
type IdentityDirectory interface {
	Users(ctx context.Context) ([]models.UserSummary, error)
	Roles(ctx context.Context) ([]models.RoleSummary, error)
	RoleDetail(ctx context.Context, roleName string) (*models.RoleDetail, error)
	GroupsForUser(ctx context.Context, userName string) ([]string, error)
	CustomerManagedPolicies(ctx context.Context) ([]models.ManagedPolicySummary, error)
	PolicyDocument(ctx context.Context, policyARN, versionID string) (string, error)
	InlineUserPolicies(ctx context.Context, userName string) ([]models.InlinePolicy, error)
	InlineRolePolicies(ctx context.Context, roleName string) ([]models.InlinePolicy, error)
	AttachedUserPolicies(ctx context.Context, userName string) ([]models.AttachedPolicy, error)
	AttachedRolePolicies(ctx context.Context, roleName string) ([]models.AttachedPolicy, error)
	AttachedGroupPolicies(ctx context.Context, groupName string) ([]models.AttachedPolicy, error)
	AccountPasswordPolicy(ctx context.Context) (models.PasswordPolicy, error)
	Buckets(ctx context.Context) ([]string, error)
	BucketPolicy(ctx context.Context, bucket string) (string, error)
}

// CredentialReportSource serves parsed credential-report rows. Failures
// surface as an empty row set, never as an error.
type CredentialReportSource interface {
	Rows(ctx context.Context) []models.CredentialReportRow
}

// ExemptionSource decides which principals a check must skip.
type ExemptionSource interface {
	IsEmergencyAccess(ctx context.Context, principalType models.PrincipalType, name string) bool
	IsServiceLinkedRole(ctx context.Context, roleName string) bool
	// IsServiceLinkedPath classifies an already-known role path without a
	// detail fetch.
	IsServiceLinkedPath(path string) bool
}

// Env carries everything a check needs. It is assembled once per run by the
// engine and shared read-only across all checks.
type Env struct {
	Directory IdentityDirectory
	Report    CredentialReportSource
	Exempt    ExemptionSource
	Matcher   *escalation.Matcher
	Config    *config.AuditConfig

	AccountID string
	Profile   string

	Logger *slog.Logger

	// Now is the clock used for age comparisons. Nil means time.Now.
	Now func() time.Time
}

// Clock returns the current run time.
func (e *Env) Clock() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// Log returns the run logger, defaulting to slog.Default().
func (e *Env) Log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// StaleWindow returns the configured stale window as a duration.
func (e *Env) StaleWindow() time.Duration {
	return time.Duration(e.Config.StaleWindowDays()) * 24 * time.Hour
}

// AuditRun is the single-owner collector for one audit run. Checks append to
// it sequentially; the engine reads it only after every check has settled.
type AuditRun struct {
	findings        []models.Finding
	escalationPaths []models.EscalationPath
	recommendations []models.Recommendation
}

// NewAuditRun returns an empty collector.
func NewAuditRun() *AuditRun {
	return &AuditRun{}
}

// AddFinding appends a finding to the run.
func (r *AuditRun) AddFinding(f models.Finding) {
	r.findings = append(r.findings, f)
}

// AddEscalationPath appends an escalation path to the run.
func (r *AuditRun) AddEscalationPath(p models.EscalationPath) {
	r.escalationPaths = append(r.escalationPaths, p)
}

// AddRecommendation appends a remediation recommendation to the run.
func (r *AuditRun) AddRecommendation(rec models.Recommendation) {
	r.recommendations = append(r.recommendations, rec)
}

// Findings returns the accumulated findings in append order.
func (r *AuditRun) Findings() []models.Finding { return r.findings }

// EscalationPaths returns the accumulated escalation paths.
func (r *AuditRun) EscalationPaths() []models.EscalationPath { return r.escalationPaths }

// Recommendations returns the accumulated recommendations.
func (r *AuditRun) Recommendations() []models.Recommendation { return r.recommendations }

// Check is a single audit check. Checks are stateless; all inputs arrive via
// Env and all outputs go to the AuditRun collector. A returned error marks
// the whole check as failed; checks that can degrade per-principal should
// log and skip instead.
type Check interface {
	// ID returns the unique, stable identifier for this check (e.g. "IAM_MFA_COMPLIANCE").
	ID() string

	// Name returns a short human-readable check name.
	Name() string

	// Run executes the check, appending zero or more findings to run.
	Run(ctx context.Context, env *Env, run *AuditRun) error
}

// newFinding builds a finding with the run-wide fields filled in. The ID is
// derived from the check ID and resourceID; callers pass a qualified
// resourceID when one principal can yield several findings from one check.
func newFinding(env *Env, checkID string, severity models.Severity, extraRisk int,
	principalType models.PrincipalType, principalName, resourceID, issue, recommendation string) models.Finding {
	return models.Finding{
		ID:             fmt.Sprintf("%s-%s", checkID, resourceID),
		CheckID:        checkID,
		RiskScore:      risk.Score(severity, extraRisk),
		Severity:       severity,
		PrincipalType:  principalType,
		PrincipalName:  principalName,
		Issue:          issue,
		Recommendation: recommendation,
		AccountID:      env.AccountID,
		Profile:        env.Profile,
		DetectedAt:     env.Clock(),
	}
}

// parseReportTime parses a credential-report timestamp. The report uses the
// sentinels "N/A", "no_information", and "not_supported" for "never"; those
// and unparseable values return ok=false.
func parseReportTime(value string) (time.Time, bool) {
	switch value {
	case "", models.NotApplicable, "no_information", "not_supported":
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
