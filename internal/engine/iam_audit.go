package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/devsec-tools/iamaudit/internal/checks"
	"github.com/devsec-tools/iamaudit/internal/config"
	"github.com/devsec-tools/iamaudit/internal/escalation"
	"github.com/devsec-tools/iamaudit/internal/models"
	"github.com/devsec-tools/iamaudit/internal/providers/aws/common"
	"github.com/devsec-tools/iamaudit/internal/providers/aws/identity"
)

// envFactory builds the check environment for a loaded profile.
// Injection point: tests replace this with a function returning fake clients.
type envFactory func(profile *common.ProfileConfig, cfg *config.AuditConfig, logger *slog.Logger) *checks.Env

// newDefaultEnv wires the production identity directory, credential-report
// cache, exemption classifier, and escalation matcher.
func newDefaultEnv(profile *common.ProfileConfig, cfg *config.AuditConfig, logger *slog.Logger) *checks.Env {
	dir := identity.NewDirectory(profile.Config)
	return &checks.Env{
		Directory: dir,
		Report:    identity.NewCredentialReportCacheFromConfig(profile.Config, logger),
		Exempt:    identity.NewExemptionClassifier(dir, logger),
		Matcher:   escalation.NewMatcher(escalation.DefaultCatalog()),
		Config:    cfg,
		AccountID: profile.AccountID,
		Profile:   profile.ProfileName,
		Logger:    logger,
	}
}

// IAMAuditEngine implements Engine for AuditTypeIAM.
// It coordinates profile loading, check execution with per-check failure
// isolation, and report assembly.
type IAMAuditEngine struct {
	provider common.AWSClientProvider
	registry *checks.Registry
	cfg      *config.AuditConfig
	logger   *slog.Logger
	buildEnv envFactory
}

// NewIAMAuditEngine constructs an IAMAuditEngine wired to the supplied
// provider and check registry. A nil cfg uses defaults; a nil logger uses
// slog.Default().
func NewIAMAuditEngine(
	provider common.AWSClientProvider,
	registry *checks.Registry,
	cfg *config.AuditConfig,
	logger *slog.Logger,
) *IAMAuditEngine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IAMAuditEngine{
		provider: provider,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		buildEnv: newDefaultEnv,
	}
}

// RunAudit implements Engine. Only AuditTypeIAM is accepted.
//
// Setup failures (profile load, account resolution) propagate as hard errors.
// A failure inside one check is captured, logged, and recorded on the report;
// the remaining checks still run and contribute findings.
func (e *IAMAuditEngine) RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error) {
	if opts.AuditType != AuditTypeIAM {
		return nil, fmt.Errorf("unsupported audit type: %q", opts.AuditType)
	}

	profile, err := e.provider.LoadProfile(ctx, common.LoadOptions{
		Profile:     opts.Profile,
		Region:      opts.Region,
		EndpointURL: opts.EndpointURL,
	})
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", opts.Profile, err)
	}

	env := e.buildEnv(profile, e.cfg, e.logger)
	run := checks.NewAuditRun()

	var checkErrors []models.CheckError
	for _, check := range e.registry.All() {
		if err := e.runCheck(ctx, check, env, run); err != nil {
			e.logger.Error("check failed", "check", check.ID(), "error", err)
			checkErrors = append(checkErrors, models.CheckError{
				CheckID: check.ID(),
				Error:   err.Error(),
			})
		}
	}

	return buildIAMReport(profile, run, checkErrors), nil
}

// runCheck executes one check, converting a panic into an error so a broken
// check can never take down the rest of the run.
func (e *IAMAuditEngine) runCheck(ctx context.Context, check checks.Check, env *checks.Env, run *checks.AuditRun) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check panicked: %v", r)
		}
	}()
	return check.Run(ctx, env, run)
}

// buildIAMReport assembles the final AuditReport. Findings are sorted by
// risk score descending, stable for ties, only after every check has settled.
func buildIAMReport(profile *common.ProfileConfig, run *checks.AuditRun, checkErrors []models.CheckError) *models.AuditReport {
	findings := run.Findings()
	sortFindings(findings)
	paths := run.EscalationPaths()
	return &models.AuditReport{
		ReportID:        fmt.Sprintf("iam-audit-%d", time.Now().UnixNano()),
		GeneratedAt:     time.Now().UTC(),
		AuditType:       string(AuditTypeIAM),
		Profile:         profile.ProfileName,
		AccountID:       profile.AccountID,
		Region:          profile.Region,
		Summary:         computeSummary(findings, paths),
		Findings:        findings,
		EscalationPaths: paths,
		Recommendations: run.Recommendations(),
		CheckErrors:     checkErrors,
	}
}

// sortFindings sorts findings in-place by risk score descending. The sort is
// stable so findings with equal scores keep check-execution order.
func sortFindings(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].RiskScore > findings[j].RiskScore
	})
}

// computeSummary aggregates finding counts by severity plus the escalation
// path count and the highest risk score seen.
func computeSummary(findings []models.Finding, paths []models.EscalationPath) models.AuditSummary {
	var s models.AuditSummary
	s.TotalFindings = len(findings)
	s.EscalationPaths = len(paths)
	for _, f := range findings {
		if f.RiskScore > s.MaxRiskScore {
			s.MaxRiskScore = f.RiskScore
		}
		switch f.Severity {
		case models.SeverityCritical:
			s.CriticalFindings++
		case models.SeverityHigh:
			s.HighFindings++
		case models.SeverityMedium:
			s.MediumFindings++
		case models.SeverityLow:
			s.LowFindings++
		}
	}
	return s
}
