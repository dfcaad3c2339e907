// Package engine orchestrates audit runs: it loads the target profile, wires
// the check environment, runs every registered check with failure isolation,
// and assembles the final report.
package engine

import (
	"context"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// AuditType identifies the category of audit to run.
type AuditType string

const (
	AuditTypeIAM AuditType = "iam"
)

// ReportFormat controls the CLI output format.
type ReportFormat string

const (
	ReportFormatJSON    ReportFormat = "json"
	ReportFormatTable   ReportFormat = "table"
	ReportFormatSummary ReportFormat = "summary"
)

// AuditOptions configures a single audit run.
// It is the sole input to Engine.RunAudit.
type AuditOptions struct {
	// AuditType selects the audit module (e.g. "iam").
	AuditType AuditType

	// Profile is the named AWS profile to use. Empty means the default profile.
	Profile string

	// Region is the target region. Empty falls back to the profile's region.
	Region string

	// EndpointURL overrides the API endpoint, for local simulators.
	EndpointURL string

	// ReportFormat controls how the CLI renders the returned report.
	ReportFormat ReportFormat
}

// Engine is the central orchestration interface. It coordinates profile
// loading, check execution, and report assembly. Engines must not call the
// AWS SDK directly; all cloud access goes through the check environment.
type Engine interface {
	RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error)
}
