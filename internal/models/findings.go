package models

import "time"

// Severity represents the impact level of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// PrincipalType identifies the kind of identity or resource a finding refers to.
type PrincipalType string

const (
	PrincipalUser     PrincipalType = "User"
	PrincipalRole     PrincipalType = "Role"
	PrincipalPolicy   PrincipalType = "Policy"
	PrincipalS3Bucket PrincipalType = "S3Bucket"
	PrincipalAccount  PrincipalType = "Account"
)

// Finding is a single detected security issue.
// It is the atomic output unit of the audit engine; findings are never
// mutated after a check emits them.
type Finding struct {
	ID             string         `json:"id"`
	CheckID        string         `json:"check_id"`
	RiskScore      int            `json:"risk_score"`
	Severity       Severity       `json:"severity"`
	PrincipalType  PrincipalType  `json:"principal_type"`
	PrincipalName  string         `json:"principal_name"`
	Issue          string         `json:"issue_description"`
	Recommendation string         `json:"recommendation,omitempty"`
	AccountID      string         `json:"account_id"`
	Profile        string         `json:"profile"`
	DetectedAt     time.Time      `json:"detected_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// EscalationPath records that a specific Allow statement matched a known
// privilege-escalation pattern. One path is emitted per (statement, pattern)
// match; a single statement can yield several paths.
type EscalationPath struct {
	Pattern       string   `json:"pattern"`
	PrincipalType string   `json:"principal_type"`
	PrincipalName string   `json:"principal_name"`
	PolicyName    string   `json:"policy_name"`
	Actions       []string `json:"actions"`
	RiskScore     int      `json:"risk_score"`
	Description   string   `json:"description"`
}

// Recommendation is a remediation suggestion tied to a principal.
type Recommendation struct {
	PrincipalType PrincipalType `json:"principal_type"`
	PrincipalName string        `json:"principal_name"`
	Action        string        `json:"action"`
}

// AuditSummary aggregates counts across all findings in a report.
type AuditSummary struct {
	TotalFindings    int `json:"total_findings"`
	CriticalFindings int `json:"critical_findings"`
	HighFindings     int `json:"high_findings"`
	MediumFindings   int `json:"medium_findings"`
	LowFindings      int `json:"low_findings"`
	EscalationPaths  int `json:"escalation_paths"`
	// MaxRiskScore is the highest risk score across all findings,
	// 0 when the audit produced no findings.
	MaxRiskScore int `json:"max_risk_score"`
}

// AuditReport is the top-level output of one audit run.
// Findings are ordered by RiskScore descending (stable for ties).
type AuditReport struct {
	ReportID        string           `json:"report_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	AuditType       string           `json:"audit_type"`
	Profile         string           `json:"profile"`
	AccountID       string           `json:"account_id"`
	Region          string           `json:"region"`
	Summary         AuditSummary     `json:"summary"`
	Findings        []Finding        `json:"findings"`
	EscalationPaths []EscalationPath `json:"escalation_paths,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	// CheckErrors records checks that failed to complete. A failed check
	// never suppresses the results of the others.
	CheckErrors []CheckError `json:"check_errors,omitempty"`
}

// CheckError captures a non-fatal failure of a single check during a run.
type CheckError struct {
	CheckID string `json:"check_id"`
	Error   string `json:"error"`
}
