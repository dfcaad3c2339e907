package models

import "time"

// NotApplicable is the literal sentinel the IAM credential report uses for
// fields that are unset ("never used", "no key", ...). Rows keep the raw
// string values so checks can distinguish "never" from a parse failure.
const NotApplicable = "N/A"

// RootAccountRow is the reserved user name of the account root row in the
// credential report. It is excluded from every per-user check.
const RootAccountRow = "<root_account>"

// CredentialReportRow is one principal's password and access-key usage
// snapshot from the account credential report. All values are the raw
// report strings; "N/A" means unset.
type CredentialReportRow struct {
	User               string `json:"user"`
	ARN                string `json:"arn"`
	PasswordEnabled    string `json:"password_enabled"`
	PasswordLastUsed   string `json:"password_last_used"`
	MFAActive          string `json:"mfa_active"`
	AccessKey1Active   string `json:"access_key_1_active"`
	AccessKey1Created  string `json:"access_key_1_last_rotated"`
	AccessKey1LastUsed string `json:"access_key_1_last_used_date"`
	AccessKey2Active   string `json:"access_key_2_active"`
	AccessKey2Created  string `json:"access_key_2_last_rotated"`
	AccessKey2LastUsed string `json:"access_key_2_last_used_date"`
}

// IsRoot reports whether the row belongs to the account root principal.
func (r CredentialReportRow) IsRoot() bool {
	return r.User == RootAccountRow
}

// UserSummary is an IAM user as listed by the identity directory.
type UserSummary struct {
	Name string
	ARN  string
}

// RoleSummary is an IAM role as listed by the identity directory.
// CreateDate is carried so age-based checks can skip young roles without
// fetching role detail.
type RoleSummary struct {
	Name       string
	ARN        string
	Path       string
	CreateDate time.Time
}

// RoleDetail is the expanded view of one role, fetched on demand.
// TrustPolicy is the raw (URL-decoded) assume-role policy document JSON.
// LastUsedDate is nil when the role has no recorded use.
type RoleDetail struct {
	Name               string
	Path               string
	MaxSessionDuration int32
	TrustPolicy        string
	LastUsedDate       *time.Time
}

// ManagedPolicySummary is a customer-managed policy as listed by the
// identity directory, with enough detail to fetch its current document.
type ManagedPolicySummary struct {
	Name             string
	ARN              string
	DefaultVersionID string
	AttachmentCount  int32
}

// AttachedPolicy is a managed policy attachment on a user, role, or group.
type AttachedPolicy struct {
	Name string
	ARN  string
}

// PasswordPolicy is the account password policy. Present is false when the
// account has no policy configured, which is itself a finding rather than
// an error.
type PasswordPolicy struct {
	Present          bool
	MinimumLength    int32
	RequireSymbols   bool
	RequireNumbers   bool
	RequireUppercase bool
	RequireLowercase bool
}

// InlinePolicy pairs an inline policy name with its raw (still URL-encoded)
// document as returned by the IAM API.
type InlinePolicy struct {
	Name     string
	Document string
}

// BucketPolicy pairs a bucket with its raw resource policy JSON.
// Policy is empty when the bucket has none.
type BucketPolicy struct {
	Bucket string
	Policy string
}
