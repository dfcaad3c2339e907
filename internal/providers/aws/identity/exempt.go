package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// EmergencyAccessTag is the principal tag that marks break-glass accounts.
// A principal tagged EmergencyAccess=true is exempt from applicable checks.
const EmergencyAccessTag = "EmergencyAccess"

// ServiceLinkedRolePathPrefix marks roles whose lifecycle is managed by an
// AWS service rather than by the account's operators.
const ServiceLinkedRolePathPrefix = "/aws-service-role/"

// ExemptionClassifier decides whether a principal is excluded from a check.
// Every lookup failure resolves toward "not exempt": a principal we cannot
// classify remains subject to audit rather than being silently skipped.
type ExemptionClassifier struct {
	dir    *Directory
	logger *slog.Logger
}

// NewExemptionClassifier returns a classifier backed by the given directory.
// A nil logger defaults to slog.Default().
func NewExemptionClassifier(dir *Directory, logger *slog.Logger) *ExemptionClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExemptionClassifier{dir: dir, logger: logger}
}

// IsEmergencyAccess reports whether the principal carries the tag
// EmergencyAccess with the literal value "true". Principal types other than
// User and Role return false without a lookup.
func (c *ExemptionClassifier) IsEmergencyAccess(ctx context.Context, principalType models.PrincipalType, name string) bool {
	var (
		tags map[string]string
		err  error
	)
	switch principalType {
	case models.PrincipalUser:
		tags, err = c.dir.UserTags(ctx, name)
	case models.PrincipalRole:
		tags, err = c.dir.RoleTags(ctx, name)
	default:
		return false
	}
	if err != nil {
		c.logger.Debug("tag lookup failed, treating as not exempt",
			"principal_type", string(principalType), "principal", name, "error", err)
		return false
	}
	return tags[EmergencyAccessTag] == "true"
}

// IsServiceLinkedRole reports whether the role's path begins with the
// service-linked-role prefix. Lookup failures return false.
func (c *ExemptionClassifier) IsServiceLinkedRole(ctx context.Context, roleName string) bool {
	detail, err := c.dir.RoleDetail(ctx, roleName)
	if err != nil {
		c.logger.Debug("role path lookup failed, treating as not service-linked",
			"role", roleName, "error", err)
		return false
	}
	return strings.HasPrefix(detail.Path, ServiceLinkedRolePathPrefix)
}

// IsServiceLinkedPath reports whether an already-known role path is
// service-linked, avoiding a detail fetch when the caller has the path.
func (c *ExemptionClassifier) IsServiceLinkedPath(path string) bool {
	return IsServiceLinkedPath(path)
}

// IsServiceLinkedPath reports whether a role path is service-linked.
func IsServiceLinkedPath(path string) bool {
	return strings.HasPrefix(path, ServiceLinkedRolePathPrefix)
}
