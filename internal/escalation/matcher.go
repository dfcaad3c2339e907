package escalation

import "github.com/devsec-tools/iamaudit/internal/policydoc"

// Path is the result of one successful (statement, pattern) match.
type Path struct {
	Pattern     string
	Actions     []string
	RiskScore   int
	Description string
}

// Matcher evaluates normalized Allow statements against a pattern catalog.
type Matcher struct {
	catalog []Pattern
}

// NewMatcher returns a matcher over the given catalog.
// Pass DefaultCatalog() for the built-in pattern set.
func NewMatcher(catalog []Pattern) *Matcher {
	return &Matcher{catalog: catalog}
}

// Match tests one normalized statement against every catalog pattern and
// returns a Path per satisfied pattern. A statement matches a pattern iff:
//
//  1. every required action is present in the statement's action set by
//     exact string comparison (no wildcard expansion), and
//  2. the statement's resources contain the literal "*".
//
// A statement scoped to a specific resource ARN never matches even when the
// action requirement is met. Multiple patterns may match the same statement;
// there is no priority or early exit. Deny statements never match.
func (m *Matcher) Match(stmt policydoc.Statement) []Path {
	if !stmt.IsAllow() {
		return nil
	}
	if !stmt.Resources.Has("*") {
		return nil
	}
	var paths []Path
	for _, pattern := range m.catalog {
		if !stmt.Actions.ContainsAll(pattern.RequiredActions) {
			continue
		}
		paths = append(paths, Path{
			Pattern:     pattern.Name,
			Actions:     pattern.RequiredActions.Values(),
			RiskScore:   pattern.RiskScore,
			Description: pattern.Description,
		})
	}
	return paths
}
