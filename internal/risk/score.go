// Package risk maps finding severities to numeric risk scores.
package risk

import "github.com/devsec-tools/iamaudit/internal/models"

// base scores per severity. Unknown severities score at the floor.
var base = map[models.Severity]int{
	models.SeverityCritical: 9,
	models.SeverityHigh:     7,
	models.SeverityMedium:   5,
	models.SeverityLow:      3,
}

// Score returns the risk score for a severity plus additional factors,
// clamped to the [1, 10] range. It is a pure function with no failure mode.
func Score(severity models.Severity, additionalFactors int) int {
	score, ok := base[severity]
	if !ok {
		score = 1
	}
	score += additionalFactors
	if score > 10 {
		return 10
	}
	if score < 1 {
		return 1
	}
	return score
}
