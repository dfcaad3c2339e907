package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// TableOptions controls which columns RenderTable renders and how severity
// is coloured.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeProfile adds a PROFILE column (useful when comparing runs).
	IncludeProfile bool
}

// severityColor maps each severity to its display colour.
var severityColor = map[models.Severity]*color.Color{
	models.SeverityCritical: color.New(color.FgRed, color.Bold),
	models.SeverityHigh:     color.New(color.FgRed),
	models.SeverityMedium:   color.New(color.FgYellow),
	models.SeverityLow:      color.New(color.FgBlue),
}

// ColorSeverity wraps a severity string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorSeverity(sev models.Severity, colored bool) string {
	s := string(sev)
	if !colored {
		return s
	}
	c, ok := severityColor[sev]
	if !ok {
		return s
	}
	return c.Sprint(s)
}

// severityCell returns the severity padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are
// plain so subsequent columns stay visually aligned regardless of terminal
// ANSI support.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return ColorSeverity(sev, colored) + strings.Repeat(" ", spaces)
}

// ShortenMessage truncates msg to at most max runes, appending "..." when
// truncated. max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// truncateField shortens s to at most max bytes for ID/label columns.
func truncateField(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// RenderTable writes a formatted findings table to w.
// The separator line width is derived from the header row so all rows align.
//
// Column order:
//
//	PRINCIPAL  [PROFILE]  TYPE  SEVERITY  RISK  CHECK  ISSUE
func RenderTable(w io.Writer, findings []models.Finding, opts TableOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	// Fixed column display widths.
	const (
		wPrincipal = 30
		wProfile   = 12
		wType      = 10
		wSeverity  = 10
		wRisk      = 4
		wCheck     = 26
		wIssue     = 55
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wPrincipal, "PRINCIPAL"))
	if opts.IncludeProfile {
		hb.WriteString(fmt.Sprintf("  %-*s", wProfile, "PROFILE"))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wType, "TYPE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wSeverity, "SEVERITY"))
	hb.WriteString(fmt.Sprintf("  %-*s", wRisk, "RISK"))
	hb.WriteString(fmt.Sprintf("  %-*s", wCheck, "CHECK"))
	hb.WriteString(fmt.Sprintf("  %-*s", wIssue, "ISSUE"))
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, f := range findings {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wPrincipal, truncateField(f.PrincipalName, wPrincipal)))
		if opts.IncludeProfile {
			rb.WriteString(fmt.Sprintf("  %-*s", wProfile, truncateField(f.Profile, wProfile)))
		}
		rb.WriteString(fmt.Sprintf("  %-*s", wType, truncateField(string(f.PrincipalType), wType)))
		rb.WriteString("  " + severityCell(f.Severity, wSeverity, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*d", wRisk, f.RiskScore))
		rb.WriteString(fmt.Sprintf("  %-*s", wCheck, truncateField(f.CheckID, wCheck)))
		rb.WriteString(fmt.Sprintf("  %-*s", wIssue, ShortenMessage(f.Issue, wIssue)))
		fmt.Fprintln(w, rb.String())
	}
}

// RenderEscalationPaths writes the escalation path list to w, one block per
// path. Nothing is written when the list is empty.
func RenderEscalationPaths(w io.Writer, paths []models.EscalationPath) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintln(w, "Privilege Escalation Paths")
	for _, p := range paths {
		fmt.Fprintf(w, "  [%d] %s: %s %q via policy %q (%s)\n",
			p.RiskScore, p.Pattern, p.PrincipalType, p.PrincipalName,
			p.PolicyName, strings.Join(p.Actions, ", "))
		fmt.Fprintf(w, "      %s\n", p.Description)
	}
}
