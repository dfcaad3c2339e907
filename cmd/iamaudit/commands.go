package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/devsec-tools/iamaudit/internal/checkpacks/iam"
	"github.com/devsec-tools/iamaudit/internal/checks"
	"github.com/devsec-tools/iamaudit/internal/config"
	"github.com/devsec-tools/iamaudit/internal/engine"
	"github.com/devsec-tools/iamaudit/internal/models"
	"github.com/devsec-tools/iamaudit/internal/output"
	"github.com/devsec-tools/iamaudit/internal/providers/aws/common"
	"github.com/devsec-tools/iamaudit/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "iamaudit",
		Short: "iamaudit — AWS IAM configuration audit engine",
	}
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	root.AddCommand(newAWSCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

func newAWSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aws",
		Short: "AWS provider commands",
	}
	cmd.AddCommand(newAuditCmd())
	return cmd
}

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run an audit against an AWS account",
	}
	cmd.AddCommand(newIAMCmd())
	return cmd
}

func newIAMCmd() *cobra.Command {
	var (
		profile    string
		region     string
		endpoint   string
		configPath string
		reportFmt  string
		summary    bool
		outputPath string
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "iam",
		Short: "Audit IAM users, roles, and policies for security risks",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)

			auditCfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load audit config %q: %w", configPath, err)
				}
				auditCfg = loaded
			}

			registry := checks.NewRegistry()
			for _, check := range iam.New() {
				registry.Register(check)
			}

			eng := engine.NewIAMAuditEngine(
				common.NewDefaultAWSClientProvider(),
				registry,
				auditCfg,
				logger,
			)

			opts := engine.AuditOptions{
				AuditType:    engine.AuditTypeIAM,
				Profile:      profile,
				Region:       region,
				EndpointURL:  endpoint,
				ReportFormat: engine.ReportFormat(reportFmt),
			}

			report, err := eng.RunAudit(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("audit failed: %w", err)
			}

			if outputPath != "" {
				if err := writeReportToFile(outputPath, report); err != nil {
					return err
				}
			}

			if summary {
				return printSummary(os.Stdout, report)
			}
			if reportFmt == string(engine.ReportFormatJSON) {
				return printJSON(report)
			}
			printTable(report, !noColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: profile region, falling back to us-east-1)")
	cmd.Flags().StringVar(&endpoint, "endpoint-url", "", "Override the AWS API endpoint (for local simulators)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to an audit configuration YAML file")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print compact summary: severity breakdown plus top-5 findings by risk")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write full JSON report to this file path (in addition to stdout output)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured severity output")

	return cmd
}

// newLogger builds the structured logger for one command invocation.
// --verbose lowers the level to debug; logs always go to stderr so stdout
// stays parseable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// printJSON writes the report as indented JSON to stdout.
func printJSON(report *models.AuditReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeReportToFile serialises report as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeReportToFile(path string, report *models.AuditReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	return nil
}

// printSummary renders a compact summary view to w:
//   - Account / profile / region header
//   - Per-severity finding counts, escalation path count, max risk score
//   - Top 5 findings ranked by risk score
//
// It reuses the already-computed AuditReport; no engine logic is duplicated.
func printSummary(w io.Writer, report *models.AuditReport) error {
	s := report.Summary

	pterm.DefaultSection.WithWriter(w).Println("IAM Audit Summary")

	header := pterm.TableData{
		{"Profile", report.Profile},
		{"Account", report.AccountID},
		{"Region", report.Region},
		{"Total Findings", strconv.Itoa(s.TotalFindings)},
		{"Critical", strconv.Itoa(s.CriticalFindings)},
		{"High", strconv.Itoa(s.HighFindings)},
		{"Medium", strconv.Itoa(s.MediumFindings)},
		{"Low", strconv.Itoa(s.LowFindings)},
		{"Escalation Paths", strconv.Itoa(s.EscalationPaths)},
		{"Max Risk Score", strconv.Itoa(s.MaxRiskScore)},
	}
	if err := pterm.DefaultTable.WithWriter(w).WithData(header).Render(); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	top := topFindings(report.Findings, 5)
	if len(top) == 0 {
		return nil
	}

	rows := pterm.TableData{{"RISK", "SEVERITY", "PRINCIPAL", "CHECK"}}
	for _, f := range top {
		rows = append(rows, []string{
			strconv.Itoa(f.RiskScore),
			string(f.Severity),
			f.PrincipalName,
			f.CheckID,
		})
	}
	pterm.DefaultSection.WithWriter(w).WithLevel(2).Println("Top Findings by Risk")
	if err := pterm.DefaultTable.WithWriter(w).WithHasHeader().WithData(rows).Render(); err != nil {
		return fmt.Errorf("render top findings: %w", err)
	}
	return nil
}

// topFindings returns up to n findings from the provided slice. Report
// findings arrive sorted by risk score descending, so a prefix suffices.
// The original slice is not modified.
func topFindings(findings []models.Finding, n int) []models.Finding {
	if n > len(findings) {
		n = len(findings)
	}
	return findings[:n]
}

// printTable renders a one-line report header followed by the findings table
// and any detected escalation paths.
func printTable(report *models.AuditReport, colored bool) {
	s := report.Summary
	fmt.Printf(
		"Profile: %-20s  Account: %-14s  Region: %-12s  Findings: %d  Max Risk: %d\n",
		report.Profile,
		report.AccountID,
		report.Region,
		s.TotalFindings,
		s.MaxRiskScore,
	)
	fmt.Println()

	output.RenderTable(os.Stdout, report.Findings, output.TableOptions{Colored: colored})

	if len(report.EscalationPaths) > 0 {
		fmt.Println()
		output.RenderEscalationPaths(os.Stdout, report.EscalationPaths)
	}

	for _, ce := range report.CheckErrors {
		fmt.Printf("warning: check %s did not complete: %s\n", ce.CheckID, ce.Error)
	}
}
