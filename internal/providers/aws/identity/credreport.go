package identity

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// defaultPollInterval is how long the cache waits between credential-report
// generation status polls.
const defaultPollInterval = 1 * time.Second

// CredentialReportCache fetches, polls to completion, parses, and caches the
// account credential report for the lifetime of one audit run.
//
// Any failure during generation, fetch, or parsing degrades to an empty row
// set: report-driven checks then produce no findings instead of crashing the
// run. Repeated Rows calls return the cached value until Invalidate is called.
type CredentialReportCache struct {
	client       iamAPIClient
	logger       *slog.Logger
	pollInterval time.Duration

	fetched bool
	rows    []models.CredentialReportRow
}

// NewCredentialReportCacheFromConfig returns a cache backed by a production
// IAM client built from cfg.
func NewCredentialReportCacheFromConfig(cfg aws.Config, logger *slog.Logger) *CredentialReportCache {
	return NewCredentialReportCache(iamsvc.NewFromConfig(cfg), logger)
}

// NewCredentialReportCache returns an empty cache bound to the given IAM
// client. A nil logger defaults to slog.Default().
func NewCredentialReportCache(client iamAPIClient, logger *slog.Logger) *CredentialReportCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialReportCache{
		client:       client,
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
}

// Rows returns the parsed credential report, fetching and caching it on
// first use. Failures are logged and yield an empty slice, never an error.
func (c *CredentialReportCache) Rows(ctx context.Context) []models.CredentialReportRow {
	if c.fetched {
		return c.rows
	}
	c.rows = c.fetch(ctx)
	c.fetched = true
	return c.rows
}

// Invalidate clears the cached report so the next Rows call re-fetches.
func (c *CredentialReportCache) Invalidate() {
	c.fetched = false
	c.rows = nil
}

// fetch drives generation to completion and parses the report content.
func (c *CredentialReportCache) fetch(ctx context.Context) []models.CredentialReportRow {
	if !c.generate(ctx) {
		return nil
	}
	out, err := c.client.GetCredentialReport(ctx, &iamsvc.GetCredentialReportInput{})
	if err != nil {
		c.logger.Warn("credential report fetch failed", "error", err)
		return nil
	}
	rows, err := parseCredentialReport(out.Content)
	if err != nil {
		c.logger.Warn("credential report parse failed", "error", err)
		return nil
	}
	return rows
}

// generate triggers report generation and polls on a fixed interval until
// the report state is COMPLETE. It returns false on any failure or when ctx
// is cancelled before completion.
func (c *CredentialReportCache) generate(ctx context.Context) bool {
	for {
		out, err := c.client.GenerateCredentialReport(ctx, &iamsvc.GenerateCredentialReportInput{})
		if err != nil {
			c.logger.Warn("credential report generation failed", "error", err)
			return false
		}
		if out.State == iamtypes.ReportStateTypeComplete {
			return true
		}
		c.logger.Debug("credential report not ready", "state", string(out.State))
		select {
		case <-ctx.Done():
			c.logger.Warn("credential report poll cancelled", "error", ctx.Err())
			return false
		case <-time.After(c.pollInterval):
		}
	}
}

// parseCredentialReport decodes the CSV report body into rows. Columns are
// resolved by header name so reordered or extended reports still parse.
func parseCredentialReport(content []byte) ([]models.CredentialReportRow, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return models.NotApplicable
		}
		return record[i]
	}

	rows := make([]models.CredentialReportRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, models.CredentialReportRow{
			User:               field(record, "user"),
			ARN:                field(record, "arn"),
			PasswordEnabled:    field(record, "password_enabled"),
			PasswordLastUsed:   field(record, "password_last_used"),
			MFAActive:          field(record, "mfa_active"),
			AccessKey1Active:   field(record, "access_key_1_active"),
			AccessKey1Created:  field(record, "access_key_1_last_rotated"),
			AccessKey1LastUsed: field(record, "access_key_1_last_used_date"),
			AccessKey2Active:   field(record, "access_key_2_active"),
			AccessKey2Created:  field(record, "access_key_2_last_rotated"),
			AccessKey2LastUsed: field(record, "access_key_2_last_used_date"),
		})
	}
	return rows, nil
}
