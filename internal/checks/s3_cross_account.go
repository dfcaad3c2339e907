package checks

import (
	"context"
	"fmt"

	"github.com/devsec-tools/iamaudit/internal/models"
	"github.com/devsec-tools/iamaudit/internal/policydoc"
)

// S3CrossAccountCheck flags buckets whose policy allows a wildcard principal
// without any condition. A missing bucket policy and every fetch or parse
// error are swallowed silently: this check degrades to "no findings" rather
// than failing the run.
type S3CrossAccountCheck struct{}

func (c S3CrossAccountCheck) ID() string   { return "S3_CROSS_ACCOUNT_ACCESS" }
func (c S3CrossAccountCheck) Name() string { return "Public Bucket Policies" }

func (c S3CrossAccountCheck) Run(ctx context.Context, env *Env, run *AuditRun) error {
	buckets, err := env.Directory.Buckets(ctx)
	if err != nil {
		env.Log().Warn("bucket listing failed", "error", err)
		return nil
	}

	for _, bucket := range buckets {
		raw, err := env.Directory.BucketPolicy(ctx, bucket)
		if err != nil {
			env.Log().Debug("bucket policy fetch failed", "bucket", bucket, "error", err)
			continue
		}
		if raw == "" {
			continue
		}
		doc, err := policydoc.Parse(raw)
		if err != nil {
			env.Log().Debug("bucket policy parse failed", "bucket", bucket, "error", err)
			continue
		}

		if !hasUnconditionalPublicStatement(doc) {
			continue
		}
		run.AddFinding(newFinding(env, c.ID(), models.SeverityCritical, 0,
			models.PrincipalS3Bucket, bucket, bucket,
			fmt.Sprintf("Bucket %q allows a wildcard principal without any condition.", bucket),
			"Restrict the bucket policy to known principals or add limiting conditions."))
	}
	return nil
}

// hasUnconditionalPublicStatement reports whether any Allow statement has a
// wildcard principal ("*" or {"AWS":"*"}) and no Condition block.
func hasUnconditionalPublicStatement(doc *policydoc.Document) bool {
	for _, stmt := range doc.Statements() {
		if !stmt.IsAllow() {
			continue
		}
		if !stmt.HasWildcardPrincipal() {
			continue
		}
		if stmt.HasCondition() {
			continue
		}
		return true
	}
	return false
}
