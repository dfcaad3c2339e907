package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/devsec-tools/iamaudit/internal/models"
)

// Directory is the production identity-directory client. It wraps the IAM
// and S3 SDK clients behind typed methods returning plain model structs, so
// checks never touch SDK types directly.
type Directory struct {
	clients *dirClients
}

// NewDirectory returns a Directory wired to production AWS SDK clients.
func NewDirectory(cfg aws.Config) *Directory {
	return &Directory{clients: newDefaultDirClients(cfg)}
}

// NewDirectoryWithFactory returns a Directory that uses the supplied factory,
// allowing tests to inject fake clients.
func NewDirectoryWithFactory(cfg aws.Config, f dirClientFactory) *Directory {
	return &Directory{clients: f(cfg)}
}

// Users lists every IAM user in the account. The ListUsers paginator handles
// accounts with many users.
func (d *Directory) Users(ctx context.Context) ([]models.UserSummary, error) {
	paginator := iamsvc.NewListUsersPaginator(d.clients.IAM, &iamsvc.ListUsersInput{})
	var users []models.UserSummary
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list IAM users: %w", err)
		}
		for _, u := range page.Users {
			users = append(users, models.UserSummary{
				Name: aws.ToString(u.UserName),
				ARN:  aws.ToString(u.Arn),
			})
		}
	}
	return users, nil
}

// Roles lists every IAM role in the account.
func (d *Directory) Roles(ctx context.Context) ([]models.RoleSummary, error) {
	paginator := iamsvc.NewListRolesPaginator(d.clients.IAM, &iamsvc.ListRolesInput{})
	var roles []models.RoleSummary
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list IAM roles: %w", err)
		}
		for _, r := range page.Roles {
			role := models.RoleSummary{
				Name: aws.ToString(r.RoleName),
				ARN:  aws.ToString(r.Arn),
				Path: aws.ToString(r.Path),
			}
			if r.CreateDate != nil {
				role.CreateDate = *r.CreateDate
			}
			roles = append(roles, role)
		}
	}
	return roles, nil
}

// RoleDetail fetches the expanded view of one role: path, max session
// duration, trust policy, and last-used date.
func (d *Directory) RoleDetail(ctx context.Context, roleName string) (*models.RoleDetail, error) {
	out, err := d.clients.IAM.GetRole(ctx, &iamsvc.GetRoleInput{RoleName: aws.String(roleName)})
	if err != nil {
		return nil, fmt.Errorf("get role %q: %w", roleName, err)
	}
	role := out.Role
	detail := &models.RoleDetail{
		Name:        aws.ToString(role.RoleName),
		Path:        aws.ToString(role.Path),
		TrustPolicy: aws.ToString(role.AssumeRolePolicyDocument),
	}
	if role.MaxSessionDuration != nil {
		detail.MaxSessionDuration = *role.MaxSessionDuration
	}
	if role.RoleLastUsed != nil && role.RoleLastUsed.LastUsedDate != nil {
		t := *role.RoleLastUsed.LastUsedDate
		detail.LastUsedDate = &t
	}
	return detail, nil
}

// GroupsForUser returns the names of every group the user belongs to.
func (d *Directory) GroupsForUser(ctx context.Context, userName string) ([]string, error) {
	out, err := d.clients.IAM.ListGroupsForUser(ctx, &iamsvc.ListGroupsForUserInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		return nil, fmt.Errorf("list groups for user %q: %w", userName, err)
	}
	groups := make([]string, 0, len(out.Groups))
	for _, g := range out.Groups {
		groups = append(groups, aws.ToString(g.GroupName))
	}
	return groups, nil
}

// UserTags returns the user's tags as a plain map.
func (d *Directory) UserTags(ctx context.Context, userName string) (map[string]string, error) {
	out, err := d.clients.IAM.ListUserTags(ctx, &iamsvc.ListUserTagsInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		return nil, fmt.Errorf("list tags for user %q: %w", userName, err)
	}
	return tagMap(out.Tags), nil
}

// RoleTags returns the role's tags as a plain map.
func (d *Directory) RoleTags(ctx context.Context, roleName string) (map[string]string, error) {
	out, err := d.clients.IAM.ListRoleTags(ctx, &iamsvc.ListRoleTagsInput{
		RoleName: aws.String(roleName),
	})
	if err != nil {
		return nil, fmt.Errorf("list tags for role %q: %w", roleName, err)
	}
	return tagMap(out.Tags), nil
}

func tagMap(tags []iamtypes.Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return m
}

// CustomerManagedPolicies lists customer-managed policies (Scope=Local) with
// their default version IDs.
func (d *Directory) CustomerManagedPolicies(ctx context.Context) ([]models.ManagedPolicySummary, error) {
	paginator := iamsvc.NewListPoliciesPaginator(d.clients.IAM, &iamsvc.ListPoliciesInput{
		Scope: iamtypes.PolicyScopeTypeLocal,
	})
	var policies []models.ManagedPolicySummary
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list customer managed policies: %w", err)
		}
		for _, p := range page.Policies {
			summary := models.ManagedPolicySummary{
				Name:             aws.ToString(p.PolicyName),
				ARN:              aws.ToString(p.Arn),
				DefaultVersionID: aws.ToString(p.DefaultVersionId),
			}
			if p.AttachmentCount != nil {
				summary.AttachmentCount = *p.AttachmentCount
			}
			policies = append(policies, summary)
		}
	}
	return policies, nil
}

// PolicyDocument fetches the given version of a managed policy. The returned
// document is URL-encoded, as the IAM API delivers it; callers decode it with
// policydoc.ParseEncoded.
func (d *Directory) PolicyDocument(ctx context.Context, policyARN, versionID string) (string, error) {
	out, err := d.clients.IAM.GetPolicyVersion(ctx, &iamsvc.GetPolicyVersionInput{
		PolicyArn: aws.String(policyARN),
		VersionId: aws.String(versionID),
	})
	if err != nil {
		return "", fmt.Errorf("get policy version %s@%s: %w", policyARN, versionID, err)
	}
	if out.PolicyVersion == nil {
		return "", fmt.Errorf("get policy version %s@%s: empty response", policyARN, versionID)
	}
	return aws.ToString(out.PolicyVersion.Document), nil
}

// InlineUserPolicies fetches every inline policy document for a user.
func (d *Directory) InlineUserPolicies(ctx context.Context, userName string) ([]models.InlinePolicy, error) {
	names, err := d.clients.IAM.ListUserPolicies(ctx, &iamsvc.ListUserPoliciesInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		return nil, fmt.Errorf("list inline policies for user %q: %w", userName, err)
	}
	policies := make([]models.InlinePolicy, 0, len(names.PolicyNames))
	for _, name := range names.PolicyNames {
		out, err := d.clients.IAM.GetUserPolicy(ctx, &iamsvc.GetUserPolicyInput{
			UserName:   aws.String(userName),
			PolicyName: aws.String(name),
		})
		if err != nil {
			return nil, fmt.Errorf("get inline policy %q for user %q: %w", name, userName, err)
		}
		policies = append(policies, models.InlinePolicy{
			Name:     name,
			Document: aws.ToString(out.PolicyDocument),
		})
	}
	return policies, nil
}

// InlineRolePolicies fetches every inline policy document for a role.
func (d *Directory) InlineRolePolicies(ctx context.Context, roleName string) ([]models.InlinePolicy, error) {
	names, err := d.clients.IAM.ListRolePolicies(ctx, &iamsvc.ListRolePoliciesInput{
		RoleName: aws.String(roleName),
	})
	if err != nil {
		return nil, fmt.Errorf("list inline policies for role %q: %w", roleName, err)
	}
	policies := make([]models.InlinePolicy, 0, len(names.PolicyNames))
	for _, name := range names.PolicyNames {
		out, err := d.clients.IAM.GetRolePolicy(ctx, &iamsvc.GetRolePolicyInput{
			RoleName:   aws.String(roleName),
			PolicyName: aws.String(name),
		})
		if err != nil {
			return nil, fmt.Errorf("get inline policy %q for role %q: %w", name, roleName, err)
		}
		policies = append(policies, models.InlinePolicy{
			Name:     name,
			Document: aws.ToString(out.PolicyDocument),
		})
	}
	return policies, nil
}

// AttachedUserPolicies lists managed policies attached directly to a user.
func (d *Directory) AttachedUserPolicies(ctx context.Context, userName string) ([]models.AttachedPolicy, error) {
	out, err := d.clients.IAM.ListAttachedUserPolicies(ctx, &iamsvc.ListAttachedUserPoliciesInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		return nil, fmt.Errorf("list attached policies for user %q: %w", userName, err)
	}
	return attachedPolicies(out.AttachedPolicies), nil
}

// AttachedRolePolicies lists managed policies attached to a role.
func (d *Directory) AttachedRolePolicies(ctx context.Context, roleName string) ([]models.AttachedPolicy, error) {
	out, err := d.clients.IAM.ListAttachedRolePolicies(ctx, &iamsvc.ListAttachedRolePoliciesInput{
		RoleName: aws.String(roleName),
	})
	if err != nil {
		return nil, fmt.Errorf("list attached policies for role %q: %w", roleName, err)
	}
	return attachedPolicies(out.AttachedPolicies), nil
}

// AttachedGroupPolicies lists managed policies attached to a group.
func (d *Directory) AttachedGroupPolicies(ctx context.Context, groupName string) ([]models.AttachedPolicy, error) {
	out, err := d.clients.IAM.ListAttachedGroupPolicies(ctx, &iamsvc.ListAttachedGroupPoliciesInput{
		GroupName: aws.String(groupName),
	})
	if err != nil {
		return nil, fmt.Errorf("list attached policies for group %q: %w", groupName, err)
	}
	return attachedPolicies(out.AttachedPolicies), nil
}

func attachedPolicies(raw []iamtypes.AttachedPolicy) []models.AttachedPolicy {
	out := make([]models.AttachedPolicy, 0, len(raw))
	for _, p := range raw {
		out = append(out, models.AttachedPolicy{
			Name: aws.ToString(p.PolicyName),
			ARN:  aws.ToString(p.PolicyArn),
		})
	}
	return out
}

// AccountPasswordPolicy fetches the account password policy. An account with
// no policy configured returns Present=false with a nil error; it is a
// finding for the password-policy check, not an error path.
func (d *Directory) AccountPasswordPolicy(ctx context.Context) (models.PasswordPolicy, error) {
	out, err := d.clients.IAM.GetAccountPasswordPolicy(ctx, &iamsvc.GetAccountPasswordPolicyInput{})
	if err != nil {
		var notFound *iamtypes.NoSuchEntityException
		if errors.As(err, &notFound) {
			return models.PasswordPolicy{Present: false}, nil
		}
		return models.PasswordPolicy{}, fmt.Errorf("get account password policy: %w", err)
	}
	p := out.PasswordPolicy
	policy := models.PasswordPolicy{
		Present:          true,
		RequireSymbols:   p.RequireSymbols,
		RequireNumbers:   p.RequireNumbers,
		RequireUppercase: p.RequireUppercaseCharacters,
		RequireLowercase: p.RequireLowercaseCharacters,
	}
	if p.MinimumPasswordLength != nil {
		policy.MinimumLength = *p.MinimumPasswordLength
	}
	return policy, nil
}

// Buckets lists the names of every S3 bucket in the account.
func (d *Directory) Buckets(ctx context.Context) ([]string, error) {
	out, err := d.clients.S3.ListBuckets(ctx, &s3svc.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("list S3 buckets: %w", err)
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

// BucketPolicy fetches a bucket's resource policy as plain JSON. A bucket
// without a policy (NoSuchBucketPolicy) returns an empty string with a nil
// error; buckets without policies are simply not auditable for cross-account
// access.
func (d *Directory) BucketPolicy(ctx context.Context, bucket string) (string, error) {
	out, err := d.clients.S3.GetBucketPolicy(ctx, &s3svc.GetBucketPolicyInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucketPolicy" {
			return "", nil
		}
		return "", fmt.Errorf("get bucket policy for %q: %w", bucket, err)
	}
	return aws.ToString(out.Policy), nil
}
