// Package identity implements the identity-directory client used by every
// audit check: IAM users, roles, groups, policies, tags, the account
// credential report, and S3 bucket policies.
package identity

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// iamAPIClient is the narrow IAM interface used by the identity directory.
// It embeds the SDK paginator interfaces so List* paginators can be used
// directly.
type iamAPIClient interface {
	iamsvc.ListUsersAPIClient
	iamsvc.ListRolesAPIClient
	iamsvc.ListPoliciesAPIClient

	GetRole(ctx context.Context, params *iamsvc.GetRoleInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetRoleOutput, error)
	GetPolicyVersion(ctx context.Context, params *iamsvc.GetPolicyVersionInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetPolicyVersionOutput, error)
	GetAccountPasswordPolicy(ctx context.Context, params *iamsvc.GetAccountPasswordPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetAccountPasswordPolicyOutput, error)

	ListGroupsForUser(ctx context.Context, params *iamsvc.ListGroupsForUserInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListGroupsForUserOutput, error)
	ListUserTags(ctx context.Context, params *iamsvc.ListUserTagsInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListUserTagsOutput, error)
	ListRoleTags(ctx context.Context, params *iamsvc.ListRoleTagsInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListRoleTagsOutput, error)

	ListUserPolicies(ctx context.Context, params *iamsvc.ListUserPoliciesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListUserPoliciesOutput, error)
	GetUserPolicy(ctx context.Context, params *iamsvc.GetUserPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetUserPolicyOutput, error)
	ListRolePolicies(ctx context.Context, params *iamsvc.ListRolePoliciesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListRolePoliciesOutput, error)
	GetRolePolicy(ctx context.Context, params *iamsvc.GetRolePolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetRolePolicyOutput, error)

	ListAttachedUserPolicies(ctx context.Context, params *iamsvc.ListAttachedUserPoliciesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListAttachedUserPoliciesOutput, error)
	ListAttachedRolePolicies(ctx context.Context, params *iamsvc.ListAttachedRolePoliciesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListAttachedRolePoliciesOutput, error)
	ListAttachedGroupPolicies(ctx context.Context, params *iamsvc.ListAttachedGroupPoliciesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListAttachedGroupPoliciesOutput, error)

	GenerateCredentialReport(ctx context.Context, params *iamsvc.GenerateCredentialReportInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GenerateCredentialReportOutput, error)
	GetCredentialReport(ctx context.Context, params *iamsvc.GetCredentialReportInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetCredentialReportOutput, error)
}

// s3APIClient is the narrow S3 interface used for bucket-policy auditing.
type s3APIClient interface {
	ListBuckets(ctx context.Context, params *s3svc.ListBucketsInput, optFns ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error)
	GetBucketPolicy(ctx context.Context, params *s3svc.GetBucketPolicyInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketPolicyOutput, error)
}

// dirClients bundles the service clients used by the identity directory.
type dirClients struct {
	IAM iamAPIClient
	S3  s3APIClient
}

// dirClientFactory creates dirClients from an AWS config.
// Injection point: tests replace this with a function returning fake clients.
type dirClientFactory func(cfg aws.Config) *dirClients

// newDefaultDirClients creates production AWS SDK clients from the given config.
func newDefaultDirClients(cfg aws.Config) *dirClients {
	return &dirClients{
		IAM: iamsvc.NewFromConfig(cfg),
		S3:  s3svc.NewFromConfig(cfg),
	}
}
