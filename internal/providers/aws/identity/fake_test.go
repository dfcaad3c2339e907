package identity

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// inlineDoc is a named inline policy document held by the fake.
type inlineDoc struct {
	Name string
	Doc  string
}

// fakeIAM is an in-memory iamAPIClient. Zero value answers every call with
// empty results; tests populate only the fields the method under test reads.
type fakeIAM struct {
	users    []iamtypes.User
	roles    []iamtypes.Role
	details  map[string]iamtypes.Role
	groups   map[string][]iamtypes.Group
	userTags map[string][]iamtypes.Tag
	roleTags map[string][]iamtypes.Tag

	policies   []iamtypes.Policy
	policyDocs map[string]string

	inlineUser map[string][]inlineDoc
	inlineRole map[string][]inlineDoc

	attachedUser  map[string][]iamtypes.AttachedPolicy
	attachedRole  map[string][]iamtypes.AttachedPolicy
	attachedGroup map[string][]iamtypes.AttachedPolicy

	passwordPolicy *iamtypes.PasswordPolicy

	// reportStates is consumed one per GenerateCredentialReport call; the
	// last entry repeats once exhausted.
	reportStates  []iamtypes.ReportStateType
	reportContent []byte
	generateCalls int
	getReportErr  error

	err error
}

func (f *fakeIAM) ListUsers(_ context.Context, _ *iamsvc.ListUsersInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListUsersOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &iamsvc.ListUsersOutput{Users: f.users}, nil
}

func (f *fakeIAM) ListRoles(_ context.Context, _ *iamsvc.ListRolesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListRolesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &iamsvc.ListRolesOutput{Roles: f.roles}, nil
}

func (f *fakeIAM) ListPolicies(_ context.Context, params *iamsvc.ListPoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListPoliciesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if params.Scope != iamtypes.PolicyScopeTypeLocal {
		return &iamsvc.ListPoliciesOutput{}, nil
	}
	return &iamsvc.ListPoliciesOutput{Policies: f.policies}, nil
}

func (f *fakeIAM) GetRole(_ context.Context, params *iamsvc.GetRoleInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetRoleOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	role, ok := f.details[aws.ToString(params.RoleName)]
	if !ok {
		return nil, &iamtypes.NoSuchEntityException{}
	}
	return &iamsvc.GetRoleOutput{Role: &role}, nil
}

func (f *fakeIAM) GetPolicyVersion(_ context.Context, params *iamsvc.GetPolicyVersionInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetPolicyVersionOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := aws.ToString(params.PolicyArn) + "@" + aws.ToString(params.VersionId)
	doc, ok := f.policyDocs[key]
	if !ok {
		return nil, &iamtypes.NoSuchEntityException{}
	}
	return &iamsvc.GetPolicyVersionOutput{
		PolicyVersion: &iamtypes.PolicyVersion{Document: aws.String(doc)},
	}, nil
}

func (f *fakeIAM) GetAccountPasswordPolicy(_ context.Context, _ *iamsvc.GetAccountPasswordPolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetAccountPasswordPolicyOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.passwordPolicy == nil {
		return nil, &iamtypes.NoSuchEntityException{}
	}
	return &iamsvc.GetAccountPasswordPolicyOutput{PasswordPolicy: f.passwordPolicy}, nil
}

func (f *fakeIAM) ListGroupsForUser(_ context.Context, params *iamsvc.ListGroupsForUserInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListGroupsForUserOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &iamsvc.ListGroupsForUserOutput{Groups: f.groups[aws.ToString(params.UserName)]}, nil
}

func (f *fakeIAM) ListUserTags(_ context.Context, params *iamsvc.ListUserTagsInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListUserTagsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &iamsvc.ListUserTagsOutput{Tags: f.userTags[aws.ToString(params.UserName)]}, nil
}

func (f *fakeIAM) ListRoleTags(_ context.Context, params *iamsvc.ListRoleTagsInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListRoleTagsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &iamsvc.ListRoleTagsOutput{Tags: f.roleTags[aws.ToString(params.RoleName)]}, nil
}

func (f *fakeIAM) ListUserPolicies(_ context.Context, params *iamsvc.ListUserPoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListUserPoliciesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	var names []string
	for _, p := range f.inlineUser[aws.ToString(params.UserName)] {
		names = append(names, p.Name)
	}
	return &iamsvc.ListUserPoliciesOutput{PolicyNames: names}, nil
}

func (f *fakeIAM) GetUserPolicy(_ context.Context, params *iamsvc.GetUserPolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetUserPolicyOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.inlineUser[aws.ToString(params.UserName)] {
		if p.Name == aws.ToString(params.PolicyName) {
			return &iamsvc.GetUserPolicyOutput{
				PolicyName:     params.PolicyName,
				PolicyDocument: aws.String(p.Doc),
			}, nil
		}
	}
	return nil, &iamtypes.NoSuchEntityException{}
}

func (f *fakeIAM) ListRolePolicies(_ context.Context, params *iamsvc.ListRolePoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListRolePoliciesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	var names []string
	for _, p := range f.inlineRole[aws.ToString(params.RoleName)] {
		names = append(names, p.Name)
	}
	return &iamsvc.ListRolePoliciesOutput{PolicyNames: names}, nil
}

func (f *fakeIAM) GetRolePolicy(_ context.Context, params *iamsvc.GetRolePolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetRolePolicyOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.inlineRole[aws.ToString(params.RoleName)] {
		if p.Name == aws.ToString(params.PolicyName) {
			return &iamsvc.GetRolePolicyOutput{
				PolicyName:     params.PolicyName,
				PolicyDocument: aws.String(p.Doc),
			}, nil
		}
	}
	return nil, &iamtypes.NoSuchEntityException{}
}

func (f *fakeIAM) ListAttachedUserPolicies(_ context.Context, params *iamsvc.ListAttachedUserPoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListAttachedUserPoliciesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &iamsvc.ListAttachedUserPoliciesOutput{
		AttachedPolicies: f.attachedUser[aws.ToString(params.UserName)],
	}, nil
}

func (f *fakeIAM) ListAttachedRolePolicies(_ context.Context, params *iamsvc.ListAttachedRolePoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListAttachedRolePoliciesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &iamsvc.ListAttachedRolePoliciesOutput{
		AttachedPolicies: f.attachedRole[aws.ToString(params.RoleName)],
	}, nil
}

func (f *fakeIAM) ListAttachedGroupPolicies(_ context.Context, params *iamsvc.ListAttachedGroupPoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListAttachedGroupPoliciesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &iamsvc.ListAttachedGroupPoliciesOutput{
		AttachedPolicies: f.attachedGroup[aws.ToString(params.GroupName)],
	}, nil
}

func (f *fakeIAM) GenerateCredentialReport(_ context.Context, _ *iamsvc.GenerateCredentialReportInput, _ ...func(*iamsvc.Options)) (*iamsvc.GenerateCredentialReportOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	state := iamtypes.ReportStateTypeComplete
	if len(f.reportStates) > 0 {
		i := f.generateCalls
		if i >= len(f.reportStates) {
			i = len(f.reportStates) - 1
		}
		state = f.reportStates[i]
	}
	f.generateCalls++
	return &iamsvc.GenerateCredentialReportOutput{State: state}, nil
}

func (f *fakeIAM) GetCredentialReport(_ context.Context, _ *iamsvc.GetCredentialReportInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetCredentialReportOutput, error) {
	if f.getReportErr != nil {
		return nil, f.getReportErr
	}
	return &iamsvc.GetCredentialReportOutput{Content: f.reportContent}, nil
}

// fakeS3 is an in-memory s3APIClient keyed by bucket name.
type fakeS3 struct {
	buckets  []string
	policies map[string]string
	err      error
}

func (f *fakeS3) ListBuckets(_ context.Context, _ *s3svc.ListBucketsInput, _ ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &s3svc.ListBucketsOutput{}
	for _, b := range f.buckets {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: aws.String(b)})
	}
	return out, nil
}

func (f *fakeS3) GetBucketPolicy(_ context.Context, params *s3svc.GetBucketPolicyInput, _ ...func(*s3svc.Options)) (*s3svc.GetBucketPolicyOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	policy, ok := f.policies[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &noSuchBucketPolicyError{}
	}
	return &s3svc.GetBucketPolicyOutput{Policy: aws.String(policy)}, nil
}

// noSuchBucketPolicyError mimics the S3 service error for a policy-less
// bucket; it satisfies smithy.APIError.
type noSuchBucketPolicyError struct{}

func (e *noSuchBucketPolicyError) Error() string        { return "NoSuchBucketPolicy: no policy" }
func (e *noSuchBucketPolicyError) ErrorCode() string    { return "NoSuchBucketPolicy" }
func (e *noSuchBucketPolicyError) ErrorMessage() string { return "The bucket policy does not exist" }
func (e *noSuchBucketPolicyError) ErrorFault() smithy.ErrorFault {
	return smithy.FaultClient
}

// newFakeDirectory builds a Directory over the given fakes via the client
// factory injection point.
func newFakeDirectory(iam *fakeIAM, s3 *fakeS3) *Directory {
	if iam == nil {
		iam = &fakeIAM{}
	}
	if s3 == nil {
		s3 = &fakeS3{}
	}
	return NewDirectoryWithFactory(aws.Config{}, func(aws.Config) *dirClients {
		return &dirClients{IAM: iam, S3: s3}
	})
}
