// Package escalation matches normalized policy statements against a static
// catalog of known privilege-escalation patterns.
package escalation

import "github.com/devsec-tools/iamaudit/internal/policydoc"

// Pattern is one catalog entry: a named combination of IAM actions that,
// granted together on all resources, allows escalating to broader privileges.
type Pattern struct {
	Name            string
	RequiredActions policydoc.StringSet
	Description     string
	RiskScore       int
}

// DefaultCatalog returns the built-in escalation pattern catalog.
// Matching is exact string-set containment: a statement granting "*" does not
// satisfy a pattern requiring "iam:*" or any specific action, only the
// FullAdministrator pattern whose required action is the literal "*".
func DefaultCatalog() []Pattern {
	return []Pattern{
		{
			Name:            "FullAdministrator",
			RequiredActions: policydoc.NewStringSet("*"),
			Description:     "Statement grants every action on every resource.",
			RiskScore:       10,
		},
		{
			Name:            "IAMFullAccess",
			RequiredActions: policydoc.NewStringSet("iam:*"),
			Description:     "Full IAM access allows granting any permission to any principal.",
			RiskScore:       10,
		},
		{
			Name:            "CreateUserAndAttachPolicy",
			RequiredActions: policydoc.NewStringSet("iam:CreateUser", "iam:AttachUserPolicy"),
			Description:     "Can create a new user and attach an arbitrary managed policy to it.",
			RiskScore:       9,
		},
		{
			Name:            "CreateAccessKeyForAnyUser",
			RequiredActions: policydoc.NewStringSet("iam:CreateAccessKey"),
			Description:     "Can mint access keys for other users, including privileged ones.",
			RiskScore:       9,
		},
		{
			Name:            "UpdateAssumeRolePolicy",
			RequiredActions: policydoc.NewStringSet("iam:UpdateAssumeRolePolicy", "sts:AssumeRole"),
			Description:     "Can rewrite a role's trust policy and then assume that role.",
			RiskScore:       9,
		},
		{
			Name:            "PassRoleAndLambda",
			RequiredActions: policydoc.NewStringSet("iam:PassRole", "lambda:CreateFunction", "lambda:InvokeFunction"),
			Description:     "Can create and invoke a Lambda function running as a more privileged role.",
			RiskScore:       8,
		},
		{
			Name:            "PassRoleAndEC2",
			RequiredActions: policydoc.NewStringSet("iam:PassRole", "ec2:RunInstances"),
			Description:     "Can launch an EC2 instance with a more privileged instance profile.",
			RiskScore:       8,
		},
	}
}
