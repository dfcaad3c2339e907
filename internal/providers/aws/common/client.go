package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProfileConfig is a resolved AWS profile with its SDK configuration and
// initialised service clients. It is the unit passed between provider
// functions and into the engine.
type ProfileConfig struct {
	// ProfileName is the name from ~/.aws/credentials or "default".
	ProfileName string

	// AccountID is the resolved AWS account ID for this profile (via STS).
	AccountID string

	// Region is the target region for this profile configuration.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration, including any
	// alternate endpoint override for local or simulated testing.
	Config aws.Config

	// Clients holds initialised account-level service clients.
	Clients *ClientSet
}

// LoadOptions configures profile loading.
type LoadOptions struct {
	// Profile is the named AWS profile. Empty means the default profile.
	Profile string

	// Region overrides the profile's configured region when non-empty.
	Region string

	// EndpointURL points all service clients at an alternate API endpoint
	// (for local or simulated testing). Empty means the real AWS endpoints.
	EndpointURL string
}

// AWSClientProvider loads AWS configurations and resolves the caller account.
// It is the sole entry point for AWS credential management across the
// provider layer.
//
// Implementations must use the AWS SDK v2 only. Never call the aws CLI.
type AWSClientProvider interface {
	// LoadProfile returns a ProfileConfig for the given options.
	LoadProfile(ctx context.Context, opts LoadOptions) (*ProfileConfig, error)
}
