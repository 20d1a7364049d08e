package transport

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// AWSDefaultConfigLoader is overridable in tests.
var AWSDefaultConfigLoader = awsconfig.LoadDefaultConfig

// AWSSettings carries the handful of AWS knobs JungleBus's ConfigBuilder
// exposes: region, an optional LocalStack-style endpoint override, and
// optional static credentials.
type AWSSettings struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// LoadAWSConfig resolves an aws.Config from the supplied settings, falling
// back to the SDK's standard credential chain when no static credentials
// are given.
func LoadAWSConfig(ctx context.Context, settings AWSSettings) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if settings.Region != "" {
		opts = append(opts, awsconfig.WithRegion(settings.Region))
	}
	if settings.AccessKeyID != "" && settings.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey)))
	}

	cfg, err := AWSDefaultConfigLoader(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	if settings.Region != "" {
		cfg.Region = settings.Region
	}
	if settings.Endpoint != "" {
		cfg.BaseEndpoint = aws.String(settings.Endpoint)
	}

	return cfg, nil
}

func staticCredentialsProvider(accessKeyID, secretAccessKey string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
		}, nil
	})
}
