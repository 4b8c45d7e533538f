package gateway

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// NewAwsConfig loads the sdk's default credential chain. An empty region
// leaves region resolution to the chain (AWS_REGION, shared config, imds).
func NewAwsConfig(ctx context.Context, region string) (aws.Config, error) {

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	// no retries: a failed call becomes an error response
	opts = append(opts, awsconfig.WithRetryMaxAttempts(1))

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %v", err)
	}

	return cfg, nil
}
