// Package discover reads the deployment markers a stack persists in SSM
// Parameter Store and resolves them against the live AWS account: instance
// state, target health and the OIDC secret contract.
package discover

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMAPI is the slice of the SSM client the discoverer uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// EC2API is the slice of the EC2 client the discoverer uses.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// ELBV2API is the slice of the ELBv2 client the discoverer uses.
type ELBV2API interface {
	DescribeTargetGroups(ctx context.Context, params *elasticloadbalancingv2.DescribeTargetGroupsInput, optFns ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetGroupsOutput, error)
	DescribeTargetHealth(ctx context.Context, params *elasticloadbalancingv2.DescribeTargetHealthInput, optFns ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetHealthOutput, error)
}

// SecretsAPI is the slice of the Secrets Manager client the discoverer uses.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Client bundles the AWS service clients behind the narrow interfaces above
// so tests can substitute fakes.
type Client struct {
	SSM     SSMAPI
	EC2     EC2API
	ELBV2   ELBV2API
	Secrets SecretsAPI

	profile string
	region  string
}

// Option customizes the Client.
type Option func(*Client)

// WithProfile sets the AWS shared-config profile.
func WithProfile(profile string) Option {
	return func(c *Client) {
		c.profile = profile
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(c *Client) {
		c.region = region
	}
}

// NewClient loads the AWS configuration and builds the service clients.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	var configOpts []func(*config.LoadOptions) error
	if c.profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(c.profile))
	}
	if c.region != "" {
		configOpts = append(configOpts, config.WithRegion(c.region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	c.SSM = ssm.NewFromConfig(cfg)
	c.EC2 = ec2.NewFromConfig(cfg)
	c.ELBV2 = elasticloadbalancingv2.NewFromConfig(cfg)
	c.Secrets = secretsmanager.NewFromConfig(cfg)

	return c, nil
}
