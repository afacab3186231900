package discover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/australianbiocommons/pulumi-aws-rems/pkg/rems/bootstrap"
)

// Deployment holds the markers a stack persists for discovery.
type Deployment struct {
	InstanceID string
	PublicURL  string
	// SecretName is empty when the stack was deployed without secrets.
	SecretName string
}

// InstanceStatus is the runtime state of the application instance.
type InstanceStatus struct {
	InstanceID       string
	State            string
	InstanceType     string
	AvailabilityZone string
	PrivateIP        string
	LaunchTime       time.Time
}

// TargetHealth is one target group's view of the instance.
type TargetHealth struct {
	TargetGroupName string
	State           string
	Reason          string
}

// Lookup reads the discovery parameters persisted under /<prefix>/.
func (c *Client) Lookup(ctx context.Context, prefix string) (*Deployment, error) {
	instanceID, err := c.parameter(ctx, "/"+prefix+"/instance-id")
	if err != nil {
		return nil, err
	}
	publicURL, err := c.parameter(ctx, "/"+prefix+"/public-url")
	if err != nil {
		return nil, err
	}
	// Optional: not written by secrets-free stacks. Only a missing parameter
	// means "no secret"; auth or throttling failures propagate.
	secretName, err := c.parameter(ctx, "/"+prefix+"/secret-name")
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
		secretName = ""
	}

	return &Deployment{
		InstanceID: instanceID,
		PublicURL:  publicURL,
		SecretName: secretName,
	}, nil
}

// InstanceStatus describes the instance the markers point at.
func (c *Client) InstanceStatus(ctx context.Context, instanceID string) (*InstanceStatus, error) {
	out, err := c.EC2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instance %s: %w", instanceID, err)
	}
	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return nil, fmt.Errorf("instance not found: %s", instanceID)
	}

	inst := out.Reservations[0].Instances[0]
	status := &InstanceStatus{
		InstanceID:   instanceID,
		InstanceType: string(inst.InstanceType),
	}
	if inst.State != nil {
		status.State = string(inst.State.Name)
	}
	if inst.Placement != nil {
		status.AvailabilityZone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	status.PrivateIP = aws.ToString(inst.PrivateIpAddress)
	if inst.LaunchTime != nil {
		status.LaunchTime = *inst.LaunchTime
	}
	return status, nil
}

// TargetHealthForInstance reports every target group that carries the
// instance as a target, with its health state. A classic-LB deployment has
// no target groups; the result is empty then.
func (c *Client) TargetHealthForInstance(ctx context.Context, instanceID string) ([]TargetHealth, error) {
	groups, err := c.ELBV2.DescribeTargetGroups(ctx, &elasticloadbalancingv2.DescribeTargetGroupsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list target groups: %w", err)
	}

	var health []TargetHealth
	for _, group := range groups.TargetGroups {
		out, err := c.ELBV2.DescribeTargetHealth(ctx, &elasticloadbalancingv2.DescribeTargetHealthInput{
			TargetGroupArn: group.TargetGroupArn,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe target health for %s: %w", aws.ToString(group.TargetGroupName), err)
		}
		for _, desc := range out.TargetHealthDescriptions {
			if desc.Target == nil || aws.ToString(desc.Target.Id) != instanceID {
				continue
			}
			entry := TargetHealth{TargetGroupName: aws.ToString(group.TargetGroupName)}
			if desc.TargetHealth != nil {
				entry.State = string(desc.TargetHealth.State)
				entry.Reason = string(desc.TargetHealth.Reason)
			}
			health = append(health, entry)
		}
	}
	return health, nil
}

// CheckSecret fetches the named secret and verifies it satisfies the
// bootstrap contract. It returns the environment variable names the boot
// script would export; values stay inside the secret.
func (c *Client) CheckSecret(ctx context.Context, secretName string) ([]string, error) {
	out, err := c.Secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch secret %q: %w", secretName, err)
	}

	env, err := bootstrap.EnvFromSecretJSON([]byte(aws.ToString(out.SecretString)))
	if err != nil {
		return nil, fmt.Errorf("secret %q does not satisfy the bootstrap contract: %w", secretName, err)
	}

	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	return names, nil
}

func (c *Client) parameter(ctx context.Context, name string) (string, error) {
	out, err := c.SSM.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return *out.Parameter.Value, nil
}
