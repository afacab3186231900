package discover

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	parameters map[string]string
	// failures overrides specific parameter names with an error.
	failures map[string]error
}

func (f *fakeSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(params.Name)
	if err, ok := f.failures[name]; ok {
		return nil, err
	}
	value, ok := f.parameters[name]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{Message: aws.String(name)}
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: aws.String(value)},
	}, nil
}

type fakeEC2 struct {
	instances map[string]ec2types.Instance
}

func (f *fakeEC2) DescribeInstances(_ context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	var found []ec2types.Instance
	for _, id := range params.InstanceIds {
		if inst, ok := f.instances[id]; ok {
			found = append(found, inst)
		}
	}
	if len(found) == 0 {
		return &ec2.DescribeInstancesOutput{}, nil
	}
	return &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: found}},
	}, nil
}

type fakeELBV2 struct {
	groups map[string][]elbv2types.TargetHealthDescription
}

func (f *fakeELBV2) DescribeTargetGroups(context.Context, *elasticloadbalancingv2.DescribeTargetGroupsInput, ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetGroupsOutput, error) {
	out := &elasticloadbalancingv2.DescribeTargetGroupsOutput{}
	for name := range f.groups {
		out.TargetGroups = append(out.TargetGroups, elbv2types.TargetGroup{
			TargetGroupArn:  aws.String("arn:aws:elasticloadbalancing:ap-southeast-2:123456789012:targetgroup/" + name),
			TargetGroupName: aws.String(name),
		})
	}
	return out, nil
}

func (f *fakeELBV2) DescribeTargetHealth(_ context.Context, params *elasticloadbalancingv2.DescribeTargetHealthInput, _ ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetHealthOutput, error) {
	for name, descriptions := range f.groups {
		if aws.ToString(params.TargetGroupArn) == "arn:aws:elasticloadbalancing:ap-southeast-2:123456789012:targetgroup/"+name {
			return &elasticloadbalancingv2.DescribeTargetHealthOutput{TargetHealthDescriptions: descriptions}, nil
		}
	}
	return &elasticloadbalancingv2.DescribeTargetHealthOutput{}, nil
}

type fakeSecrets struct {
	secrets map[string]string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	value, ok := f.secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, fmt.Errorf("ResourceNotFoundException: %s", aws.ToString(params.SecretId))
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(value)}, nil
}

func TestLookupReadsDeploymentMarkers(t *testing.T) {
	client := &Client{SSM: &fakeSSM{parameters: map[string]string{
		"/rems/instance-id": "i-0abc123",
		"/rems/public-url":  "https://rems.test.example.org/",
		"/rems/secret-name": "rems/oidc-credentials",
	}}}

	deployment, err := client.Lookup(context.Background(), "rems")
	require.NoError(t, err)
	assert.Equal(t, "i-0abc123", deployment.InstanceID)
	assert.Equal(t, "https://rems.test.example.org/", deployment.PublicURL)
	assert.Equal(t, "rems/oidc-credentials", deployment.SecretName)
}

func TestLookupToleratesMissingSecretMarker(t *testing.T) {
	client := &Client{SSM: &fakeSSM{parameters: map[string]string{
		"/rems/instance-id": "i-0abc123",
		"/rems/public-url":  "https://rems.test.example.org/",
	}}}

	deployment, err := client.Lookup(context.Background(), "rems")
	require.NoError(t, err)
	assert.Empty(t, deployment.SecretName)
}

// Only ParameterNotFound means a secrets-free stack; any other failure on
// the secret marker must surface instead of masquerading as "no secret".
func TestLookupPropagatesSecretMarkerReadFailures(t *testing.T) {
	client := &Client{SSM: &fakeSSM{
		parameters: map[string]string{
			"/rems/instance-id": "i-0abc123",
			"/rems/public-url":  "https://rems.test.example.org/",
		},
		failures: map[string]error{
			"/rems/secret-name": fmt.Errorf("AccessDeniedException: not authorized to perform ssm:GetParameter"),
		},
	}}

	_, err := client.Lookup(context.Background(), "rems")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDeniedException")
}

func TestLookupFailsWithoutInstanceMarker(t *testing.T) {
	client := &Client{SSM: &fakeSSM{parameters: map[string]string{}}}

	_, err := client.Lookup(context.Background(), "rems")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/rems/instance-id")
}

func TestInstanceStatus(t *testing.T) {
	launched := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	client := &Client{EC2: &fakeEC2{instances: map[string]ec2types.Instance{
		"i-0abc123": {
			InstanceId:       aws.String("i-0abc123"),
			InstanceType:     ec2types.InstanceTypeT2Medium,
			State:            &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
			Placement:        &ec2types.Placement{AvailabilityZone: aws.String("ap-southeast-2a")},
			PrivateIpAddress: aws.String("10.0.0.17"),
			LaunchTime:       aws.Time(launched),
		},
	}}}

	status, err := client.InstanceStatus(context.Background(), "i-0abc123")
	require.NoError(t, err)
	assert.Equal(t, "running", status.State)
	assert.Equal(t, "t2.medium", status.InstanceType)
	assert.Equal(t, "ap-southeast-2a", status.AvailabilityZone)
	assert.Equal(t, "10.0.0.17", status.PrivateIP)
	assert.Equal(t, launched, status.LaunchTime)
}

func TestInstanceStatusNotFound(t *testing.T) {
	client := &Client{EC2: &fakeEC2{instances: map[string]ec2types.Instance{}}}

	_, err := client.InstanceStatus(context.Background(), "i-gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instance not found")
}

func TestTargetHealthForInstanceFiltersOtherTargets(t *testing.T) {
	client := &Client{ELBV2: &fakeELBV2{groups: map[string][]elbv2types.TargetHealthDescription{
		"rems-tg": {
			{
				Target:       &elbv2types.TargetDescription{Id: aws.String("i-0abc123")},
				TargetHealth: &elbv2types.TargetHealth{State: elbv2types.TargetHealthStateEnumHealthy},
			},
			{
				Target:       &elbv2types.TargetDescription{Id: aws.String("i-other")},
				TargetHealth: &elbv2types.TargetHealth{State: elbv2types.TargetHealthStateEnumUnhealthy},
			},
		},
		"unrelated-tg": {
			{
				Target:       &elbv2types.TargetDescription{Id: aws.String("i-other")},
				TargetHealth: &elbv2types.TargetHealth{State: elbv2types.TargetHealthStateEnumHealthy},
			},
		},
	}}}

	health, err := client.TargetHealthForInstance(context.Background(), "i-0abc123")
	require.NoError(t, err)
	require.Len(t, health, 1)
	assert.Equal(t, "rems-tg", health[0].TargetGroupName)
	assert.Equal(t, "healthy", health[0].State)
}

func TestCheckSecret(t *testing.T) {
	client := &Client{Secrets: &fakeSecrets{secrets: map[string]string{
		"rems/oidc-credentials": `{
			"oidc-metadata-url": "https://issuer.example.org/.well-known/openid-configuration",
			"oidc-client-id": "rems-client",
			"oidc-client-secret": "s3cret"
		}`,
	}}}

	names, err := client.CheckSecret(context.Background(), "rems/oidc-credentials")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"OIDC_METADATA_URL", "OIDC_CLIENT_ID", "OIDC_CLIENT_SECRET"}, names)
}

func TestCheckSecretRejectsIncompletePayload(t *testing.T) {
	client := &Client{Secrets: &fakeSecrets{secrets: map[string]string{
		"rems/oidc-credentials": `{"oidc-client-id": "rems-client"}`,
	}}}

	_, err := client.CheckSecret(context.Background(), "rems/oidc-credentials")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not satisfy the bootstrap contract")
}
