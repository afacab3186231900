package aws

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/secretsmanager"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type instanceIdentity struct {
	role    *iam.Role
	profile *iam.InstanceProfile
}

// deployInstanceIdentity creates the execution role the instance assumes:
// SSM remote management, read access to the stack's discovery parameters,
// and (when secrets are enabled) read access to the one pre-provisioned
// Secrets Manager entry. The secret is referenced by name, never created.
func (r *RemsStack) deployInstanceIdentity(ctx *pulumi.Context, opts ...pulumi.ResourceOption) (*instanceIdentity, error) {
	role, err := iam.NewRole(ctx, r.newResourceName("instance-role", 64), &iam.RoleArgs{
		AssumeRolePolicy: pulumi.String(`{
			"Version": "2012-10-17",
			"Statement": [{
				"Action": "sts:AssumeRole",
				"Principal": {
					"Service": "ec2.amazonaws.com"
				},
				"Effect": "Allow"
			}]
		}`),
		Tags: r.resourceTags("instance-role"),
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = iam.NewRolePolicyAttachment(ctx, r.newResourceName("ssm-core", 255), &iam.RolePolicyAttachmentArgs{
		Role:      role.Name,
		PolicyArn: pulumi.String("arn:aws:iam::aws:policy/AmazonSSMManagedInstanceCore"),
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = iam.NewRolePolicy(ctx, r.newResourceName("parameter-read", 255), &iam.RolePolicyArgs{
		Role: role.Name,
		Policy: pulumi.String(fmt.Sprintf(`{
			"Version": "2012-10-17",
			"Statement": [{
				"Action": ["ssm:GetParameter"],
				"Effect": "Allow",
				"Resource": "arn:aws:ssm:*:*:parameter/%s/*"
			}]
		}`, r.name)),
	}, opts...)
	if err != nil {
		return nil, err
	}

	if r.UseSecrets {
		// Fails synthesis when the entry does not exist, which beats a
		// boot script failing halfway through first boot.
		secret, err := secretsmanager.LookupSecret(ctx, &secretsmanager.LookupSecretArgs{
			Name: pulumi.StringRef(r.SecretName),
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to look up secret %q: %w", r.SecretName, err)
		}

		_, err = iam.NewRolePolicy(ctx, r.newResourceName("secret-read", 255), &iam.RolePolicyArgs{
			Role: role.Name,
			Policy: pulumi.String(fmt.Sprintf(`{
				"Version": "2012-10-17",
				"Statement": [{
					"Action": ["secretsmanager:GetSecretValue"],
					"Effect": "Allow",
					"Resource": "%s"
				}]
			}`, secret.Arn)),
		}, opts...)
		if err != nil {
			return nil, err
		}
	}

	profile, err := iam.NewInstanceProfile(ctx, r.newResourceName("instance-profile", 255), &iam.InstanceProfileArgs{
		Role: role.Name,
		Tags: r.resourceTags("instance-profile"),
	}, opts...)
	if err != nil {
		return nil, err
	}

	r.role = role
	r.instanceProfile = profile
	return &instanceIdentity{role: role, profile: profile}, nil
}
