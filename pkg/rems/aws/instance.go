package aws

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/australianbiocommons/pulumi-aws-rems/pkg/rems/bootstrap"
)

// deployInstance declares the single EC2 instance backing the deployment,
// with the rendered first-boot script as user data. Changing the instance
// type or image replaces the instance rather than mutating it.
func (r *RemsStack) deployInstance(ctx *pulumi.Context, network *networkResources, identity *instanceIdentity, opts ...pulumi.ResourceOption) error {
	ami, err := ec2.LookupAmi(ctx, &ec2.LookupAmiArgs{
		Owners:     []string{"amazon"},
		MostRecent: pulumi.BoolRef(true),
		NameRegex:  pulumi.StringRef("^al2023-ami-2023.*-x86_64$"),
		Filters: []ec2.GetAmiFilter{
			{
				Name:   "root-device-type",
				Values: []string{"ebs"},
			},
			{
				Name:   "virtualization-type",
				Values: []string{"hvm"},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to look up Amazon Linux 2023 AMI: %w", err)
	}

	scriptArgs := bootstrap.ScriptArgs{
		PublicURL: bootstrap.PublicURL(r.DomainPrefix, r.HostedZoneDomain),
	}
	if r.UseSecrets {
		scriptArgs.SecretParameterName = r.secretNameParameterPath()
	}
	userData, err := bootstrap.Script(scriptArgs)
	if err != nil {
		return fmt.Errorf("failed to render bootstrap script: %w", err)
	}

	instance, err := ec2.NewInstance(ctx, r.newResourceName("instance", 255), &ec2.InstanceArgs{
		Ami:                 pulumi.String(ami.Id),
		InstanceType:        pulumi.String(r.InstanceType),
		SubnetId:            network.publicSubnets[0].ID(),
		VpcSecurityGroupIds: pulumi.StringArray{r.instanceSecurityGroup.ID()},
		IamInstanceProfile:  identity.profile.Name,
		UserData:            pulumi.String(userData),
		RootBlockDevice: &ec2.InstanceRootBlockDeviceArgs{
			VolumeSize:          pulumi.Int(r.StorageSizeGb),
			VolumeType:          pulumi.String("gp3"),
			DeleteOnTermination: pulumi.Bool(true),
		},
		Tags: r.resourceTags("instance"),
	}, opts...)
	if err != nil {
		return err
	}

	r.instance = instance
	return nil
}
