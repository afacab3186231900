package aws

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ssm"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/australianbiocommons/pulumi-aws-rems/pkg/rems/bootstrap"
)

// Parameter paths under /<stack name>/ readable by operators, other tooling
// and the boot script. The instance role is granted GetParameter on exactly
// this prefix.
func (r *RemsStack) instanceIDParameterPath() string { return "/" + r.name + "/instance-id" }
func (r *RemsStack) publicURLParameterPath() string  { return "/" + r.name + "/public-url" }
func (r *RemsStack) secretNameParameterPath() string { return "/" + r.name + "/secret-name" }

// deployDiscoveryParameters persists the provisioned instance ID and public
// URL for discovery, plus the secret entry name the boot script resolves at
// run time so the secret value never appears in the declaration.
func (r *RemsStack) deployDiscoveryParameters(ctx *pulumi.Context, opts ...pulumi.ResourceOption) error {
	instanceID, err := ssm.NewParameter(ctx, r.newResourceName("instance-id", 255), &ssm.ParameterArgs{
		Name:  pulumi.String(r.instanceIDParameterPath()),
		Type:  pulumi.String("String"),
		Value: r.instance.ID(),
		Tags:  r.resourceTags("instance-id"),
	}, opts...)
	if err != nil {
		return err
	}
	r.instanceIDParameter = instanceID

	publicURL, err := ssm.NewParameter(ctx, r.newResourceName("public-url", 255), &ssm.ParameterArgs{
		Name:  pulumi.String(r.publicURLParameterPath()),
		Type:  pulumi.String("String"),
		Value: pulumi.String(bootstrap.PublicURL(r.DomainPrefix, r.HostedZoneDomain)),
		Tags:  r.resourceTags("public-url"),
	}, opts...)
	if err != nil {
		return err
	}
	r.publicURLParameter = publicURL

	if r.UseSecrets {
		secretName, err := ssm.NewParameter(ctx, r.newResourceName("secret-name", 255), &ssm.ParameterArgs{
			Name:  pulumi.String(r.secretNameParameterPath()),
			Type:  pulumi.String("String"),
			Value: pulumi.String(r.SecretName),
			Tags:  r.resourceTags("secret-name"),
		}, opts...)
		if err != nil {
			return err
		}
		r.secretNameParameter = secretName
	}

	return nil
}
