package aws

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/australianbiocommons/pulumi-aws-rems/pkg/rems/bootstrap"
)

const (
	defaultDomainPrefix  = "rems"
	defaultInstanceType  = "t2.medium"
	defaultStorageSizeGb = 100
	defaultAppPort       = 3000
)

// NewRemsStack declares the full resource graph for a REMS deployment. All
// resources are registered under a single component so the whole deployment
// shows up as one unit in the Pulumi state.
func NewRemsStack(ctx *pulumi.Context, name string, args *RemsStackArgs, opts ...pulumi.ResourceOption) (*RemsStack, error) {
	if args == nil {
		args = &RemsStackArgs{}
	}
	if err := validateArgs(args); err != nil {
		return nil, err
	}

	r := &RemsStack{
		DomainPrefix:     defaultString(args.DomainPrefix, defaultDomainPrefix),
		HostedZoneDomain: args.HostedZoneDomain,
		InstanceType:     defaultString(args.InstanceType, defaultInstanceType),
		StorageSizeGb:    defaultInt(args.StorageSizeGb, defaultStorageSizeGb),
		AppPort:          defaultInt(args.AppPort, defaultAppPort),
		SecretName:       args.SecretName,
		UseClassicLB:     args.UseClassicLB,
		UseSecrets:       args.UseSecrets,
		Tags:             args.Tags,
		name:             name,
	}

	err := ctx.RegisterComponentResource("rems:aws:RemsStack", name, r, opts...)
	if err != nil {
		return nil, err
	}

	if err := r.deploy(ctx, pulumi.Parent(r)); err != nil {
		return nil, err
	}

	err = ctx.RegisterResourceOutputs(r, pulumi.Map{
		"publicUrl": pulumi.String(bootstrap.PublicURL(r.DomainPrefix, r.HostedZoneDomain)),
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (r *RemsStack) deploy(ctx *pulumi.Context, opts ...pulumi.ResourceOption) error {
	network, err := r.deployNetwork(ctx, opts...)
	if err != nil {
		return err
	}

	if err := r.deploySecurityGroups(ctx, opts...); err != nil {
		return err
	}

	identity, err := r.deployInstanceIdentity(ctx, opts...)
	if err != nil {
		return err
	}

	if err := r.deployInstance(ctx, network, identity, opts...); err != nil {
		return err
	}

	// The certificate and the alias record both need the hosted zone; a
	// missing or ambiguous zone fails synthesis here, before any traffic
	// resources exist.
	zoneID, err := r.lookupHostedZone(ctx)
	if err != nil {
		return err
	}

	if err := r.deployCertificate(ctx, zoneID, opts...); err != nil {
		return err
	}

	if err := r.deployLoadBalancer(ctx, opts...); err != nil {
		return err
	}

	if err := r.deployDNSRecord(ctx, zoneID, opts...); err != nil {
		return err
	}

	return r.deployDiscoveryParameters(ctx, opts...)
}

func validateArgs(args *RemsStackArgs) error {
	if args.HostedZoneDomain == "" {
		return fmt.Errorf("HostedZoneDomain is required")
	}
	if args.UseSecrets && args.SecretName == "" {
		return fmt.Errorf("SecretName is required when UseSecrets is enabled")
	}
	if args.StorageSizeGb < 0 || (args.StorageSizeGb > 0 && args.StorageSizeGb < 8) || args.StorageSizeGb > 16384 {
		return fmt.Errorf("StorageSizeGb must be in 8..16384, got %d", args.StorageSizeGb)
	}
	if args.AppPort < 0 || args.AppPort > 65535 {
		return fmt.Errorf("AppPort must be a valid port number, got %d", args.AppPort)
	}
	return nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
