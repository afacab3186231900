package aws

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/route53"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// lookupHostedZone resolves the pre-existing Route 53 zone by exact domain
// name. No zone, or more than one match, is a synthesis error; the provider
// error is propagated unchanged.
func (r *RemsStack) lookupHostedZone(ctx *pulumi.Context) (string, error) {
	zone, err := route53.LookupZone(ctx, &route53.LookupZoneArgs{
		Name:        pulumi.StringRef(r.HostedZoneDomain),
		PrivateZone: pulumi.BoolRef(false),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to look up hosted zone %q: %w", r.HostedZoneDomain, err)
	}
	return zone.ZoneId, nil
}

// deployDNSRecord binds the public hostname to the load balancer with an
// alias A record, so the record survives load balancer IP churn.
func (r *RemsStack) deployDNSRecord(ctx *pulumi.Context, zoneID string, opts ...pulumi.ResourceOption) error {
	record, err := route53.NewRecord(ctx, r.newResourceName("alias", 255), &route53.RecordArgs{
		ZoneId: pulumi.String(zoneID),
		Name:   pulumi.String(r.PublicHostname()),
		Type:   pulumi.String("A"),
		Aliases: route53.RecordAliasArray{
			&route53.RecordAliasArgs{
				Name:                 r.LoadBalancerDNSName(),
				ZoneId:               r.loadBalancerZoneID(),
				EvaluateTargetHealth: pulumi.Bool(true),
			},
		},
	}, opts...)
	if err != nil {
		return err
	}

	r.dnsRecord = record
	return nil
}
