// Package main is the Pulumi entry point for the REMS deployment.
package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/australianbiocommons/pulumi-aws-rems/pkg/rems/aws"
	"github.com/australianbiocommons/pulumi-aws-rems/pkg/rems/aws/config"
	"github.com/australianbiocommons/pulumi-aws-rems/pkg/rems/bootstrap"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		cfg, err := config.Load(ctx)
		if err != nil {
			return err
		}

		stack, err := aws.NewRemsStack(ctx, "rems", &aws.RemsStackArgs{
			HostedZoneDomain: cfg.HostedZoneDomain,
			DomainPrefix:     cfg.DomainPrefix,
			InstanceType:     cfg.InstanceType,
			StorageSizeGb:    cfg.StorageSizeGb,
			AppPort:          cfg.AppPort,
			SecretName:       cfg.SecretName,
			UseClassicLB:     cfg.UseClassicLB,
			UseSecrets:       cfg.UseSecrets,
			Tags: map[string]string{
				"Project": "rems",
			},
		})
		if err != nil {
			return err
		}

		ctx.Export("instanceId", stack.GetInstance().ID())
		ctx.Export("loadBalancerDnsName", stack.LoadBalancerDNSName())
		ctx.Export("certificateArn", stack.GetCertificate().Arn)
		ctx.Export("publicUrl", pulumi.String(bootstrap.PublicURL(cfg.DomainPrefix, cfg.HostedZoneDomain)))

		return nil
	})
}
