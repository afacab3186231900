package aws

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// deploySecurityGroups declares the two security boundaries: an
// internet-facing group for the load balancer (80/443 from anywhere) and an
// instance group whose only ingress source is the load balancer group. The
// application port is never opened to a CIDR block.
func (r *RemsStack) deploySecurityGroups(ctx *pulumi.Context, opts ...pulumi.ResourceOption) error {
	lbSG, err := ec2.NewSecurityGroup(ctx, r.newResourceName("lb-sg", 255), &ec2.SecurityGroupArgs{
		VpcId:       r.vpc.ID(),
		Description: pulumi.String("Public HTTP/HTTPS entry point for the load balancer"),
		Ingress: ec2.SecurityGroupIngressArray{
			&ec2.SecurityGroupIngressArgs{
				Description: pulumi.String("HTTP from anywhere"),
				Protocol:    pulumi.String("tcp"),
				FromPort:    pulumi.Int(80),
				ToPort:      pulumi.Int(80),
				CidrBlocks:  pulumi.StringArray{pulumi.String("0.0.0.0/0")},
			},
			&ec2.SecurityGroupIngressArgs{
				Description: pulumi.String("HTTPS from anywhere"),
				Protocol:    pulumi.String("tcp"),
				FromPort:    pulumi.Int(443),
				ToPort:      pulumi.Int(443),
				CidrBlocks:  pulumi.StringArray{pulumi.String("0.0.0.0/0")},
			},
		},
		Egress: ec2.SecurityGroupEgressArray{
			&ec2.SecurityGroupEgressArgs{
				Description: pulumi.String("Allow all outbound traffic"),
				Protocol:    pulumi.String("-1"),
				FromPort:    pulumi.Int(0),
				ToPort:      pulumi.Int(0),
				CidrBlocks:  pulumi.StringArray{pulumi.String("0.0.0.0/0")},
			},
		},
		Tags: r.resourceTags("lb-sg"),
	}, opts...)
	if err != nil {
		return err
	}

	instanceSG, err := ec2.NewSecurityGroup(ctx, r.newResourceName("ec2-sg", 255), &ec2.SecurityGroupArgs{
		VpcId:       r.vpc.ID(),
		Description: pulumi.String(fmt.Sprintf("Application traffic on port %d from the load balancer only", r.AppPort)),
		Ingress: ec2.SecurityGroupIngressArray{
			&ec2.SecurityGroupIngressArgs{
				Description:    pulumi.String(fmt.Sprintf("App port %d from the load balancer security group", r.AppPort)),
				Protocol:       pulumi.String("tcp"),
				FromPort:       pulumi.Int(r.AppPort),
				ToPort:         pulumi.Int(r.AppPort),
				SecurityGroups: pulumi.StringArray{lbSG.ID()},
			},
		},
		Egress: ec2.SecurityGroupEgressArray{
			&ec2.SecurityGroupEgressArgs{
				Description: pulumi.String("Allow all outbound traffic"),
				Protocol:    pulumi.String("-1"),
				FromPort:    pulumi.Int(0),
				ToPort:      pulumi.Int(0),
				CidrBlocks:  pulumi.StringArray{pulumi.String("0.0.0.0/0")},
			},
		},
		Tags: r.resourceTags("ec2-sg"),
	}, opts...)
	if err != nil {
		return err
	}

	r.lbSecurityGroup = lbSG
	r.instanceSecurityGroup = instanceSG
	return nil
}
