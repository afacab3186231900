package aws

import (
	"fmt"

	awssdk "github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	vpcCidr = "10.0.0.0/16"
	// Two AZs, a public and a private subnet in each.
	zoneCount = 2
)

type networkResources struct {
	vpc            *ec2.Vpc
	publicSubnets  []*ec2.Subnet
	privateSubnets []*ec2.Subnet
}

// deployNetwork declares the isolated network: a VPC spanning two
// availability zones with public subnets routed through an internet gateway
// and private subnets routed through a single NAT gateway.
func (r *RemsStack) deployNetwork(ctx *pulumi.Context, opts ...pulumi.ResourceOption) (*networkResources, error) {
	zones, err := awssdk.GetAvailabilityZones(ctx, &awssdk.GetAvailabilityZonesArgs{
		State: pulumi.StringRef("available"),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to look up availability zones: %w", err)
	}
	if len(zones.Names) < zoneCount {
		return nil, fmt.Errorf("need %d availability zones, region offers %d", zoneCount, len(zones.Names))
	}

	vpc, err := ec2.NewVpc(ctx, r.newResourceName("vpc", 255), &ec2.VpcArgs{
		CidrBlock:          pulumi.String(vpcCidr),
		EnableDnsSupport:   pulumi.Bool(true),
		EnableDnsHostnames: pulumi.Bool(true),
		Tags:               r.resourceTags("vpc"),
	}, opts...)
	if err != nil {
		return nil, err
	}
	r.vpc = vpc

	igw, err := ec2.NewInternetGateway(ctx, r.newResourceName("igw", 255), &ec2.InternetGatewayArgs{
		VpcId: vpc.ID(),
		Tags:  r.resourceTags("igw"),
	}, opts...)
	if err != nil {
		return nil, err
	}

	var publicSubnets, privateSubnets []*ec2.Subnet
	for i := 0; i < zoneCount; i++ {
		public, err := ec2.NewSubnet(ctx, r.newResourceName(fmt.Sprintf("public-%d", i), 255), &ec2.SubnetArgs{
			VpcId:               vpc.ID(),
			CidrBlock:           pulumi.String(fmt.Sprintf("10.0.%d.0/24", i)),
			AvailabilityZone:    pulumi.String(zones.Names[i]),
			MapPublicIpOnLaunch: pulumi.Bool(true),
			Tags:                r.resourceTags(fmt.Sprintf("public-%d", i)),
		}, opts...)
		if err != nil {
			return nil, err
		}
		publicSubnets = append(publicSubnets, public)

		private, err := ec2.NewSubnet(ctx, r.newResourceName(fmt.Sprintf("private-%d", i), 255), &ec2.SubnetArgs{
			VpcId:            vpc.ID(),
			CidrBlock:        pulumi.String(fmt.Sprintf("10.0.%d.0/24", zoneCount+i)),
			AvailabilityZone: pulumi.String(zones.Names[i]),
			Tags:             r.resourceTags(fmt.Sprintf("private-%d", i)),
		}, opts...)
		if err != nil {
			return nil, err
		}
		privateSubnets = append(privateSubnets, private)
	}

	// A single NAT gateway keeps the private subnets' outbound path cheap;
	// this deployment has no HA requirement beyond the load balancer.
	natEip, err := ec2.NewEip(ctx, r.newResourceName("nat-eip", 255), &ec2.EipArgs{
		Domain: pulumi.String("vpc"),
		Tags:   r.resourceTags("nat-eip"),
	}, opts...)
	if err != nil {
		return nil, err
	}

	nat, err := ec2.NewNatGateway(ctx, r.newResourceName("nat", 255), &ec2.NatGatewayArgs{
		AllocationId: natEip.ID(),
		SubnetId:     publicSubnets[0].ID(),
		Tags:         r.resourceTags("nat"),
	}, append(opts, pulumi.DependsOn([]pulumi.Resource{igw}))...)
	if err != nil {
		return nil, err
	}

	publicRouteTable, err := ec2.NewRouteTable(ctx, r.newResourceName("public-rt", 255), &ec2.RouteTableArgs{
		VpcId: vpc.ID(),
		Routes: ec2.RouteTableRouteArray{
			&ec2.RouteTableRouteArgs{
				CidrBlock: pulumi.String("0.0.0.0/0"),
				GatewayId: igw.ID(),
			},
		},
		Tags: r.resourceTags("public-rt"),
	}, opts...)
	if err != nil {
		return nil, err
	}

	privateRouteTable, err := ec2.NewRouteTable(ctx, r.newResourceName("private-rt", 255), &ec2.RouteTableArgs{
		VpcId: vpc.ID(),
		Routes: ec2.RouteTableRouteArray{
			&ec2.RouteTableRouteArgs{
				CidrBlock:    pulumi.String("0.0.0.0/0"),
				NatGatewayId: nat.ID(),
			},
		},
		Tags: r.resourceTags("private-rt"),
	}, opts...)
	if err != nil {
		return nil, err
	}

	for i, subnet := range publicSubnets {
		_, err = ec2.NewRouteTableAssociation(ctx, r.newResourceName(fmt.Sprintf("public-rt-assoc-%d", i), 255), &ec2.RouteTableAssociationArgs{
			SubnetId:     subnet.ID(),
			RouteTableId: publicRouteTable.ID(),
		}, opts...)
		if err != nil {
			return nil, err
		}
	}
	for i, subnet := range privateSubnets {
		_, err = ec2.NewRouteTableAssociation(ctx, r.newResourceName(fmt.Sprintf("private-rt-assoc-%d", i), 255), &ec2.RouteTableAssociationArgs{
			SubnetId:     subnet.ID(),
			RouteTableId: privateRouteTable.ID(),
		}, opts...)
		if err != nil {
			return nil, err
		}
	}

	r.publicSubnets = publicSubnets
	r.privateSubnets = privateSubnets

	return &networkResources{
		vpc:            vpc,
		publicSubnets:  publicSubnets,
		privateSubnets: privateSubnets,
	}, nil
}
