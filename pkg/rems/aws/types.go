// Package aws provisions the AWS infrastructure for a single-instance REMS
// deployment: network, security groups, instance identity, compute, TLS,
// load balancing and DNS.
package aws

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/acm"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/elb"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lb"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/route53"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ssm"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// RemsStack represents the complete deployment: one EC2 instance running the
// application behind an internet-facing load balancer, with an ACM
// certificate and a Route 53 alias record on the public hostname.
type RemsStack struct {
	pulumi.ResourceState

	// DomainPrefix and HostedZoneDomain form the public hostname,
	// e.g. "rems" + "test.biocommons.org.au".
	DomainPrefix     string
	HostedZoneDomain string
	InstanceType     string
	StorageSizeGb    int
	AppPort          int
	SecretName       string
	UseClassicLB     bool
	UseSecrets       bool
	Tags             map[string]string

	name string

	// Network infrastructure
	vpc            *ec2.Vpc
	publicSubnets  []*ec2.Subnet
	privateSubnets []*ec2.Subnet

	// Security boundaries
	lbSecurityGroup       *ec2.SecurityGroup
	instanceSecurityGroup *ec2.SecurityGroup

	// Instance identity
	role            *iam.Role
	instanceProfile *iam.InstanceProfile

	instance              *ec2.Instance
	certificate           *acm.Certificate
	certificateValidation *acm.CertificateValidation

	// Exactly one of the two load balancer flavors is set.
	classicLoadBalancer *elb.LoadBalancer
	loadBalancer        *lb.LoadBalancer
	targetGroup         *lb.TargetGroup

	dnsRecord *route53.Record

	instanceIDParameter *ssm.Parameter
	publicURLParameter  *ssm.Parameter
	secretNameParameter *ssm.Parameter
}

// RemsStackArgs contains configuration arguments for creating a RemsStack.
type RemsStackArgs struct {
	// Hosted zone the public hostname lives in. Required; the zone must
	// already exist and is looked up by exact name at synthesis time.
	HostedZoneDomain string
	// Leftmost DNS label of the public hostname. Defaults to "rems".
	DomainPrefix string
	// EC2 instance type. Defaults to "t2.medium".
	InstanceType string
	// Root EBS volume size in GB. Defaults to 100.
	StorageSizeGb int
	// Port the application listens on inside the instance. Never reachable
	// from the public internet, only from the load balancer. Defaults to 3000.
	AppPort int
	// Name of the pre-provisioned Secrets Manager entry holding the OIDC
	// client credentials. Required when UseSecrets is set.
	SecretName string
	// Use a classic ELB instead of an ALB with host-header routing.
	UseClassicLB bool
	// Wire the Secrets Manager entry into IAM and the boot script.
	UseSecrets bool
	// Tags applied to every taggable resource.
	Tags map[string]string
}

// GetVpc returns the deployment VPC.
func (r *RemsStack) GetVpc() *ec2.Vpc {
	return r.vpc
}

// GetInstance returns the application EC2 instance.
func (r *RemsStack) GetInstance() *ec2.Instance {
	return r.instance
}

// GetInstanceSecurityGroup returns the security group attached to the
// instance. Its only ingress source is the load balancer security group.
func (r *RemsStack) GetInstanceSecurityGroup() *ec2.SecurityGroup {
	return r.instanceSecurityGroup
}

// GetLoadBalancerSecurityGroup returns the internet-facing security group.
func (r *RemsStack) GetLoadBalancerSecurityGroup() *ec2.SecurityGroup {
	return r.lbSecurityGroup
}

// GetCertificate returns the ACM certificate for the public hostname.
func (r *RemsStack) GetCertificate() *acm.Certificate {
	return r.certificate
}

// GetLoadBalancer returns the application load balancer, or nil when the
// stack was built with UseClassicLB.
func (r *RemsStack) GetLoadBalancer() *lb.LoadBalancer {
	return r.loadBalancer
}

// GetClassicLoadBalancer returns the classic ELB, or nil unless the stack
// was built with UseClassicLB.
func (r *RemsStack) GetClassicLoadBalancer() *elb.LoadBalancer {
	return r.classicLoadBalancer
}

// GetTargetGroup returns the instance target group behind the ALB, or nil
// when the stack was built with UseClassicLB.
func (r *RemsStack) GetTargetGroup() *lb.TargetGroup {
	return r.targetGroup
}

// GetDNSRecord returns the alias record binding the public hostname to the
// load balancer.
func (r *RemsStack) GetDNSRecord() *route53.Record {
	return r.dnsRecord
}

// PublicHostname returns the fully qualified public hostname.
func (r *RemsStack) PublicHostname() string {
	return r.DomainPrefix + "." + r.HostedZoneDomain
}

// LoadBalancerDNSName returns the DNS name of whichever load balancer
// flavor the stack carries.
func (r *RemsStack) LoadBalancerDNSName() pulumi.StringOutput {
	if r.UseClassicLB {
		return r.classicLoadBalancer.DnsName
	}
	return r.loadBalancer.DnsName
}

// loadBalancerZoneID returns the hosted zone of the load balancer itself,
// needed for the Route 53 alias target.
func (r *RemsStack) loadBalancerZoneID() pulumi.StringOutput {
	if r.UseClassicLB {
		return r.classicLoadBalancer.ZoneId
	}
	return r.loadBalancer.ZoneId
}
