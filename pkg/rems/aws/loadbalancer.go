package aws

import (
	"strconv"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/elb"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lb"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// deployLoadBalancer declares the traffic entry point. The application
// flavor is the default: an internet-facing ALB with an HTTP-to-HTTPS
// redirect and a host-header rule forwarding the public hostname to a
// target group holding the single instance. The classic flavor attaches
// the instance directly and terminates TLS on the 443 listener.
func (r *RemsStack) deployLoadBalancer(ctx *pulumi.Context, opts ...pulumi.ResourceOption) error {
	if r.UseClassicLB {
		return r.deployClassicLoadBalancer(ctx, opts...)
	}
	return r.deployApplicationLoadBalancer(ctx, opts...)
}

func (r *RemsStack) deployApplicationLoadBalancer(ctx *pulumi.Context, opts ...pulumi.ResourceOption) error {
	subnetIDs := pulumi.StringArray{}
	for _, subnet := range r.publicSubnets {
		subnetIDs = append(subnetIDs, subnet.ID())
	}

	loadBalancer, err := lb.NewLoadBalancer(ctx, r.newResourceName("alb", 32), &lb.LoadBalancerArgs{
		Internal:         pulumi.Bool(false),
		LoadBalancerType: pulumi.String("application"),
		SecurityGroups:   pulumi.StringArray{r.lbSecurityGroup.ID()},
		Subnets:          subnetIDs,
		Tags:             r.resourceTags("alb"),
	}, opts...)
	if err != nil {
		return err
	}

	// Instance target type keeps the bare EC2 instance as the backend;
	// there is deliberately no autoscaling group in between.
	targetGroup, err := lb.NewTargetGroup(ctx, r.newResourceName("tg", 32), &lb.TargetGroupArgs{
		Port:       pulumi.Int(r.AppPort),
		Protocol:   pulumi.String("HTTP"),
		TargetType: pulumi.String("instance"),
		VpcId:      r.vpc.ID(),
		HealthCheck: &lb.TargetGroupHealthCheckArgs{
			Port:     pulumi.String(strconv.Itoa(r.AppPort)),
			Protocol: pulumi.String("HTTP"),
			Path:     pulumi.String("/"),
			Matcher:  pulumi.String("200-399"),
		},
		Tags: r.resourceTags("tg"),
	}, opts...)
	if err != nil {
		return err
	}

	_, err = lb.NewTargetGroupAttachment(ctx, r.newResourceName("tg-instance", 255), &lb.TargetGroupAttachmentArgs{
		TargetGroupArn: targetGroup.Arn,
		TargetId:       r.instance.ID(),
		Port:           pulumi.Int(r.AppPort),
	}, opts...)
	if err != nil {
		return err
	}

	_, err = lb.NewListener(ctx, r.newResourceName("http", 255), &lb.ListenerArgs{
		LoadBalancerArn: loadBalancer.Arn,
		Port:            pulumi.Int(80),
		Protocol:        pulumi.String("HTTP"),
		DefaultActions: lb.ListenerDefaultActionArray{
			&lb.ListenerDefaultActionArgs{
				Type: pulumi.String("redirect"),
				Redirect: &lb.ListenerDefaultActionRedirectArgs{
					Port:       pulumi.String("443"),
					Protocol:   pulumi.String("HTTPS"),
					StatusCode: pulumi.String("HTTP_301"),
				},
			},
		},
	}, opts...)
	if err != nil {
		return err
	}

	httpsListener, err := lb.NewListener(ctx, r.newResourceName("https", 255), &lb.ListenerArgs{
		LoadBalancerArn: loadBalancer.Arn,
		Port:            pulumi.Int(443),
		Protocol:        pulumi.String("HTTPS"),
		SslPolicy:       pulumi.String("ELBSecurityPolicy-TLS13-1-2-2021-06"),
		// The validation resource's ARN output, not the bare certificate's,
		// so the listener waits out the pending-validation window.
		CertificateArn: r.certificateValidation.CertificateArn,
		DefaultActions: lb.ListenerDefaultActionArray{
			&lb.ListenerDefaultActionArgs{
				Type: pulumi.String("fixed-response"),
				FixedResponse: &lb.ListenerDefaultActionFixedResponseArgs{
					ContentType: pulumi.String("text/plain"),
					MessageBody: pulumi.String("not found"),
					StatusCode:  pulumi.String("404"),
				},
			},
		},
	}, opts...)
	if err != nil {
		return err
	}

	_, err = lb.NewListenerRule(ctx, r.newResourceName("host-rule", 255), &lb.ListenerRuleArgs{
		ListenerArn: httpsListener.Arn,
		Priority:    pulumi.Int(10),
		Actions: lb.ListenerRuleActionArray{
			&lb.ListenerRuleActionArgs{
				Type:           pulumi.String("forward"),
				TargetGroupArn: targetGroup.Arn,
			},
		},
		Conditions: lb.ListenerRuleConditionArray{
			&lb.ListenerRuleConditionArgs{
				HostHeader: &lb.ListenerRuleConditionHostHeaderArgs{
					Values: pulumi.StringArray{pulumi.String(r.PublicHostname())},
				},
			},
		},
	}, opts...)
	if err != nil {
		return err
	}

	r.loadBalancer = loadBalancer
	r.targetGroup = targetGroup
	return nil
}

func (r *RemsStack) deployClassicLoadBalancer(ctx *pulumi.Context, opts ...pulumi.ResourceOption) error {
	subnetIDs := pulumi.StringArray{}
	for _, subnet := range r.publicSubnets {
		subnetIDs = append(subnetIDs, subnet.ID())
	}

	classic, err := elb.NewLoadBalancer(ctx, r.newResourceName("elb", 32), &elb.LoadBalancerArgs{
		Subnets:        subnetIDs,
		SecurityGroups: pulumi.StringArray{r.lbSecurityGroup.ID()},
		Listeners: elb.LoadBalancerListenerArray{
			&elb.LoadBalancerListenerArgs{
				LbPort:           pulumi.Int(80),
				LbProtocol:       pulumi.String("http"),
				InstancePort:     pulumi.Int(r.AppPort),
				InstanceProtocol: pulumi.String("http"),
			},
			&elb.LoadBalancerListenerArgs{
				LbPort:           pulumi.Int(443),
				LbProtocol:       pulumi.String("https"),
				InstancePort:     pulumi.Int(r.AppPort),
				InstanceProtocol: pulumi.String("http"),
				SslCertificateId: r.certificateValidation.CertificateArn,
			},
		},
		HealthCheck: &elb.LoadBalancerHealthCheckArgs{
			Target:             pulumi.Sprintf("TCP:%d", r.AppPort),
			HealthyThreshold:   pulumi.Int(2),
			UnhealthyThreshold: pulumi.Int(2),
			Interval:           pulumi.Int(30),
			Timeout:            pulumi.Int(5),
		},
		Instances: pulumi.StringArray{r.instance.ID()},
		Tags:      r.resourceTags("elb"),
	}, opts...)
	if err != nil {
		return err
	}

	r.classicLoadBalancer = classic
	return nil
}
