package aws

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/acm"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/route53"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// deployCertificate requests an ACM certificate for the public hostname and
// proves domain ownership by publishing the DNS validation record in the
// hosted zone. Listeners depend on the validation resource, not the bare
// certificate, so they are never created with a pending certificate.
func (r *RemsStack) deployCertificate(ctx *pulumi.Context, zoneID string, opts ...pulumi.ResourceOption) error {
	certificate, err := acm.NewCertificate(ctx, r.newResourceName("certificate", 255), &acm.CertificateArgs{
		DomainName:       pulumi.String(r.PublicHostname()),
		ValidationMethod: pulumi.String("DNS"),
		Tags:             r.resourceTags("certificate"),
	}, opts...)
	if err != nil {
		return err
	}

	validationOption := certificate.DomainValidationOptions.Index(pulumi.Int(0))
	validationRecord, err := route53.NewRecord(ctx, r.newResourceName("certificate-validation", 255), &route53.RecordArgs{
		ZoneId:         pulumi.String(zoneID),
		Name:           validationOption.ResourceRecordName().Elem(),
		Type:           validationOption.ResourceRecordType().Elem(),
		Records:        pulumi.StringArray{validationOption.ResourceRecordValue().Elem()},
		Ttl:            pulumi.Int(60),
		AllowOverwrite: pulumi.Bool(true),
	}, opts...)
	if err != nil {
		return err
	}

	validation, err := acm.NewCertificateValidation(ctx, r.newResourceName("certificate-validated", 255), &acm.CertificateValidationArgs{
		CertificateArn:        certificate.Arn,
		ValidationRecordFqdns: pulumi.StringArray{validationRecord.Fqdn},
	}, opts...)
	if err != nil {
		return err
	}

	r.certificate = certificate
	r.certificateValidation = validation
	return nil
}
