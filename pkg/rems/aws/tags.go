package aws

import "github.com/pulumi/pulumi/sdk/v3/go/pulumi"

// resourceTags merges the stack-wide tags with a Name tag for the resource.
// Custom tags win over the defaults, except Name.
func (r *RemsStack) resourceTags(suffix string) pulumi.StringMap {
	merged := pulumi.StringMap{
		"ManagedBy": pulumi.String("pulumi"),
		"Stack":     pulumi.String(r.name),
	}
	for k, v := range r.Tags {
		merged[k] = pulumi.String(v)
	}
	merged["Name"] = pulumi.String(r.name + "-" + suffix)
	return merged
}
