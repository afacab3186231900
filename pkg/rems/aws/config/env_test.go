package config

import (
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopMocks struct{}

func (noopMocks) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	return args.Name + "-id", args.Inputs, nil
}

func (noopMocks) Call(pulumi.MockCallArgs) (resource.PropertyMap, error) {
	return resource.PropertyMap{}, nil
}

func load(t *testing.T) (*Config, error) {
	t.Helper()
	var config *Config
	var loadErr error
	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		config, loadErr = Load(ctx)
		return nil
	}, pulumi.WithMocks("project", "stack", noopMocks{}))
	require.NoError(t, err)
	return config, loadErr
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REMS_HOSTED_ZONE_DOMAIN", "test.example.org")
	t.Setenv("REMS_SECRET_NAME", "rems/oidc-credentials")

	config, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "test.example.org", config.HostedZoneDomain)
	assert.Equal(t, "rems", config.DomainPrefix)
	assert.Equal(t, "t2.medium", config.InstanceType)
	assert.Equal(t, 100, config.StorageSizeGb)
	assert.Equal(t, 3000, config.AppPort)
	assert.False(t, config.UseClassicLB)
	assert.True(t, config.UseSecrets)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("REMS_HOSTED_ZONE_DOMAIN", "test.example.org")
	t.Setenv("REMS_DOMAIN_PREFIX", "demo")
	t.Setenv("REMS_INSTANCE_TYPE", "t3.large")
	t.Setenv("REMS_STORAGE_SIZE_GB", "200")
	t.Setenv("REMS_APP_PORT", "8080")
	t.Setenv("REMS_USE_CLASSIC_LB", "true")
	t.Setenv("REMS_USE_SECRETS", "false")

	config, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "demo", config.DomainPrefix)
	assert.Equal(t, "t3.large", config.InstanceType)
	assert.Equal(t, 200, config.StorageSizeGb)
	assert.Equal(t, 8080, config.AppPort)
	assert.True(t, config.UseClassicLB)
	assert.False(t, config.UseSecrets)
	assert.Empty(t, config.SecretName)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing hosted zone",
			env:     map[string]string{"REMS_SECRET_NAME": "rems/oidc-credentials"},
			wantErr: "hosted zone domain is required",
		},
		{
			name:    "secrets enabled without secret name",
			env:     map[string]string{"REMS_HOSTED_ZONE_DOMAIN": "test.example.org"},
			wantErr: "secret name is required",
		},
		{
			name: "storage too small",
			env: map[string]string{
				"REMS_HOSTED_ZONE_DOMAIN": "test.example.org",
				"REMS_SECRET_NAME":        "rems/oidc-credentials",
				"REMS_STORAGE_SIZE_GB":    "4",
			},
			wantErr: "storage size must be in 8..16384",
		},
		{
			name: "storage too large",
			env: map[string]string{
				"REMS_HOSTED_ZONE_DOMAIN": "test.example.org",
				"REMS_SECRET_NAME":        "rems/oidc-credentials",
				"REMS_STORAGE_SIZE_GB":    "20000",
			},
			wantErr: "storage size must be in 8..16384",
		},
		{
			name: "app port out of range",
			env: map[string]string{
				"REMS_HOSTED_ZONE_DOMAIN": "test.example.org",
				"REMS_SECRET_NAME":        "rems/oidc-credentials",
				"REMS_APP_PORT":           "70000",
			},
			wantErr: "app port must be in 1..65535",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := load(t)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
