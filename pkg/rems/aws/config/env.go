// Package config loads the deployment configuration from environment
// variables, with per-stack overrides from the Pulumi stack configuration
// so dev and production stacks can diverge without code changes.
package config

import (
	"fmt"
	"log"
	"strconv"

	"github.com/kelseyhightower/envconfig"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	pulumiconfig "github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// Config enumerates every recognized deployment option. Stack config keys
// use the "rems" namespace and camelCase names, e.g. "rems:hostedZoneDomain".
type Config struct {
	HostedZoneDomain string `envconfig:"REMS_HOSTED_ZONE_DOMAIN"`
	DomainPrefix     string `envconfig:"REMS_DOMAIN_PREFIX" default:"rems"`
	InstanceType     string `envconfig:"REMS_INSTANCE_TYPE" default:"t2.medium"`
	StorageSizeGb    int    `envconfig:"REMS_STORAGE_SIZE_GB" default:"100"`
	AppPort          int    `envconfig:"REMS_APP_PORT" default:"3000"`
	SecretName       string `envconfig:"REMS_SECRET_NAME"`
	UseClassicLB     bool   `envconfig:"REMS_USE_CLASSIC_LB" default:"false"`
	UseSecrets       bool   `envconfig:"REMS_USE_SECRETS" default:"true"`
}

// Load reads the environment, applies stack-config overrides and validates
// the result.
func Load(ctx *pulumi.Context) (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment variables: %w", err)
	}

	if err := config.applyStackConfig(ctx); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Hosted zone: %s", config.HostedZoneDomain)
	log.Printf("  Domain prefix: %s", config.DomainPrefix)
	log.Printf("  Instance type: %s", config.InstanceType)
	log.Printf("  Storage size: %d GB", config.StorageSizeGb)
	log.Printf("  App port: %d", config.AppPort)
	log.Printf("  Classic LB: %t", config.UseClassicLB)
	log.Printf("  Secrets: %t", config.UseSecrets)

	return &config, nil
}

func (c *Config) applyStackConfig(ctx *pulumi.Context) error {
	cfg := pulumiconfig.New(ctx, "rems")

	if v := cfg.Get("hostedZoneDomain"); v != "" {
		c.HostedZoneDomain = v
	}
	if v := cfg.Get("domainPrefix"); v != "" {
		c.DomainPrefix = v
	}
	if v := cfg.Get("instanceType"); v != "" {
		c.InstanceType = v
	}
	if v := cfg.Get("secretName"); v != "" {
		c.SecretName = v
	}
	if v := cfg.Get("storageSizeGb"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid rems:storageSizeGb %q: %w", v, err)
		}
		c.StorageSizeGb = n
	}
	if v := cfg.Get("appPort"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid rems:appPort %q: %w", v, err)
		}
		c.AppPort = n
	}
	if v := cfg.Get("useClassicLb"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid rems:useClassicLb %q: %w", v, err)
		}
		c.UseClassicLB = b
	}
	if v := cfg.Get("useSecrets"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid rems:useSecrets %q: %w", v, err)
		}
		c.UseSecrets = b
	}

	return nil
}

func (c *Config) validate() error {
	if c.HostedZoneDomain == "" {
		return fmt.Errorf("hosted zone domain is required (REMS_HOSTED_ZONE_DOMAIN or rems:hostedZoneDomain)")
	}
	if c.UseSecrets && c.SecretName == "" {
		return fmt.Errorf("secret name is required when secrets are enabled (REMS_SECRET_NAME or rems:secretName)")
	}
	if c.StorageSizeGb < 8 || c.StorageSizeGb > 16384 {
		return fmt.Errorf("storage size must be in 8..16384 GB, got %d", c.StorageSizeGb)
	}
	if c.AppPort < 1 || c.AppPort > 65535 {
		return fmt.Errorf("app port must be in 1..65535, got %d", c.AppPort)
	}
	return nil
}
