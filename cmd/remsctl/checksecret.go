package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/australianbiocommons/pulumi-aws-rems/internal/discover"
)

var checkSecretCmd = &cobra.Command{
	Use:   "check-secret [name]",
	Short: "Validate the OIDC secret against the bootstrap contract",
	Long: `Fetch the Secrets Manager entry the deployment uses and verify it carries
the JSON keys the boot script expects. With no argument the secret name is
resolved from the stack's SSM marker.

Examples:
  remsctl check-secret
  remsctl check-secret rems/oidc-credentials`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheckSecret,
}

func init() {
	rootCmd.AddCommand(checkSecretCmd)
}

func runCheckSecret(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := discover.NewClient(ctx, discover.WithProfile(profile), discover.WithRegion(region))
	if err != nil {
		return err
	}

	var secretName string
	if len(args) == 1 {
		secretName = args[0]
	} else {
		deployment, err := client.Lookup(ctx, prefix)
		if err != nil {
			return err
		}
		if deployment.SecretName == "" {
			return fmt.Errorf("stack %q was deployed without secrets; pass a secret name explicitly", prefix)
		}
		secretName = deployment.SecretName
	}

	envVars, err := client.CheckSecret(ctx, secretName)
	if err != nil {
		return err
	}

	sort.Strings(envVars)
	fmt.Printf("Secret %q satisfies the bootstrap contract.\n", secretName)
	for _, name := range envVars {
		fmt.Printf("  %s=********\n", name)
	}
	return nil
}
