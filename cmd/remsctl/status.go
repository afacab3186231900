package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/australianbiocommons/pulumi-aws-rems/internal/discover"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the deployed instance state and target health",
	Long: `Resolve the SSM discovery markers, describe the instance behind them and
report load balancer target health.

Examples:
  remsctl status
  remsctl status --prefix rems-dev --region ap-southeast-2`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := discover.NewClient(ctx, discover.WithProfile(profile), discover.WithRegion(region))
	if err != nil {
		return err
	}

	deployment, err := client.Lookup(ctx, prefix)
	if err != nil {
		return err
	}

	fmt.Printf("Public URL:  %s\n", deployment.PublicURL)
	fmt.Printf("Instance:    %s\n", deployment.InstanceID)
	if deployment.SecretName != "" {
		fmt.Printf("OIDC secret: %s\n", deployment.SecretName)
	}

	status, err := client.InstanceStatus(ctx, deployment.InstanceID)
	if err != nil {
		return err
	}
	fmt.Printf("State:       %s (%s, %s)\n", status.State, status.InstanceType, status.AvailabilityZone)
	fmt.Printf("Launched:    %s\n", status.LaunchTime.Format("2006-01-02 15:04:05 MST"))

	health, err := client.TargetHealthForInstance(ctx, deployment.InstanceID)
	if err != nil {
		return err
	}
	if len(health) == 0 {
		fmt.Println("Targets:     none (classic LB deployment or instance unregistered)")
		return nil
	}
	for _, h := range health {
		if h.Reason != "" {
			fmt.Printf("Target:      %s %s (%s)\n", h.TargetGroupName, h.State, h.Reason)
		} else {
			fmt.Printf("Target:      %s %s\n", h.TargetGroupName, h.State)
		}
	}

	return nil
}
