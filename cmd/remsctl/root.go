package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	profile string
	region  string
	prefix  string
)

var rootCmd = &cobra.Command{
	Use:   "remsctl",
	Short: "Operator tooling for the REMS AWS deployment",
	Long: `remsctl reads the discovery markers the Pulumi stack persists in SSM
Parameter Store and reports on the running deployment.

Examples:
  remsctl status                   # instance state and target health
  remsctl check-secret             # validate the OIDC secret contract
  remsctl status --prefix rems-dev # a different stack`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	rootCmd.PersistentFlags().StringVarP(&region, "region", "r", "", "AWS region to use")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", "rems", "stack name prefix of the SSM markers")

	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	_ = viper.BindPFlag("prefix", rootCmd.PersistentFlags().Lookup("prefix"))
}

func initConfig() {
	viper.SetEnvPrefix("REMSCTL")
	viper.AutomaticEnv()

	if profile == "" {
		if v := viper.GetString("profile"); v != "" {
			profile = v
		} else {
			profile = os.Getenv("AWS_PROFILE")
		}
	}

	if region == "" {
		region = viper.GetString("region")
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
	}

	if v := viper.GetString("prefix"); v != "" && !rootCmd.PersistentFlags().Changed("prefix") {
		prefix = v
	}
}
