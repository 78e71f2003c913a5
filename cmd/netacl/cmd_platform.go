package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netgrid-labs/netacl/pkg/netacl"
)

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Show the compiler platform resolved from device facts",
	Long: `Show the compiler platform resolved from the device's facts.

Examples:
  netacl platform
  netacl --grains-file facts.json platform`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		facts, err := grainsProvider().Facts(ctx)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Printf("vendor: %s\nos:     %s\nmodel:  %s\n", facts.Vendor, facts.OS, facts.Model)
		}
		fmt.Println(netacl.ResolvePlatform(facts))
		return nil
	},
}
