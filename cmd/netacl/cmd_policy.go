package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netgrid-labs/netacl/pkg/netacl"
	"github.com/netgrid-labs/netacl/pkg/pillar"
)

var (
	policyFiltersFile    string
	policyAppend         bool
	policyNoMergePillar  bool
	policyOnlyLowerMerge bool
)

var loadPolicyCmd = &cobra.Command{
	Use:   "load-policy",
	Short: "Generate and load the whole ACL policy",
	Long: `Generate and load the whole ACL policy.

By default the policy is the pillar's. Extra filters come from a YAML
file in the pillar shape:

  - edge-in:
      options: [inet]
      terms:
        - allow-ssh:
            destination_port: 22
            protocol: tcp
            action: accept

Filters the pillar already has keep their position and merge with the
file's; new filters go first unless --append is given.

Examples:
  netacl load-policy
  netacl load-policy --pillarenv prod -x
  netacl load-policy --filters extra.yaml --no-merge-pillar -x`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := netacl.DefaultPolicyLoadOptions()
		opts.Pillar = pillarOptions()
		opts.MergePillar = !policyNoMergePillar
		opts.OnlyLowerMerge = policyOnlyLowerMerge
		opts.Prepend = !policyAppend
		opts.Revision = revision()
		opts.Apply = applyOptions()
		if policyFiltersFile != "" {
			data, err := os.ReadFile(policyFiltersFile)
			if err != nil {
				return fmt.Errorf("read filters file: %w", err)
			}
			opts.Filters, err = pillar.ParseFilters(data)
			if err != nil {
				return err
			}
		}

		return withService(func(ctx context.Context, svc *netacl.Service) error {
			res, err := svc.LoadPolicyConfig(ctx, opts)
			if err != nil {
				return err
			}
			return printResult(res)
		})
	},
}

func init() {
	loadPolicyCmd.Flags().StringVar(&policyFiltersFile, "filters", "", "YAML file with extra filters")
	loadPolicyCmd.Flags().BoolVar(&policyAppend, "append", false, "Place new filters after the pillar's filters")
	loadPolicyCmd.Flags().BoolVar(&policyNoMergePillar, "no-merge-pillar", false, "Ignore pillar data")
	loadPolicyCmd.Flags().BoolVar(&policyOnlyLowerMerge, "only-lower-merge", false, "Merge terms only; filter options come from the file alone")
}
