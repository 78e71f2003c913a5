package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netgrid-labs/netacl/pkg/netacl"
	"github.com/netgrid-labs/netacl/pkg/pillar"
	"github.com/netgrid-labs/netacl/pkg/util"
)

var (
	filterOptions        string
	filterTermsFile      string
	filterAppend         bool
	filterNoMergePillar  bool
	filterOnlyLowerMerge bool
)

var loadFilterCmd = &cobra.Command{
	Use:   "load-filter <filter>",
	Short: "Generate and load the configuration of a policy filter",
	Long: `Generate and load the configuration of a policy filter.

Extra terms come from a YAML file in the pillar shape:

  - allow-ssh:
      destination_port: 22
      protocol: tcp
      action: accept
  - deny-rest:
      action: reject

Pillar terms are merged in unless --no-merge-pillar is given. Terms the
pillar already has keep their position and take the file's fields; new
terms go before the pillar's unless --append is given.

Examples:
  netacl load-filter edge-in
  netacl load-filter edge-in --terms extra.yaml --append -x`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filterName := args[0]

		opts := netacl.DefaultFilterLoadOptions()
		opts.Pillar = pillarOptions()
		opts.MergePillar = !filterNoMergePillar
		opts.OnlyLowerMerge = filterOnlyLowerMerge
		opts.Prepend = !filterAppend
		opts.Revision = revision()
		opts.Apply = applyOptions()
		if filterOptions != "" {
			opts.Options = util.SplitCommaSeparated(filterOptions)
		}
		if filterTermsFile != "" {
			data, err := os.ReadFile(filterTermsFile)
			if err != nil {
				return fmt.Errorf("read terms file: %w", err)
			}
			opts.Terms, err = pillar.ParseTerms(data)
			if err != nil {
				return err
			}
		}

		return withService(func(ctx context.Context, svc *netacl.Service) error {
			res, err := svc.LoadFilterConfig(ctx, filterName, opts)
			if err != nil {
				return err
			}
			return printResult(res)
		})
	},
}

func init() {
	loadFilterCmd.Flags().StringVar(&filterOptions, "options", "", "Comma-separated filter header options")
	loadFilterCmd.Flags().StringVar(&filterTermsFile, "terms", "", "YAML file with extra terms")
	loadFilterCmd.Flags().BoolVar(&filterAppend, "append", false, "Place new terms after the pillar's terms")
	loadFilterCmd.Flags().BoolVar(&filterNoMergePillar, "no-merge-pillar", false, "Ignore pillar data for this filter")
	loadFilterCmd.Flags().BoolVar(&filterOnlyLowerMerge, "only-lower-merge", false, "Merge terms only; filter options come from the command line alone")
}
