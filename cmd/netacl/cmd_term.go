package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netgrid-labs/netacl/pkg/netacl"
	"github.com/netgrid-labs/netacl/pkg/util"
)

var (
	termFilterOptions      string
	termSourceService      string
	termDestinationService string
	termNoMergePillar      bool
)

var loadTermCmd = &cobra.Command{
	Use:   "load-term <filter> <term> [field=value ...]",
	Short: "Generate and load the configuration of a single term",
	Long: `Generate and load the configuration of a single policy term.

Field arguments use the policy keyword vocabulary, e.g.:

  netacl load-term edge-in allow-ssh action=accept protocol=tcp destination_port=22
  netacl load-term edge-in from-mgmt source_address=10.0.0.0/8,192.168.0.0/16 action=accept
  netacl load-term edge-in allow-dns --destination-service domain action=accept

Comma-separated values become lists; "low-high" values become port
ranges. Pillar data for the same term is merged in unless
--no-merge-pillar is given; command-line fields win on conflict.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filterName, termName := args[0], args[1]
		fields, err := parseFieldArgs(args[2:])
		if err != nil {
			return err
		}

		opts := netacl.DefaultTermLoadOptions()
		opts.Pillar = pillarOptions()
		opts.MergePillar = !termNoMergePillar
		opts.Revision = revision()
		opts.Apply = applyOptions()
		opts.SourceService = termSourceService
		opts.DestinationService = termDestinationService
		if termFilterOptions != "" {
			opts.FilterOptions = util.SplitCommaSeparated(termFilterOptions)
		}

		return withService(func(ctx context.Context, svc *netacl.Service) error {
			res, err := svc.LoadTermConfig(ctx, filterName, termName, fields, opts)
			if err != nil {
				return err
			}
			return printResult(res)
		})
	},
}

func parseFieldArgs(args []string) (netacl.TermFields, error) {
	if len(args) == 0 {
		return nil, nil
	}
	fields := make(netacl.TermFields, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("field argument %q: want key=value", arg)
		}
		fields[key] = netacl.ParseFieldValue(value)
	}
	return fields, nil
}

func init() {
	loadTermCmd.Flags().StringVar(&termFilterOptions, "filter-options", "", "Comma-separated filter header options")
	loadTermCmd.Flags().StringVar(&termSourceService, "source-service", "", "Expand this services(5) name into source ports and protocols")
	loadTermCmd.Flags().StringVar(&termDestinationService, "destination-service", "", "Expand this services(5) name into destination ports and protocols")
	loadTermCmd.Flags().BoolVar(&termNoMergePillar, "no-merge-pillar", false, "Ignore pillar data for this term")
}
