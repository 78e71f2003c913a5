package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/netgrid-labs/netacl/pkg/netacl"
)

var pillarCmd = &cobra.Command{
	Use:   "pillar",
	Short: "Show the pillar's ACL data",
	Long: `Show the pillar's ACL data without compiling or touching the device.

Examples:
  netacl pillar filter edge-in
  netacl pillar term edge-in allow-ssh
  netacl pillar filter edge-in --pillarenv prod`,
}

var pillarFilterCmd = &cobra.Command{
	Use:   "filter <filter>",
	Short: "Show pillar data for one filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *netacl.Service) error {
			filter, err := svc.GetFilterPillar(ctx, args[0], pillarOptions())
			if err != nil {
				return err
			}
			if filter.IsZero() {
				fmt.Printf("No pillar data for filter %q\n", args[0])
				return nil
			}
			return printYAML(filterTree(filter))
		})
	},
}

var pillarTermCmd = &cobra.Command{
	Use:   "term <filter> <term>",
	Short: "Show pillar data for one term",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *netacl.Service) error {
			fields, err := svc.GetTermPillar(ctx, args[0], args[1], pillarOptions())
			if err != nil {
				return err
			}
			if fields == nil {
				fmt.Printf("No pillar data for term %q in filter %q\n", args[1], args[0])
				return nil
			}
			return printYAML(fieldsTree(fields))
		})
	},
}

// filterTree and fieldsTree rebuild the pillar shape for display.
func filterTree(filter netacl.Filter) map[string]any {
	body := map[string]any{}
	if len(filter.Options) > 0 {
		body["options"] = filter.Options
	}
	if len(filter.Terms) > 0 {
		terms := make([]any, 0, len(filter.Terms))
		for _, term := range filter.Terms {
			terms = append(terms, map[string]any{term.Name: fieldsTree(term.Fields)})
		}
		body["terms"] = terms
	}
	return map[string]any{filter.Name: body}
}

func fieldsTree(fields netacl.TermFields) map[string]any {
	out := make(map[string]any, len(fields))
	for _, key := range fields.SortedKeys() {
		values := fields[key].Strings()
		if len(values) == 1 {
			out[key] = values[0]
		} else {
			out[key] = values
		}
	}
	return out
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func init() {
	pillarCmd.AddCommand(pillarFilterCmd)
	pillarCmd.AddCommand(pillarTermCmd)
}
