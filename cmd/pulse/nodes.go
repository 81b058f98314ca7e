package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulse/pkg/pulse/nodes"
)

func newNodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the node types graphs can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, _ := cmd.Flags().GetString("prefix")
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, info := range nodes.Default().Types() {
				if strings.HasPrefix(info.Tag, prefix) {
					fmt.Fprintf(w, "%s\t%s\n", info.Tag, info.Description)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("prefix", "", "Only list types whose tag starts with prefix (e.g. math.)")
	return cmd
}
