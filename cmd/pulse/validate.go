package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulse/pkg/pulse/definition"
	"github.com/randalmurphal/pulse/pkg/pulse/nodes"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <graph>...",
		Short: "Check graph definitions",
		Long:  `Builds each graph definition against the node registry and reports unknown node types, ports and mismatched connections.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, path := range args {
				g, err := definition.LoadGraph(path, nodes.Default())
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d nodes)\n", path, g.Len())
			}
			return errors.Join(errs...)
		},
	}
}
