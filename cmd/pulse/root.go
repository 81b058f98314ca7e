package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pulse",
		Short:         "Pulse runs OSC automation node graphs",
		Long:          `Pulse loads node graphs from YAML or JSON definitions and runs them against the VRChat OSC interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().StringP("config", "c", "", "Engine config file (.yaml, .yml or .json)")

	root.AddCommand(newRunCmd(), newValidateCmd(), newNodesCmd())
	return root
}
