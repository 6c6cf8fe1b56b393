package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fundctl",
		Short:         "Emergency fund maintenance tool",
		SilenceUsage:  true,
	}
	root.AddCommand(
		newScheduleCmd(),
		newIDCmd(),
		newMigrateCmd(),
		newReconcileCmd(),
	)
	return root
}
