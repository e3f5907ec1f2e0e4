package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offlinetts-tools",
		Short: "Build and release tooling for offlinetts",
	}

	cmd.AddCommand(newPackageCmd())

	return cmd
}
