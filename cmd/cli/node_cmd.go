package main

import (
	"github.com/spf13/cobra"
)

func nodeCommand(pHostURL *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "shows node informations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "height",
		Short: "returns the height of the chain",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printResult(DoRequest((*pHostURL), "node.height", []interface{}{}))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "peers",
		Short: "returns the connections of the node",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printResult(DoRequest((*pHostURL), "node.peers", []interface{}{}))
		},
	})
	return cmd
}
