package main

import (
	"github.com/spf13/cobra"
)

func accountCommand(pHostURL *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "shows watched accounts and balances",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "returns the accounts watched by the node",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printResult(DoRequest((*pHostURL), "node.accounts", []interface{}{}))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "balance [account]",
		Short: "returns the balance of the account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			printResult(DoRequest((*pHostURL), "node.balance", []interface{}{args[0]}))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "utxos [account]",
		Short: "returns the unspent outputs of the account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			printResult(DoRequest((*pHostURL), "node.utxos", []interface{}{args[0]}))
		},
	})
	return cmd
}
