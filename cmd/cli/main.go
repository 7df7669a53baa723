package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var hostURL string
	var rootCmd = &cobra.Command{Use: "coinnet-cli", Short: "queries a running coinnet node"}
	rootCmd.PersistentFlags().StringVar(&hostURL, "host", "http://localhost:48000", "url of the node to access")
	rootCmd.AddCommand(nodeCommand(&hostURL))
	rootCmd.AddCommand(accountCommand(&hostURL))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
