/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"bridge/domain/config"

	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Wallet bridge and transaction signing service",
	Long: `Runs the wallet side of the dApp bridge: keeps the relay stream open,
decrypts inbound requests, builds and signs transfers and broadcasts them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.ReadConfig(configFile)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.json", "config file path")
}
