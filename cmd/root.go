package cmd

import (
	"fmt"
	"log"
	"os"

	"Bt1QCast/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "1qcast_server",
	Short: "1QCast is a personal podcast service built on video feeds.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting 1QCast server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
