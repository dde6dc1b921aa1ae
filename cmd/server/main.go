// Package main is the entry point for the aequall server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aequall-api",
	Short: "Aequall game session server",
	Long:  `Aequall runs the turn economy, merchant ledger, and dice table for a game session, backed by Redis.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
