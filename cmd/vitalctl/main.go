// Command vitalctl is the operator tool for the VitalVision backend. It prints
// and exercises the vital range table, manages the database schema and checks
// connectivity to every external dependency.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "vitalctl",
		Short:        "VitalVision operator tool",
		SilenceUsage: true,
	}
	cmd.AddCommand(rangesCmd())
	cmd.AddCommand(evaluateCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(checkCmd())
	return cmd
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
