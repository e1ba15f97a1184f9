package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "casectl",
		Short: "casectl - operator tool for the legal case api",
		Long: `casectl runs maintenance operations directly against the case database
as the system user. It reads the same environment as the api (DB_URI, DB_NAME, JWT_SECRET).`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(reconcileAllCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
