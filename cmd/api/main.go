package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "0.3.0"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "autopublisher",
	Short: "Fiddy AutoPublisher - hands-off content pipelines for WordPress blogs",
	Long: `Fiddy AutoPublisher runs recurring content campaigns: it generates
draft posts on a schedule, passes them through a humanizer, and publishes
them to connected WordPress sites.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("autopublisher %s (built %s)\n", version, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
