package main

import (
	"fmt"
	"os"

	"github.com/foundryerp/internal/cli/commands"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "foundryerp",
	Short: "FoundryERP CLI - report scheduling administration",
	Long: `FoundryERP CLI administers the scheduled report service:
report templates, recurring schedules, execution logs and generated PDFs.`,
}

func init() {
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewScheduleCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
