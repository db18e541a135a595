package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/foundryerp/internal/api/client"
	"github.com/foundryerp/internal/models"
	"github.com/spf13/cobra"
)

func NewLoginCommand() *cobra.Command {
	var username, password string

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Login and print an API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := client.Login(os.Getenv("FOUNDRYERP_API_URL"), username, password)
			if err != nil {
				return err
			}
			fmt.Printf("export FOUNDRYERP_TOKEN=%s\n", token)
			return nil
		},
	}
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")
	return loginCmd
}

func NewReportCommand() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Manage report templates, runs and generated files",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List report templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			templates, err := c.ListTemplates()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "ID\tNAME\tSOURCE\tACTIVE\t")
			for _, t := range templates {
				source := t.SourceName
				if source == "" {
					source = "default"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t\n", t.ID, t.Name, source, t.IsActive)
			}
			return w.Flush()
		},
	}

	runCmd := &cobra.Command{
		Use:   "run [report-id]",
		Short: "Execute a report now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			logRow, err := c.RunReport(id)
			if err != nil {
				return err
			}
			if logRow.Status == models.LogStatusSuccess {
				fmt.Printf("Report generated: %s (%d rows, %d ms)\n",
					logRow.FileName, logRow.RecordCount, logRow.DurationMs)
			} else {
				fmt.Printf("Report failed: %s\n", logRow.ErrorMessage)
			}
			return nil
		},
	}

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent execution logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			logs, err := c.ListLogs()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "ID\tREPORT\tSTATUS\tROWS\tMS\tFILE\tERROR\t")
			for _, l := range logs {
				fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\t%s\t%s\t\n",
					l.ID, l.ReportID, l.Status, l.RecordCount, l.DurationMs, l.FileName, l.ErrorMessage)
			}
			return w.Flush()
		},
	}

	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "List generated report files",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			files, err := c.ListFiles()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "NAME\tSIZE\tCREATED\t")
			for _, f := range files {
				fmt.Fprintf(w, "%s\t%d\t%s\t\n",
					f.Name, f.Size, f.CreatedAt.Format("02 Jan 2006 15:04"))
			}
			return w.Flush()
		},
	}

	rmFileCmd := &cobra.Command{
		Use:   "rm [file-name]",
		Short: "Delete a generated report file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			if err := c.DeleteFile(args[0]); err != nil {
				return err
			}
			fmt.Println("File deleted")
			return nil
		},
	}

	reportCmd.AddCommand(listCmd, runCmd, logsCmd, filesCmd, rmFileCmd)
	return reportCmd
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", arg)
	}
	return uint(id), nil
}
