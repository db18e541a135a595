package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/foundryerp/internal/api/client"
	"github.com/spf13/cobra"
)

func NewScheduleCommand() *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage report schedules",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List report schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			schedules, err := c.ListSchedules()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "ID\tREPORT\tFREQUENCY\tTIME\tACTIVE\tLAST RUN\t")
			for _, s := range schedules {
				lastRun := "-"
				if s.LastRun != nil {
					lastRun = s.LastRun.Format("02 Jan 2006 15:04")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\t\n",
					s.ID, s.ReportName, s.Frequency, s.TimeOfDay, s.IsActive, lastRun)
			}
			return w.Flush()
		},
	}

	var (
		reportID   uint
		name       string
		frequency  string
		dayOfWeek  int
		dayOfMonth int
		timeOfDay  string
		recipients string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a report schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}

			body := map[string]interface{}{
				"ReportId":  reportID,
				"Frequency": frequency,
				"TimeOfDay": timeOfDay,
			}
			if name != "" {
				body["ScheduleName"] = name
			}
			if recipients != "" {
				body["Recipients"] = recipients
			}
			if cmd.Flags().Changed("day-of-week") {
				body["DayOfWeek"] = dayOfWeek
			}
			if cmd.Flags().Changed("day-of-month") {
				body["DayOfMonth"] = dayOfMonth
			}

			id, err := c.CreateSchedule(body)
			if err != nil {
				return err
			}
			fmt.Printf("Schedule %d created\n", id)
			return nil
		},
	}
	createCmd.Flags().UintVar(&reportID, "report", 0, "Report template ID")
	createCmd.Flags().StringVar(&name, "name", "", "Schedule display name")
	createCmd.Flags().StringVar(&frequency, "frequency", "daily", "Frequency (daily/weekly/monthly)")
	createCmd.Flags().IntVar(&dayOfWeek, "day-of-week", 1, "Day of week for weekly schedules (0=Sunday)")
	createCmd.Flags().IntVar(&dayOfMonth, "day-of-month", 1, "Day of month for monthly schedules")
	createCmd.Flags().StringVar(&timeOfDay, "time", "09:00", "Time of day, 24h HH:MM")
	createCmd.Flags().StringVar(&recipients, "recipients", "", "Comma separated email recipients")
	createCmd.MarkFlagRequired("report")

	deleteCmd := &cobra.Command{
		Use:   "delete [schedule-id]",
		Short: "Delete a report schedule",
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
			if err := c.DeleteSchedule(id); err != nil {
				return err
			}
			fmt.Println("Schedule deleted")
			return nil
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle [schedule-id]",
		Short: "Enable or disable a report schedule",
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
			if err := c.ToggleSchedule(id); err != nil {
				return err
			}
			fmt.Println("Schedule toggled")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show active scheduler jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			status, err := c.SchedulerStatus()
			if err != nil {
				return err
			}
			fmt.Printf("Active jobs: %d\n", status.ActiveJobs)
			fmt.Printf("Job IDs: %v\n", status.JobIDs)
			return nil
		},
	}

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Rebuild the scheduler from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			status, err := c.ReloadSchedules()
			if err != nil {
				return err
			}
			fmt.Printf("Scheduler reloaded, %d active jobs\n", status.ActiveJobs)
			return nil
		},
	}

	scheduleCmd.AddCommand(listCmd, createCmd, deleteCmd, toggleCmd, statusCmd, reloadCmd)
	return scheduleCmd
}
