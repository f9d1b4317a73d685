package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"netsched/internal/ics"
	appLog "netsched/internal/log"
	"netsched/internal/model"
	"netsched/internal/schedule"
)

var (
	icsDays   int
	icsOutput string
	icsAt     string
)

var icsCmd = &cobra.Command{
	Use:   "ics",
	Short: "Export upcoming net occurrences as an iCalendar file",
	Long: `Expand the catalog into dated occurrences starting today and write them
as an iCalendar (RFC 5545) feed.

Examples:
  netsched ics > nets.ics
  netsched ics --days 31 -o /var/www/nets.ics`,
	Args: cobra.NoArgs,
	RunE: runICS,
}

func init() {
	icsCmd.Flags().IntVar(&icsDays, "days", 0, "Number of days to export (default config horizon_days)")
	icsCmd.Flags().StringVarP(&icsOutput, "output", "o", "", "Write to file instead of stdout")
	icsCmd.Flags().StringVar(&icsAt, "at", "", "Start from the date of this RFC3339 time instead of today")
	rootCmd.AddCommand(icsCmd)
}

func runICS(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	now, err := e.clock(icsAt)
	if err != nil {
		return err
	}

	days := icsDays
	if days <= 0 {
		days = e.cfg.HorizonDays
	}
	res, err := schedule.Expand(e.resolver.Nets(), schedule.ExpandConfig{
		Location: e.loc,
		From:     model.DateOf(now),
		Days:     days,
	})
	if err != nil {
		return fmt.Errorf("expand: %w", err)
	}

	name := e.catalog.Region
	if name == "" {
		name = "Nets"
	}
	body, err := ics.Export(res.Occurrences, ics.ExportOptions{Name: name, Stamp: now})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if icsOutput == "" {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}
	if err := os.WriteFile(icsOutput, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", icsOutput, err)
	}
	appLog.Info("ics written", "path", icsOutput, "events", len(res.Occurrences), "days", days)
	return nil
}
