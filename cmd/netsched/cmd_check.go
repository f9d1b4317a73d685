package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"netsched/internal/model"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and net catalog",
	Long: `Load the config and catalog, report every invalid record, and print a
per-weekday summary when the catalog is valid.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	src := e.cfg.Catalog
	if src == "" {
		src = "embedded"
	}
	fmt.Fprintf(out, "catalog: %s\n", src)
	if e.catalog.Region != "" {
		fmt.Fprintf(out, "region:  %s\n", e.catalog.Region)
	}
	fmt.Fprintf(out, "nets:    %d\n", len(e.catalog.Nets))

	var kinds [4]int
	constrained := 0
	for _, n := range e.catalog.Nets {
		kinds[n.Channel.Kind]++
		if n.Rule.Kind != model.Unconstrained {
			constrained++
		}
	}
	fmt.Fprintf(out, "channels: %d repeater, %d direct, %d system\n",
		kinds[model.ChannelRepeater], kinds[model.ChannelDirect], kinds[model.ChannelSystem])
	fmt.Fprintf(out, "week-of-month limited: %d\n", constrained)

	// Per weekday, before week-of-month limits.
	var perDay [7]int
	for _, n := range e.catalog.Nets {
		for _, d := range n.Days.Days() {
			perDay[d]++
		}
	}
	for d := range perDay {
		fmt.Fprintf(out, "  %-9s %d\n", model.WeekdayName(time.Weekday(d)), perDay[d])
	}
	fmt.Fprintln(out, "ok")
	return nil
}
