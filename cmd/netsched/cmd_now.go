package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"netsched/internal/model"
)

var (
	nowAt    string
	nowLimit int
	dayAt    string
)

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Show nets that are live, starting soon, or upcoming today",
	Args:  cobra.NoArgs,
	RunE:  runNow,
}

var dayCmd = &cobra.Command{
	Use:   "day [weekday]",
	Short: "List the nets held on a weekday (default today)",
	Long: `List the nets held on a weekday, sorted by start time.

Week-of-month limits are evaluated against today's date. On today's
weekday each net is tagged live, soon or upcoming.

Examples:
  netsched day
  netsched day thursday
  netsched day sat --at 2026-03-07T08:00:00-08:00`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDay,
}

func init() {
	nowCmd.Flags().StringVar(&nowAt, "at", "", "Evaluate at this RFC3339 time instead of now")
	nowCmd.Flags().IntVar(&nowLimit, "limit", 0, "Maximum upcoming nets to show (default config upcoming_limit)")
	dayCmd.Flags().StringVar(&dayAt, "at", "", "Evaluate at this RFC3339 time instead of now")
	rootCmd.AddCommand(nowCmd, dayCmd)
}

func runNow(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	now, err := e.clock(nowAt)
	if err != nil {
		return err
	}
	ref := model.InstantOf(now)
	b := e.resolver.ClassifyToday(ref)

	limit := nowLimit
	if limit <= 0 {
		limit = e.cfg.UpcomingLimit
	}
	upcoming := b.Upcoming
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}

	out := cmd.OutOrStdout()
	printHeader(out, now, e.catalog.Region)
	printSection(out, "LIVE NOW", b.Live)
	printSection(out, "STARTING SOON", b.Soon)
	printSection(out, "UPCOMING", upcoming)
	if len(b.Live)+len(b.Soon)+len(b.Upcoming) == 0 {
		fmt.Fprintln(out, "No nets in the next two hours.")
	}
	return nil
}

func runDay(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	now, err := e.clock(dayAt)
	if err != nil {
		return err
	}
	ref := model.InstantOf(now)

	day := ref.Weekday()
	if len(args) == 1 && !strings.EqualFold(args[0], "today") {
		if day, err = model.ParseWeekday(args[0]); err != nil {
			return err
		}
	}

	occ, err := e.resolver.Day(ref, day)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printHeader(out, now, e.catalog.Region)
	fmt.Fprintf(out, "%s: %d nets\n", strings.ToUpper(model.WeekdayName(day)), len(occ))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, o := range occ {
		status := ""
		if o.Classification != model.ClassNone {
			status = strings.ToUpper(string(o.Classification))
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			o.Net.Time.Format12h(), o.Net.Name, o.Net.Channel.String(), o.Net.RuleText, status)
	}
	return tw.Flush()
}

func printHeader(w io.Writer, now time.Time, region string) {
	fmt.Fprintf(w, "%s", now.Format("Monday, January 2, 2006 3:04 PM MST"))
	if region != "" {
		fmt.Fprintf(w, "  (%s)", region)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

func printSection(w io.Writer, title string, nets []model.NetDefinition) {
	if len(nets) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d)\n", title, len(nets))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range nets {
		note := n.Note
		if n.RuleText != "" {
			note = strings.TrimSpace(n.RuleText + " " + note)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", n.Time.Format12h(), n.Name, n.Channel.String(), note)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}
