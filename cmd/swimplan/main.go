// Command swimplan runs the training analytics on local YAML session logs and
// season plans, without a server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/report"
	"github.com/claude/swimtrack/internal/sessionlog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command.
type options struct {
	logs   string
	season string
	today  string
	json   bool
}

func (o *options) now() (time.Time, error) {
	if o.today == "" {
		return models.Day(time.Now()), nil
	}
	return models.ParseDay(o.today)
}

func (o *options) sessions() ([]models.Session, error) {
	return sessionlog.ReadDir(o.logs)
}

// window parses a start/end flag pair. The end defaults to today and the
// start to days-1 days before it.
func (o *options) window(start, end string, days int) (models.DateWindow, error) {
	today, err := o.now()
	if err != nil {
		return models.DateWindow{}, err
	}
	e := today
	if end != "" {
		if e, err = models.ParseDay(end); err != nil {
			return models.DateWindow{}, err
		}
	}
	s := models.AddDays(e, -(days - 1))
	if start != "" {
		if s, err = models.ParseDay(start); err != nil {
			return models.DateWindow{}, err
		}
	}
	return models.NewDateWindow(s, e)
}

func (o *options) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "swimplan",
		Short:         "Swim training periodization and zone-load analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logs, "logs", ".", "directory of YAML session logs")
	root.PersistentFlags().StringVar(&opts.season, "season", "", "season plan YAML file")
	root.PersistentFlags().StringVar(&opts.today, "today", "", "evaluate as of this day (YYYY-MM-DD)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON")

	root.AddCommand(newZonesCmd(opts))
	root.AddCommand(newCompareCmd(opts))
	root.AddCommand(newBestWindowCmd(opts))
	root.AddCommand(newWeeklyCmd(opts))
	root.AddCommand(newScheduleCmd(opts))
	root.AddCommand(newDashboardCmd(opts))
	return root
}

func newZonesCmd(opts *options) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Zone load over a date window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			win, err := opts.window(start, end, 7)
			if err != nil {
				return err
			}
			sessions, err := opts.sessions()
			if err != nil {
				return err
			}
			res, err := analytics.Aggregate(sessions, win)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) { printZoneLoad(w, res) })
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day (default: 6 days before end)")
	cmd.Flags().StringVar(&end, "end", "", "last day (default: today)")
	return cmd
}

func printZoneLoad(w io.Writer, res analytics.ZoneLoadResult) {
	_, _ = fmt.Fprintf(w, "%s: %d sessions, %.0f m, avg RPE %.1f\n", res.Window, res.Sessions, res.TotalDistanceM, res.AvgRPE)
	for _, zl := range res.Zones {
		_, _ = fmt.Fprintf(w, "  %s %7.0f m %5.1f%%\n", zl.Zone, zl.DistanceM, zl.Pct)
	}
}

func newCompareCmd(opts *options) *cobra.Command {
	var aStart, aEnd, bStart, bEnd, metric string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare window A (current) with window B (previous)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.window(aStart, aEnd, 7)
			if err != nil {
				return fmt.Errorf("window A: %w", err)
			}
			b := models.PreviousWindow(a)
			if bStart != "" || bEnd != "" {
				if bStart == "" || bEnd == "" {
					return fmt.Errorf("--b-start and --b-end must be given together")
				}
				if b, err = opts.window(bStart, bEnd, 1); err != nil {
					return fmt.Errorf("window B: %w", err)
				}
			}
			sessions, err := opts.sessions()
			if err != nil {
				return err
			}

			var cmps []analytics.Comparison
			if metric != "" {
				c, err := analytics.CompareWindows(sessions, a, b, metric)
				if err != nil {
					return err
				}
				cmps = []analytics.Comparison{c}
			} else if cmps, err = analytics.CompareAll(sessions, a, b); err != nil {
				return err
			}

			return opts.print(cmd.OutOrStdout(), cmps, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "A %s vs B %s\n", a, b)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, c := range cmps {
					_, _ = fmt.Fprintf(tw, "  %s\t%.1f\t%.1f\t%+.1f%%\t%s\n", c.Metric, c.A, c.B, c.ChangePct, c.Direction)
				}
				_ = tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&aStart, "a-start", "", "window A first day (default: 6 days before a-end)")
	cmd.Flags().StringVar(&aEnd, "a-end", "", "window A last day (default: today)")
	cmd.Flags().StringVar(&bStart, "b-start", "", "window B first day (default: the window before A)")
	cmd.Flags().StringVar(&bEnd, "b-end", "", "window B last day")
	cmd.Flags().StringVar(&metric, "metric", "", "one metric: distance|sessions|duration|avg_rpe|avg_distance|zone:z1..z5")
	return cmd
}

func newBestWindowCmd(opts *options) *cobra.Command {
	var length int
	var mode string
	cmd := &cobra.Command{
		Use:   "best-window",
		Short: "Highest-distance block in the session history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := analytics.ParseWindowMode(mode)
			if err != nil {
				return err
			}
			sessions, err := opts.sessions()
			if err != nil {
				return err
			}
			best, err := analytics.FindBestWindow(sessions, length, m)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), best, func(w io.Writer) {
				if !best.Found {
					_, _ = fmt.Fprintf(w, "history shorter than %d %s: %.0f m over %d sessions\n", length, m, best.TotalDistanceM, best.Sessions)
					return
				}
				_, _ = fmt.Fprintf(w, "best %d %s: %s, %.0f m over %d sessions\n", length, m, best.Window, best.TotalDistanceM, best.Sessions)
			})
		},
	}
	cmd.Flags().IntVar(&length, "length", 7, "block length")
	cmd.Flags().StringVar(&mode, "mode", string(analytics.ModeSessionCount), "block mode: sessions|days")
	return cmd
}

func newWeeklyCmd(opts *options) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Volume per Monday-based week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			win, err := opts.window(start, end, 7*report.RecentWeeks)
			if err != nil {
				return err
			}
			sessions, err := opts.sessions()
			if err != nil {
				return err
			}
			weeks, err := analytics.WeeklyTotals(sessions, win)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), weeks, func(w io.Writer) {
				for _, wk := range weeks {
					_, _ = fmt.Fprintf(w, "%s  %2d sessions %7.0f m  %+6.1f%%\n", wk.WeekStart, wk.Sessions, wk.TotalDistanceM, wk.ChangePct)
				}
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day (default: 8 weeks before end)")
	cmd.Flags().StringVar(&end, "end", "", "last day (default: today)")
	return cmd
}

func newScheduleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule [season.yaml]",
		Short: "Schedule a season plan into calendar windows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.season
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("a season plan is required (argument or --season)")
			}
			today, err := opts.now()
			if err != nil {
				return err
			}
			season, err := sessionlog.ReadSeason(path)
			if err != nil {
				return err
			}
			st, err := season.Store(func() time.Time { return today })
			if err != nil {
				return err
			}
			phases := st.Phases()
			main, hasMain := st.MainCompetition()

			out := map[string]any{"phases": phases}
			if hasMain {
				out["main_competition"] = main
				out["days_until_main"] = main.DaysUntil(today)
			}
			return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, p := range phases {
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%dw\t%s\t%s\n", p.Order, p.Name, p.DurationWeeks, phaseDates(p), p.StatusAt(today))
				}
				_ = tw.Flush()
				if hasMain {
					_, _ = fmt.Fprintf(w, "main competition: %s on %s (%d days)\n", main.Name, main.Date.Format(models.DateLayout), main.DaysUntil(today))
				}
			})
		},
	}
}

func phaseDates(p models.TrainingPhase) string {
	w, ok := p.Window()
	if !ok {
		return "unscheduled"
	}
	return w.String()
}

func newDashboardCmd(opts *options) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "This week vs last week, best blocks, phase and main competition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := opts.now()
			if err != nil {
				return err
			}
			m, err := analytics.ParseWindowMode(mode)
			if err != nil {
				return err
			}
			in := report.Input{Now: today, Mode: m}
			if in.Sessions, err = opts.sessions(); err != nil {
				return err
			}
			if opts.season != "" {
				season, err := sessionlog.ReadSeason(opts.season)
				if err != nil {
					return err
				}
				st, err := season.Store(func() time.Time { return today })
				if err != nil {
					return err
				}
				in.Phases, in.Competitions = st.Phases(), st.Competitions()
			}

			d, err := report.Build(context.Background(), in)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), d, func(w io.Writer) { printDashboard(w, d) })
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(analytics.ModeSessionCount), "best block mode: sessions|days")
	return cmd
}

func printDashboard(w io.Writer, d report.Dashboard) {
	_, _ = fmt.Fprintf(w, "Dashboard %s\n\n", d.Date)
	_, _ = fmt.Fprint(w, "This week  ")
	printZoneLoad(w, d.ThisWeek)
	_, _ = fmt.Fprint(w, "Last week  ")
	printZoneLoad(w, d.LastWeek)
	for _, c := range d.WeekOverWeek {
		if c.Metric == "distance" {
			_, _ = fmt.Fprintf(w, "Distance %+.1f%% (%s)\n", c.ChangePct, c.Direction)
		}
	}
	for _, b := range []analytics.BestWindow{d.Best7, d.Best30} {
		if b.Found {
			_, _ = fmt.Fprintf(w, "Best %d %s: %s, %.0f m\n", b.Length, b.Mode, b.Window, b.TotalDistanceM)
		}
	}
	if d.CurrentPhase != nil {
		_, _ = fmt.Fprintf(w, "Phase: %s (%s)\n", d.CurrentPhase.Name, phaseDates(*d.CurrentPhase))
	}
	if d.MainCompetition != nil {
		_, _ = fmt.Fprintf(w, "Main competition: %s in %d days\n", d.MainCompetition.Name, *d.DaysUntilMain)
	}
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 40))
}
