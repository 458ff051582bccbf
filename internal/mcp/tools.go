package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/periodization"
	"github.com/claude/swimtrack/internal/report"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// defaultWindow returns the inclusive day window named by startStr and endStr.
// The end defaults to today and the start to days-1 days before the end.
func defaultWindow(startStr, endStr string, days int, now time.Time) (models.DateWindow, error) {
	end := models.Day(now)
	if endStr != "" {
		t, err := parseFlexTime(endStr)
		if err != nil {
			return models.DateWindow{}, err
		}
		end = t
	}

	start := models.AddDays(models.Day(end), -(days - 1))
	if startStr != "" {
		t, err := parseFlexTime(startStr)
		if err != nil {
			return models.DateWindow{}, err
		}
		start = t
	}

	return models.NewDateWindow(start, end)
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(models.DateLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolGetZoneLoad = mcp.NewTool("get_zone_load",
	mcp.WithDescription("Aggregate swim sessions in a date window: session count, total/average distance, duration and RPE, and the distance split over intensity zones z1..z5 with percentages."),
	mcp.WithString("start", mcp.Description("First day (YYYY-MM-DD). Defaults to 6 days before end.")),
	mcp.WithString("end", mcp.Description("Last day, inclusive (YYYY-MM-DD). Defaults to today.")),
)

var toolCompareWindows = mcp.NewTool("compare_windows",
	mcp.WithDescription("Compare two date windows. Window A is treated as current and B as previous; the change is (A-B)/B*100, reported as 100 when B is 0 and A is positive. Without a metric every metric is compared."),
	mcp.WithString("a_start", mcp.Required(), mcp.Description("Window A first day")),
	mcp.WithString("a_end", mcp.Required(), mcp.Description("Window A last day")),
	mcp.WithString("b_start", mcp.Description("Window B first day. Defaults to the equally long window just before A.")),
	mcp.WithString("b_end", mcp.Description("Window B last day. Required when b_start is set.")),
	mcp.WithString("metric", mcp.Description("distance, sessions, duration, avg_rpe, avg_distance or zone:z1..zone:z5")),
)

var toolFindBestWindow = mcp.NewTool("find_best_window",
	mcp.WithDescription("Find the highest-distance block in the whole session history. In 'sessions' mode the block is that many consecutive sessions; in 'days' mode it is that many calendar days."),
	mcp.WithNumber("length", mcp.Required(), mcp.Description("Block length (sessions or days), at least 1")),
	mcp.WithString("mode", mcp.Description("Block mode. Defaults to the server setting."), mcp.Enum("sessions", "days")),
)

var toolGetWeeklyTotals = mcp.NewTool("get_weekly_totals",
	mcp.WithDescription("Distance, duration and session count per Monday-based week, with week-over-week change. Weeks without sessions are included."),
	mcp.WithString("start", mcp.Description("First day. Defaults to 8 weeks before end.")),
	mcp.WithString("end", mcp.Description("Last day. Defaults to today.")),
)

var toolGetMacrocycle = mcp.NewTool("get_macrocycle",
	mcp.WithDescription("List the season's training phases in order with scheduled start/end dates, duration, intensity, weekly volume target and status (draft, scheduled, active, completed), plus the competitions."),
)

var toolGetPhaseLoad = mcp.NewTool("get_phase_load",
	mcp.WithDescription("Zone load achieved during one scheduled training phase, compared with the phase's weekly volume target."),
	mcp.WithString("phase_id", mcp.Description("Phase id. Defaults to the phase active today.")),
)

var toolGetMainCompetition = mcp.NewTool("get_main_competition",
	mcp.WithDescription("The main upcoming competition: highest priority, then earliest date. Includes days remaining."),
)

var toolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription("Training dashboard: this week vs last week, best 7 and 30 blocks, recent weekly volume, current phase and main competition."),
)

// --- Tool handlers ---

func (h *handlers) getZoneLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	win, err := defaultWindow(req.GetString("start", ""), req.GetString("end", ""), 7, h.now())
	if err != nil {
		return mcp.NewToolResultError("invalid window: " + err.Error()), nil
	}

	sessions, err := h.ds.QuerySessions(ctx, win.Start, win.End, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_zone_load", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	res, err := analytics.Aggregate(sessions, win)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) compareWindows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	aStart, err := req.RequireString("a_start")
	if err != nil {
		return mcp.NewToolResultError("a_start parameter is required"), nil
	}
	aEnd, err := req.RequireString("a_end")
	if err != nil {
		return mcp.NewToolResultError("a_end parameter is required"), nil
	}
	a, err := defaultWindow(aStart, aEnd, 1, h.now())
	if err != nil {
		return mcp.NewToolResultError("invalid window A: " + err.Error()), nil
	}

	b := models.PreviousWindow(a)
	bStart, bEnd := req.GetString("b_start", ""), req.GetString("b_end", "")
	if bStart != "" || bEnd != "" {
		if bStart == "" || bEnd == "" {
			return mcp.NewToolResultError("b_start and b_end must be given together"), nil
		}
		if b, err = defaultWindow(bStart, bEnd, 1, h.now()); err != nil {
			return mcp.NewToolResultError("invalid window B: " + err.Error()), nil
		}
	}

	first, last := a.Start, a.End
	if b.Start.Before(first) {
		first = b.Start
	}
	if b.End.After(last) {
		last = b.End
	}
	sessions, err := h.ds.QuerySessions(ctx, first, last, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp compare_windows", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if metric := req.GetString("metric", ""); metric != "" {
		cmp, err := analytics.CompareWindows(sessions, a, b, metric)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(cmp)
	}
	all, err := analytics.CompareAll(sessions, a, b)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(all)
}

func (h *handlers) findBestWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	length := req.GetInt("length", 0)
	if length <= 0 {
		return mcp.NewToolResultError("length must be a positive integer"), nil
	}
	mode := h.mode
	if m := req.GetString("mode", ""); m != "" {
		parsed, err := analytics.ParseWindowMode(m)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		mode = parsed
	}

	sessions, err := h.ds.QuerySessions(ctx, time.Time{}, time.Time{}, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp find_best_window", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	best, err := analytics.FindBestWindow(sessions, length, mode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(best)
}

func (h *handlers) getWeeklyTotals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	win, err := defaultWindow(req.GetString("start", ""), req.GetString("end", ""), 7*report.RecentWeeks, h.now())
	if err != nil {
		return mcp.NewToolResultError("invalid window: " + err.Error()), nil
	}

	sessions, err := h.ds.QuerySessions(ctx, win.Start, win.End, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_weekly_totals", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	weeks, err := analytics.WeeklyTotals(sessions, win)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(weeks)
}

// phaseStatus is a phase with its status on the day the tool ran.
type phaseStatus struct {
	models.TrainingPhase
	Status models.PhaseStatus `json:"status"`
}

// macrocycle is the get_macrocycle payload.
type macrocycle struct {
	Phases       []phaseStatus        `json:"phases"`
	Competitions []models.Competition `json:"competitions"`
}

func (h *handlers) loadMacrocycle(ctx context.Context) (macrocycle, error) {
	uid := UserIDFromContext(ctx)
	var phases []models.TrainingPhase
	var comps []models.Competition

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		phases, err = h.ds.LoadPhases(gctx, uid)
		return err
	})
	g.Go(func() (err error) {
		comps, err = h.ds.LoadCompetitions(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return macrocycle{}, err
	}

	now := h.now()
	m := macrocycle{Phases: []phaseStatus{}, Competitions: comps}
	for _, p := range periodization.SortByOrder(phases) {
		m.Phases = append(m.Phases, phaseStatus{TrainingPhase: p, Status: p.StatusAt(now)})
	}
	if m.Competitions == nil {
		m.Competitions = []models.Competition{}
	}
	return m, nil
}

func (h *handlers) getMacrocycle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.loadMacrocycle(ctx)
	if err != nil {
		h.log.Error("mcp get_macrocycle", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(m)
}

func (h *handlers) getPhaseLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	phases, err := h.ds.LoadPhases(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_phase_load", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	var phase models.TrainingPhase
	var ok bool
	if raw := req.GetString("phase_id", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError("invalid phase_id: " + err.Error()), nil
		}
		for _, p := range phases {
			if p.ID == id {
				phase, ok = p, true
				break
			}
		}
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("phase %s not found", id)), nil
		}
	} else if phase, ok = periodization.CurrentPhase(phases, h.now()); !ok {
		return mcp.NewToolResultError("no phase is active today"), nil
	}

	win, dated := phase.Window()
	if !dated {
		return mcp.NewToolResultError(fmt.Sprintf("phase %q has no dates yet", phase.Name)), nil
	}
	sessions, err := h.ds.QuerySessions(ctx, win.Start, win.End, uid)
	if err != nil {
		h.log.Error("mcp get_phase_load", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	res, err := analytics.AggregatePhase(sessions, phase)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	actual := res.TotalDistanceM / float64(phase.DurationWeeks)
	return jsonResult(map[string]any{
		"phase":                  phase,
		"load":                   res,
		"target_weekly_volume_m": phase.WeeklyVolumeM,
		"actual_weekly_volume_m": actual,
		"volume_change_pct":      analytics.PercentChange(actual, phase.WeeklyVolumeM),
	})
}

func (h *handlers) getMainCompetition(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	comps, err := h.ds.LoadCompetitions(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_main_competition", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	c, ok := periodization.MainCompetition(comps)
	if !ok {
		return mcp.NewToolResultText("no upcoming competition"), nil
	}
	return jsonResult(map[string]any{
		"competition": c,
		"days_until":  c.DaysUntil(h.now()),
	})
}

func (h *handlers) buildDashboard(ctx context.Context) (report.Dashboard, error) {
	uid := UserIDFromContext(ctx)
	var in report.Input

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.Sessions, err = h.ds.QuerySessions(gctx, time.Time{}, time.Time{}, uid)
		return err
	})
	g.Go(func() (err error) {
		in.Phases, err = h.ds.LoadPhases(gctx, uid)
		return err
	})
	g.Go(func() (err error) {
		in.Competitions, err = h.ds.LoadCompetitions(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.Dashboard{}, err
	}

	in.Now, in.Mode = h.now(), h.mode
	return report.Build(ctx, in)
}

func (h *handlers) getDashboard(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := h.buildDashboard(ctx)
	if err != nil {
		h.log.Error("mcp get_dashboard", "error", err)
		return mcp.NewToolResultError("dashboard failed: " + err.Error()), nil
	}
	return jsonResult(d)
}
