package adapter

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/kapu/youtube-channel-analyzer/internal/analytics"
	"github.com/kapu/youtube-channel-analyzer/internal/constants"
	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"github.com/kapu/youtube-channel-analyzer/internal/util"
)

const notAvailable = analytics.NotAvailable

// ReportOptions configures a ReportFormatter.
type ReportOptions struct {
	// rank metric that orders the table, default avg_views
	SortBy   string
	UseColor bool
}

// ReportFormatter renders analysis results for the terminal or as JSON.
type ReportFormatter struct {
	out     io.Writer
	sortBy  string
	heading *color.Color
	warn    *color.Color
}

// NewReportFormatter creates a formatter writing to out.
func NewReportFormatter(out io.Writer, opts ReportOptions) *ReportFormatter {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = domain.MetricAvgViews
	}

	heading := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)
	if opts.UseColor {
		heading.EnableColor()
		warn.EnableColor()
	} else {
		heading.DisableColor()
		warn.DisableColor()
	}

	return &ReportFormatter{out: out, sortBy: sortBy, heading: heading, warn: warn}
}

// SortBy returns the metric whose rank orders the table.
func (f *ReportFormatter) SortBy() string {
	return f.sortBy
}

// SortResults returns a copy ordered by the sort metric's rank. Unranked
// channels go last and ties keep their input order.
func (f *ReportFormatter) SortResults(results []domain.ChannelResult) []domain.ChannelResult {
	sorted := make([]domain.ChannelResult, len(results))
	copy(sorted, results)

	sort.SliceStable(sorted, func(i, j int) bool {
		ri, okI := sorted[i].Rank(f.sortBy)
		rj, okJ := sorted[j].Rank(f.sortBy)
		switch {
		case okI && okJ:
			return ri < rj
		case okI:
			return true
		default:
			return false
		}
	})
	return sorted
}

// Headers returns the table header row.
func (f *ReportFormatter) Headers() []string {
	first := "Rank(Views)"
	if f.sortBy != domain.MetricAvgViews {
		first = fmt.Sprintf("Rank(%s)", f.sortBy)
	}
	return []string{
		first, "Channel Name", "Subs", "Rank", "Videos(30d)", "Rank",
		"Avg ER(%)", "Rank", "Avg Views/Vid(30d)", "Rank", "Avg Dur(30d)", "Rank",
		"Trend(%)", "Rank", "Date Added", "Obs. Videos",
	}
}

// Rows formats results in table order.
func (f *ReportFormatter) Rows(results []domain.ChannelResult) [][]string {
	sorted := f.SortResults(results)
	rows := make([][]string, 0, len(sorted))
	for i := range sorted {
		rows = append(rows, f.row(&sorted[i]))
	}
	return rows
}

func (f *ReportFormatter) row(r *domain.ChannelResult) []string {
	w := r.Window
	if w == nil {
		w = &domain.WindowStats{}
	}

	avgViews30d := notAvailable
	var avgDur30d *int64
	if r.Window != nil {
		avgViews30d = util.FormatThousands(w.AvgViewsPerVideo30d)
		avgDur30d = &w.AvgDurationSec30d
	}

	return []string{
		formatRank(r, f.sortBy),
		util.TruncateString(r.ChannelName, constants.StringLimits.ChannelName),
		formatSubscribers(r.SubscriberCount),
		formatRank(r, domain.MetricSubscriberCount),
		util.FormatThousands(w.VideosLast30dCount),
		formatRank(r, domain.MetricVideosLast30dCount),
		fmt.Sprintf("%.2f", w.AvgEngagementRate),
		formatRank(r, domain.MetricAvgEngagementRate),
		avgViews30d,
		formatRank(r, domain.MetricAvgViewsPerVideo30d),
		analytics.FormatOptionalDuration(avgDur30d),
		formatRank(r, domain.MetricAvgDurationSec30d),
		FormatTrend(w.ViewTrendRatio),
		formatRank(r, domain.MetricViewTrendRatio),
		formatDate(r.DateAdded),
		util.FormatThousands(r.ObservedVideosCount),
	}
}

func formatRank(r *domain.ChannelResult, metric string) string {
	rank, ok := r.Rank(metric)
	if !ok {
		return notAvailable
	}
	return strconv.Itoa(rank)
}

func formatSubscribers(subs *int64) string {
	if subs == nil {
		return "Hidden"
	}
	return util.FormatThousands(*subs)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return notAvailable
	}
	return util.FormatDate(*t)
}

// FormatTrend renders a trend ratio as a signed percentage change.
func FormatTrend(ratio *float64) string {
	switch {
	case ratio == nil || math.IsNaN(*ratio):
		return notAvailable
	case math.IsInf(*ratio, 1):
		return "+Inf%"
	}
	return fmt.Sprintf("%+.1f%%", (*ratio-1)*100)
}

func newReportTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignRight},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
}

// RenderTable writes the ranking table.
func (f *ReportFormatter) RenderTable(results []domain.ChannelResult) error {
	f.heading.Fprintln(f.out, "--- Final Results & Ranking ---")
	if len(results) == 0 {
		f.warn.Fprintln(f.out, "No results to display.")
		return nil
	}

	table := newReportTable(f.out)
	table.Header(f.Headers())
	if err := table.Bulk(f.Rows(results)); err != nil {
		return fmt.Errorf("build report table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render report table: %w", err)
	}
	return nil
}

// RenderGroupAggregates writes the min/avg/max table.
func (f *ReportFormatter) RenderGroupAggregates(aggregates []analytics.GroupAggregate) error {
	f.heading.Fprintln(f.out, "--- Group Aggregate Statistics ---")

	rows := make([][]string, 0, len(aggregates))
	for _, agg := range aggregates {
		rows = append(rows, []string{
			agg.Metric,
			formatAggregate(agg.Min, 'f', -1),
			formatAggregate(agg.Avg, 'f', 2),
			formatAggregate(agg.Max, 'f', -1),
			strconv.Itoa(agg.Count),
		})
	}

	table := newReportTable(f.out)
	table.Header([]string{"Metric", "Min", "Avg", "Max", "Count"})
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("build aggregate table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render aggregate table: %w", err)
	}
	return nil
}

func formatAggregate(v *float64, format byte, prec int) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*v, format, prec, 64)
}

// jsonReport is the machine-readable form of a run.
type jsonReport struct {
	SortBy     string                     `json:"sort_by"`
	Channels   []map[string]any           `json:"channels"`
	Aggregates []analytics.GroupAggregate `json:"group_aggregates"`
}

// RenderJSON writes results in table order plus the aggregates. Infinite
// values are written as the string "+Inf" since JSON has no infinity.
func (f *ReportFormatter) RenderJSON(results []domain.ChannelResult, aggregates []analytics.GroupAggregate) error {
	sorted := f.SortResults(results)
	report := jsonReport{
		SortBy:     f.sortBy,
		Channels:   make([]map[string]any, 0, len(sorted)),
		Aggregates: aggregates,
	}
	if report.Aggregates == nil {
		report.Aggregates = []analytics.GroupAggregate{}
	}

	for i := range sorted {
		record := sorted[i].AsMap()
		for key, value := range record {
			if v, ok := value.(float64); ok && (math.IsInf(v, 0) || math.IsNaN(v)) {
				record[key] = analytics.Number(v).String()
			}
		}
		report.Channels = append(report.Channels, record)
	}

	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// Render writes either the JSON report or both tables.
func (f *ReportFormatter) Render(results []domain.ChannelResult, asJSON bool) error {
	aggregates := analytics.CalculateGroupAggregates(results, nil)
	if asJSON {
		return f.RenderJSON(results, aggregates)
	}

	if err := f.RenderTable(results); err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	fmt.Fprintln(f.out)
	return f.RenderGroupAggregates(aggregates)
}
