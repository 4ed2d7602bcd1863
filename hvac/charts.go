package hvac

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/hvac-insights/generic"
)

// =============================================================================
// REVENUE BY MONTH
// =============================================================================

// DefaultChartMonths is the number of months RevenueByMonth returns when asked
// for zero or fewer.
const DefaultChartMonths = 6

type MonthlyRevenue struct {
	Month   string          `json:"month"` // short name, e.g. "Jan"
	Start   time.Time       `json:"start"`
	Revenue decimal.Decimal `json:"revenue"`
	Margin  decimal.Decimal `json:"margin"`
}

// RevenueByMonth returns paid revenue and margin for consecutive calendar
// months starting in January of asOf's year. Margin subtracts the cost of
// invoiced jobs that recorded actual hours.
func (e *Engine) RevenueByMonth(asOf time.Time, months int) []MonthlyRevenue {
	asOf = e.resolve(asOf)
	if months <= 0 {
		months = DefaultChartMonths
	}
	invoices := e.store.Invoices()
	start := generic.YearStart(asOf)

	out := make([]MonthlyRevenue, 0, months)
	for i := 0; i < months; i++ {
		w := generic.CalendarMonth(start.AddDate(0, i, 0))
		revenue, costs := decimal.Zero, decimal.Zero
		for _, inv := range invoices {
			if !w.ContainsPtr(inv.PaidAt) {
				continue
			}
			revenue = revenue.Add(inv.Total)
			if j, ok := e.store.JobByID(inv.JobID); ok && j.HasActualHours() {
				costs = costs.Add(e.jobCost(j))
			}
		}
		out = append(out, MonthlyRevenue{
			Month:   w.Start.Format("Jan"),
			Start:   w.Start,
			Revenue: revenue,
			Margin:  revenue.Sub(costs),
		})
	}
	return out
}

// =============================================================================
// TOP CLIENTS
// =============================================================================

const DefaultTopClients = 10

type ClientRevenue struct {
	Client  Client          `json:"client"`
	Revenue decimal.Decimal `json:"revenue"`
	Margin  decimal.Decimal `json:"margin"`
}

// TopClientsByRevenue ranks clients by paid revenue on jobs completed in the
// trailing 180 days. Clients without revenue are left out. Ties keep store
// order.
func (e *Engine) TopClientsByRevenue(limit int, asOf time.Time) []ClientRevenue {
	asOf = e.resolve(asOf)
	if limit <= 0 {
		limit = DefaultTopClients
	}
	window := generic.Trailing(asOf, ClientWindowDays)

	var out []ClientRevenue
	for _, c := range e.store.Clients() {
		revenue, costs := decimal.Zero, decimal.Zero
		for _, j := range e.store.JobsByClientID(c.ID) {
			if !completedIn(j, window) {
				continue
			}
			inv, ok := e.store.InvoiceByJobID(j.ID)
			if !ok || !inv.IsPaid() {
				continue
			}
			revenue = revenue.Add(inv.Total)
			if j.HasActualHours() {
				costs = costs.Add(e.jobCost(j))
			}
		}
		if revenue.IsPositive() {
			out = append(out, ClientRevenue{Client: c, Revenue: revenue, Margin: revenue.Sub(costs)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue.GreaterThan(out[j].Revenue)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// =============================================================================
// CALLBACK TRENDS
// =============================================================================

type CallbackTrend struct {
	Category   CallbackReason `json:"category"`
	Label      string         `json:"label"` // "Part Failure"
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// CallbackTrends groups callbacks whose root job completed in the trailing 90
// days by reason. Categories appear in order of first occurrence and the
// percentages sum to 100.
func (e *Engine) CallbackTrends(asOf time.Time) []CallbackTrend {
	asOf = e.resolve(asOf)
	recent := generic.Trailing(asOf, RecentDays)

	var out []CallbackTrend
	pos := make(map[CallbackReason]int)
	total := 0
	for _, cb := range e.store.Callbacks() {
		root, ok := e.store.JobByID(cb.RootJobID)
		if !ok || !completedIn(root, recent) {
			continue
		}
		total++
		i, seen := pos[cb.ReasonCategory]
		if !seen {
			i = len(out)
			pos[cb.ReasonCategory] = i
			out = append(out, CallbackTrend{Category: cb.ReasonCategory, Label: ReasonLabel(cb.ReasonCategory)})
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Percentage = ratio(out[i].Count, total)
	}
	return out
}

// ReasonLabel turns "part_failure" into "Part Failure".
func ReasonLabel(r CallbackReason) string {
	words := strings.Fields(strings.ReplaceAll(string(r), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// =============================================================================
// TEAM SUMMARY
// =============================================================================

// Coaching thresholds: a technician needs attention when any is crossed.
const (
	CoachingMinFTF          = 80.0
	CoachingMaxCallbackRate = 15.0
	CoachingMaxVariance     = 25.0
)

type TeamSummary struct {
	AvgEfficiency   float64             `json:"avg_efficiency"`
	AvgFTF          float64             `json:"avg_first_time_fix_rate"`
	AvgCallbackRate float64             `json:"avg_callback_rate"`
	NeedsCoaching   []CoachingNote      `json:"needs_coaching"`
	Technicians     []TechnicianMetrics `json:"technicians"`
}

type CoachingNote struct {
	TechnicianID string   `json:"technician_id"`
	Issues       []string `json:"issues"`
}

// CoachingIssues lists the coaching thresholds a technician crosses. An
// empty result means no coaching is needed. Technicians with no recent jobs
// have a zero first-time fix rate and are flagged.
func CoachingIssues(m TechnicianMetrics) []string {
	var issues []string
	if m.FirstTimeFixRate < CoachingMinFTF {
		issues = append(issues, "Low FTF rate")
	}
	if m.CallbackRate > CoachingMaxCallbackRate {
		issues = append(issues, "High callbacks")
	}
	if math.Abs(m.LaborVariancePercentage) > CoachingMaxVariance {
		issues = append(issues, "Time estimation")
	}
	return issues
}

// TeamSummary averages efficiency, first-time fix and callback rates across
// every technician and lists those needing coaching. Averages are 0 for an
// empty roster.
func (e *Engine) TeamSummary(asOf time.Time) TeamSummary {
	all := e.AllTechnicianMetrics(asOf)
	out := TeamSummary{Technicians: all, NeedsCoaching: []CoachingNote{}}
	if len(all) == 0 {
		return out
	}
	for _, m := range all {
		out.AvgEfficiency += m.EfficiencyIndex
		out.AvgFTF += m.FirstTimeFixRate
		out.AvgCallbackRate += m.CallbackRate
		if issues := CoachingIssues(m); len(issues) > 0 {
			out.NeedsCoaching = append(out.NeedsCoaching, CoachingNote{TechnicianID: m.TechnicianID, Issues: issues})
		}
	}
	n := float64(len(all))
	out.AvgEfficiency /= n
	out.AvgFTF /= n
	out.AvgCallbackRate /= n
	return out
}
