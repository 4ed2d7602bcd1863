/*
metrics.go - KPI, technician and client metrics

PURPOSE:
  Pure computations over the Store, evaluated as of a given instant. The same
  Store and asOf always produce the same result; nothing is cached.

WINDOWS:
  - Year to date:  [Jan 1 of asOf, asOf]          revenue_ytd, gross margin, over-budget
  - Month:         [MonthStart, MonthEnd] of asOf revenue_mtd
  - Trailing 90d:  [asOf-90d, asOf]               callback rates, technician metrics
  - Trailing 180d: [asOf-180d, asOf]              client metrics
  - Ahead 90d:     renewal_date <= asOf+90d       contracts due for renewal

JOB COST:
  labor_hours_actual x BlendedLaborCost(technician_ids) + parts + subcontractor

Missing references and empty windows resolve to documented defaults (labor
rate 50, efficiency 70, zeroed technician record, renewal likelihood 50).
No method here returns an error.

SEE ALSO:
  - charts.go: Series built on the same cost formula
  - generic/period.go: Window constructors
*/
package hvac

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/hvac-insights/generic"
)

// =============================================================================
// CONSTANTS
// =============================================================================

var (
	// OverheadMultiplier burdens a technician's hourly cost.
	OverheadMultiplier = decimal.RequireFromString("1.4")

	// DefaultLaborRate applies to an empty crew or an unknown technician.
	DefaultLaborRate = decimal.NewFromInt(50)

	// overBudgetTolerance lets actual hours run 10% past the estimate.
	overBudgetTolerance = 1.1

	hundred = decimal.NewFromInt(100)
)

const (
	// DefaultEfficiencyScore is the baseline for a technician with no record.
	DefaultEfficiencyScore = 70.0

	RecentDays       = 90
	ClientWindowDays = 180
	RenewalDays      = 90
)

// CallbackScope selects which callbacks count toward technician and client
// callback rates.
type CallbackScope string

const (
	// CallbackScopeAllTime counts every callback raised against any of the
	// technician's (or client's) jobs, while the denominator is the windowed
	// job count.
	CallbackScopeAllTime CallbackScope = "all_time"

	// CallbackScopeWindowed counts only callbacks whose root job is one of the
	// windowed jobs, so numerator and denominator share a time scope.
	CallbackScopeWindowed CallbackScope = "windowed"
)

// ParseCallbackScope maps a config value to a scope. Unknown values fall back
// to CallbackScopeAllTime.
func ParseCallbackScope(s string) CallbackScope {
	if CallbackScope(s) == CallbackScopeWindowed {
		return CallbackScopeWindowed
	}
	return CallbackScopeAllTime
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes metrics from a Store.
type Engine struct {
	store         *Store
	clock         generic.Clock
	log           zerolog.Logger
	callbackScope CallbackScope
}

type Option func(*Engine)

// WithClock sets the clock used when asOf is the zero time.
func WithClock(c generic.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "metrics").Logger() }
}

func WithCallbackScope(s CallbackScope) Option {
	return func(e *Engine) { e.callbackScope = s }
}

func NewEngine(store *Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		clock:         generic.SystemClock{},
		log:           zerolog.Nop(),
		callbackScope: CallbackScopeAllTime,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Store() *Store { return e.store }

// Now returns the engine clock's current instant.
func (e *Engine) Now() time.Time { return e.clock.Now() }

func (e *Engine) resolve(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return e.clock.Now()
	}
	return asOf
}

// BlendedLaborCost averages hourly_cost x OverheadMultiplier over the crew.
// An empty crew costs DefaultLaborRate; an unknown member contributes
// DefaultLaborRate to the average.
func (e *Engine) BlendedLaborCost(technicianIDs []string) decimal.Decimal {
	if len(technicianIDs) == 0 {
		return DefaultLaborRate
	}
	sum := decimal.Zero
	for _, id := range technicianIDs {
		if t, ok := e.store.TechnicianByID(id); ok {
			sum = sum.Add(t.HourlyCost.Mul(OverheadMultiplier))
		} else {
			sum = sum.Add(DefaultLaborRate)
		}
	}
	return sum.Div(decimal.NewFromInt(int64(len(technicianIDs))))
}

// JobCost is actual labor at the given hourly rate plus parts and
// subcontractor costs. Missing actual hours contribute no labor.
func JobCost(j Job, rate decimal.Decimal) decimal.Decimal {
	labor := decimal.NewFromFloat(j.ActualHours()).Mul(rate)
	return labor.Add(j.PartsCost).Add(j.SubcontractorCost)
}

// jobCost prices a job at its own crew's blended rate.
func (e *Engine) jobCost(j Job) decimal.Decimal {
	return JobCost(j, e.BlendedLaborCost(j.TechnicianIDs))
}

func completedIn(j Job, w generic.Window) bool {
	return w.ContainsPtr(j.CompletedAt)
}

// percent returns num/den x 100, or 0 when den is zero.
func percent(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.Div(den).Mul(hundred).InexactFloat64()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// =============================================================================
// KPI METRICS
// =============================================================================

// KPIMetrics computes the business-wide dashboard figures as of asOf. A zero
// asOf means now.
func (e *Engine) KPIMetrics(asOf time.Time) KPIMetrics {
	asOf = e.resolve(asOf)
	ytd := generic.YearToDate(asOf)
	mtd := generic.MonthToDate(asOf)
	recent := generic.Trailing(asOf, RecentDays)

	out := KPIMetrics{AsOf: asOf}

	// MTD is a subset of YTD: payments dated after asOf count toward neither.
	for _, inv := range e.store.Invoices() {
		if !ytd.ContainsPtr(inv.PaidAt) {
			continue
		}
		out.RevenueYTD = out.RevenueYTD.Add(inv.Total)
		if mtd.ContainsPtr(inv.PaidAt) {
			out.RevenueMTD = out.RevenueMTD.Add(inv.Total)
		}
	}

	// Gross margin and budget over jobs completed YTD.
	revenue, costs := decimal.Zero, decimal.Zero
	recentJobs := 0
	for _, j := range e.store.Jobs() {
		if completedIn(j, recent) {
			recentJobs++
		}
		if !completedIn(j, ytd) {
			continue
		}
		if j.HasActualHours() && j.ActualHours() > j.LaborHoursEstimated*overBudgetTolerance {
			out.JobsOverBudget++
		}
		inv, ok := e.store.InvoiceByJobID(j.ID)
		if !ok || !inv.IsPaid() {
			continue
		}
		revenue = revenue.Add(inv.Total)
		costs = costs.Add(e.jobCost(j))
	}
	out.GrossMarginPercentage = percent(revenue.Sub(costs), revenue)

	// Callbacks whose root job completed in the trailing window.
	recentCallbacks := 0
	for _, cb := range e.store.Callbacks() {
		if root, ok := e.store.JobByID(cb.RootJobID); ok && completedIn(root, recent) {
			recentCallbacks++
		}
	}
	if recentJobs > 0 {
		out.CallbackRate = ratio(recentCallbacks, recentJobs)
		out.FirstTimeFixRate = 100 - out.CallbackRate
	}

	for _, inv := range e.store.Invoices() {
		if inv.IsPaid() {
			continue
		}
		switch days := generic.DaysBetween(inv.IssuedAt, asOf); {
		case days <= 30:
			out.ARAging.Current = out.ARAging.Current.Add(inv.Total)
		case days <= 60:
			out.ARAging.Days30 = out.ARAging.Days30.Add(inv.Total)
		case days <= 90:
			out.ARAging.Days60 = out.ARAging.Days60.Add(inv.Total)
		default:
			out.ARAging.Days90Plus = out.ARAging.Days90Plus.Add(inv.Total)
		}
	}

	renewBy := generic.AddDays(asOf, RenewalDays)
	for _, c := range e.store.Contracts() {
		if c.Status == ContractActive && !c.RenewalDate.After(renewBy) {
			out.ContractsDueRenewal++
		}
	}

	e.log.Debug().
		Time("as_of", asOf).
		Int("recent_jobs", recentJobs).
		Int("recent_callbacks", recentCallbacks).
		Str("revenue_ytd", out.RevenueYTD.String()).
		Msg("kpi metrics computed")
	return out
}

// =============================================================================
// TECHNICIAN METRICS
// =============================================================================

// TechnicianMetrics scores one technician over jobs completed in the trailing
// 90 days. A technician with no such jobs gets a zeroed record.
func (e *Engine) TechnicianMetrics(technicianID string, asOf time.Time) TechnicianMetrics {
	asOf = e.resolve(asOf)
	recent := generic.Trailing(asOf, RecentDays)

	allJobs := e.store.JobsByTechnicianID(technicianID)
	var jobs []Job
	for _, j := range allJobs {
		if completedIn(j, recent) {
			jobs = append(jobs, j)
		}
	}

	out := TechnicianMetrics{TechnicianID: technicianID}
	if len(jobs) == 0 {
		e.log.Debug().Str("technician_id", technicianID).Msg("no completed jobs in window")
		return out
	}
	out.TotalJobs = len(jobs)

	callbackJobs := allJobs
	if e.callbackScope == CallbackScopeWindowed {
		callbackJobs = jobs
	}
	callbacks := 0
	for _, j := range callbackJobs {
		callbacks += len(e.store.CallbacksByRootJobID(j.ID))
	}
	out.CallbackRate = ratio(callbacks, len(jobs))
	out.FirstTimeFixRate = 100 - out.CallbackRate

	variance, varianceJobs := 0.0, 0
	for _, j := range jobs {
		if j.HasActualHours() && j.LaborHoursEstimated != 0 {
			variance += (j.ActualHours() - j.LaborHoursEstimated) / j.LaborHoursEstimated * 100
			varianceJobs++
		}
	}
	if varianceJobs > 0 {
		out.LaborVariancePercentage = variance / float64(varianceJobs)
	}

	rate := e.BlendedLaborCost([]string{technicianID})
	margin, marginJobs := decimal.Zero, 0
	for _, j := range jobs {
		inv, ok := e.store.InvoiceByJobID(j.ID)
		if !ok || !inv.IsPaid() || !j.HasActualHours() {
			continue
		}
		margin = margin.Add(inv.Total.Sub(JobCost(j, rate)))
		marginJobs++
	}
	if marginJobs > 0 {
		out.AvgMarginContribution = margin.Div(decimal.NewFromInt(int64(marginJobs)))
	}

	base := DefaultEfficiencyScore
	if t, ok := e.store.TechnicianByID(technicianID); ok {
		base = t.EfficiencyScore
	}
	out.EfficiencyIndex = clamp(base+ftfBonus(out.FirstTimeFixRate)+variancePenalty(out.LaborVariancePercentage), 0, 100)

	e.log.Debug().
		Str("technician_id", technicianID).
		Int("jobs", len(jobs)).
		Int("callbacks", callbacks).
		Msg("technician metrics computed")
	return out
}

func ftfBonus(ftf float64) float64 {
	switch {
	case ftf > 90:
		return 10
	case ftf > 80:
		return 5
	}
	return 0
}

func variancePenalty(variance float64) float64 {
	switch v := math.Abs(variance); {
	case v > 20:
		return -10
	case v > 10:
		return -5
	}
	return 0
}

// AllTechnicianMetrics computes TechnicianMetrics for every technician, in
// store order.
func (e *Engine) AllTechnicianMetrics(asOf time.Time) []TechnicianMetrics {
	asOf = e.resolve(asOf)
	techs := e.store.Technicians()
	out := make([]TechnicianMetrics, len(techs))
	for i, t := range techs {
		out[i] = e.TechnicianMetrics(t.ID, asOf)
	}
	return out
}

// =============================================================================
// CLIENT METRICS
// =============================================================================

// ClientMetrics scores one client over jobs completed in the trailing 180
// days.
func (e *Engine) ClientMetrics(clientID string, asOf time.Time) ClientMetrics {
	asOf = e.resolve(asOf)
	window := generic.Trailing(asOf, ClientWindowDays)

	allJobs := e.store.JobsByClientID(clientID)
	var jobs []Job
	for _, j := range allJobs {
		if completedIn(j, window) {
			jobs = append(jobs, j)
		}
	}

	out := ClientMetrics{ClientID: clientID}

	revenue, margin := decimal.Zero, decimal.Zero
	daysToPay, paidCount := 0, 0
	for _, j := range jobs {
		inv, ok := e.store.InvoiceByJobID(j.ID)
		if !ok || !inv.IsPaid() {
			continue
		}
		revenue = revenue.Add(inv.Total)
		if inv.DaysToPay != nil {
			daysToPay += *inv.DaysToPay
			paidCount++
		}
		if j.HasActualHours() {
			margin = margin.Add(inv.Total.Sub(e.jobCost(j)))
		}
	}
	out.Trailing6moRevenue = revenue
	if paidCount > 0 {
		out.AvgDaysToPay = float64(daysToPay) / float64(paidCount)
	}
	out.MarginPercentage = percent(margin, revenue)

	callbackJobs := allJobs
	if e.callbackScope == CallbackScopeWindowed {
		callbackJobs = jobs
	}
	callbacks := 0
	for _, j := range callbackJobs {
		callbacks += len(e.store.CallbacksByRootJobID(j.ID))
	}
	out.CallbackLoad = ratio(callbacks, len(jobs))

	out.RenewalLikelihood = 50
	if len(e.store.ContractsByClientID(clientID)) > 0 {
		out.RenewalLikelihood = renewalLikelihood(out.AvgDaysToPay, out.CallbackLoad, out.MarginPercentage)
	}
	out.ValueScore = ValueScore(revenue, out.MarginPercentage, out.AvgDaysToPay, out.CallbackLoad)

	e.log.Debug().
		Str("client_id", clientID).
		Int("jobs", len(jobs)).
		Int("callbacks", callbacks).
		Msg("client metrics computed")
	return out
}

func renewalLikelihood(avgDaysToPay, callbackLoad, marginPct float64) int {
	score := 50
	switch {
	case avgDaysToPay <= 20:
		score += 20
	case avgDaysToPay <= 35:
		score += 10
	case avgDaysToPay > 45:
		score -= 20
	}
	switch {
	case callbackLoad < 5:
		score += 15
	case callbackLoad > 15:
		score -= 15
	}
	switch {
	case marginPct > 25:
		score += 15
	case marginPct < 10:
		score -= 15
	}
	return int(clamp(float64(score), 0, 100))
}

var (
	revenueTier50k = decimal.NewFromInt(50000)
	revenueTier25k = decimal.NewFromInt(25000)
	revenueTier10k = decimal.NewFromInt(10000)
	revenueTier5k  = decimal.NewFromInt(5000)
)

// ValueScore sums four step-function tiers: revenue (max 40), margin (max 25),
// payment speed (max 20) and callback load (max 15). Every threshold is
// strict except the payment tiers, which include their bound.
func ValueScore(revenue decimal.Decimal, marginPct, avgDaysToPay, callbackLoad float64) int {
	score := 0
	switch {
	case revenue.GreaterThan(revenueTier50k):
		score += 40
	case revenue.GreaterThan(revenueTier25k):
		score += 30
	case revenue.GreaterThan(revenueTier10k):
		score += 20
	case revenue.GreaterThan(revenueTier5k):
		score += 10
	}
	switch {
	case marginPct > 30:
		score += 25
	case marginPct > 20:
		score += 20
	case marginPct > 15:
		score += 15
	case marginPct > 10:
		score += 10
	}
	switch {
	case avgDaysToPay <= 15:
		score += 20
	case avgDaysToPay <= 30:
		score += 15
	case avgDaysToPay <= 45:
		score += 10
	}
	switch {
	case callbackLoad < 5:
		score += 15
	case callbackLoad < 10:
		score += 10
	case callbackLoad < 15:
		score += 5
	}
	return score
}

// AllClientMetrics computes ClientMetrics for every client, in store order.
func (e *Engine) AllClientMetrics(asOf time.Time) []ClientMetrics {
	asOf = e.resolve(asOf)
	clients := e.store.Clients()
	out := make([]ClientMetrics, len(clients))
	for i, c := range clients {
		out[i] = e.ClientMetrics(c.ID, asOf)
	}
	return out
}
