package hvac_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hvac-insights/hvac"
)

// =============================================================================
// BLENDED LABOR COST
// =============================================================================

func TestBlendedLaborCost(t *testing.T) {
	engine := newEngine(hvac.Dataset{
		Technicians: []hvac.Technician{technician("T1", 45, 80), technician("T2", 30, 75)},
	})

	assert.True(t, engine.BlendedLaborCost([]string{"T1"}).Equal(money(63)))
	assert.True(t, engine.BlendedLaborCost([]string{"T1", "T2"}).Equal(decimal.RequireFromString("52.5")))
	assert.True(t, engine.BlendedLaborCost(nil).Equal(money(50)), "empty crew uses the default rate")
	assert.True(t, engine.BlendedLaborCost([]string{"T1", "ghost"}).Equal(decimal.RequireFromString("56.5")),
		"unknown member contributes the default rate")
}

// =============================================================================
// KPI METRICS
// =============================================================================

func TestKPIMetrics_OverBudgetJobEndToEnd(t *testing.T) {
	// GIVEN: job completed 10 days ago, 25% over estimate, $365 cost, $600 paid
	engine := newEngine(overBudgetDataset())

	// WHEN
	kpi := engine.KPIMetrics(asOf)

	// THEN
	assert.Equal(t, 1, kpi.JobsOverBudget)
	assert.True(t, kpi.RevenueYTD.Equal(money(600)))
	assert.True(t, kpi.RevenueMTD.Equal(money(600)))
	assert.InDelta(t, 235.0/600.0*100, kpi.GrossMarginPercentage, 1e-9)
	assert.Equal(t, 0.0, kpi.CallbackRate)
	assert.Equal(t, 100.0, kpi.FirstTimeFixRate)
}

func TestKPIMetrics_ZeroInvoices(t *testing.T) {
	ds := hvac.Dataset{
		Clients:     []hvac.Client{client("C1")},
		Technicians: []hvac.Technician{technician("T1", 45, 80)},
		Jobs:        []hvac.Job{completedJob("J1", "C1", 5, 2, 2, "T1")},
	}
	engine := newEngine(ds)

	kpi := engine.KPIMetrics(asOf)

	assert.True(t, kpi.RevenueMTD.IsZero())
	assert.True(t, kpi.RevenueYTD.IsZero())
	assert.Equal(t, 0.0, kpi.GrossMarginPercentage)
	assert.True(t, kpi.ARAging.Total().IsZero())
}

func TestKPIMetrics_EmptyStore(t *testing.T) {
	kpi := newEngine(hvac.Dataset{}).KPIMetrics(asOf)

	assert.Equal(t, 0.0, kpi.CallbackRate)
	assert.Equal(t, 0.0, kpi.FirstTimeFixRate, "no completed jobs leaves both rates at 0")
	assert.Equal(t, 0, kpi.JobsOverBudget)
	assert.Equal(t, 0, kpi.ContractsDueRenewal)
}

func TestKPIMetrics_RevenueWindows(t *testing.T) {
	ds := hvac.Dataset{
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 5, 1, 1),
			completedJob("J2", "C1", 40, 1, 1),
			completedJob("J3", "C1", 200, 1, 1),
		},
		Invoices: []hvac.Invoice{
			paidInvoice("I1", "J1", 100, 2, 3),    // June: MTD and YTD
			paidInvoice("I2", "J2", 200, 30, 10),  // May: YTD only
			paidInvoice("I3", "J3", 400, 190, 10), // previous year
			openInvoice("I4", "J1", 999, 3),       // unpaid: no revenue
		},
	}
	engine := newEngine(ds)

	kpi := engine.KPIMetrics(asOf)

	assert.True(t, kpi.RevenueMTD.Equal(money(100)))
	assert.True(t, kpi.RevenueYTD.Equal(money(300)))
}

func TestKPIMetrics_PaymentsAfterAsOfAreExcluded(t *testing.T) {
	// GIVEN: one payment earlier this month and one later in the same month
	// than asOf
	paidLater := asOf.Add(5 * 24 * time.Hour)
	ds := hvac.Dataset{
		Invoices: []hvac.Invoice{
			paidInvoice("I1", "J1", 80, 3, 2),
			{ID: "I2", JobID: "J2", Total: money(50), IssuedAt: asOf, PaidAt: &paidLater},
		},
	}

	// WHEN
	kpi := newEngine(ds).KPIMetrics(asOf)

	// THEN: the later payment is outside the snapshot for both totals
	assert.True(t, kpi.RevenueMTD.Equal(money(80)), kpi.RevenueMTD.String())
	assert.True(t, kpi.RevenueYTD.Equal(money(80)), kpi.RevenueYTD.String())
	assert.True(t, kpi.RevenueMTD.LessThanOrEqual(kpi.RevenueYTD))
}

func TestKPIMetrics_OnlyFuturePaymentGivesZeroRevenue(t *testing.T) {
	paidLater := asOf.Add(5 * 24 * time.Hour)
	ds := hvac.Dataset{
		Invoices: []hvac.Invoice{{ID: "I1", JobID: "J1", Total: money(50), IssuedAt: asOf, PaidAt: &paidLater}},
	}

	kpi := newEngine(ds).KPIMetrics(asOf)

	assert.True(t, kpi.RevenueMTD.IsZero())
	assert.True(t, kpi.RevenueYTD.IsZero())
}

func TestKPIMetrics_CallbackRateCanExceed100(t *testing.T) {
	// GIVEN: one recent completed job with two callbacks against it
	ds := hvac.Dataset{
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 20, 2, 2, "T1"),
			scheduledJob("J2", "C1", "T1"),
			scheduledJob("J3", "C1", "T1"),
		},
		Callbacks: []hvac.Callback{
			callback("CB1", "J1", "J2", hvac.ReasonPartFailure),
			callback("CB2", "J1", "J3", hvac.ReasonWorkmanship),
		},
	}

	kpi := newEngine(ds).KPIMetrics(asOf)

	assert.Equal(t, 200.0, kpi.CallbackRate)
	assert.Equal(t, -100.0, kpi.FirstTimeFixRate)
	assert.Equal(t, 100.0, kpi.CallbackRate+kpi.FirstTimeFixRate)
}

func TestKPIMetrics_CallbacksCountOnlyForRecentRootJobs(t *testing.T) {
	ds := hvac.Dataset{
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 20, 2, 2),
			completedJob("J2", "C1", 30, 2, 2),
			completedJob("J3", "C1", 30, 2, 2),
			completedJob("J4", "C1", 40, 2, 2),
			completedJob("OLD", "C1", 120, 2, 2),
		},
		Callbacks: []hvac.Callback{
			callback("CB1", "J1", "J2", hvac.ReasonOther),
			callback("CB2", "OLD", "J1", hvac.ReasonOther),
		},
	}

	kpi := newEngine(ds).KPIMetrics(asOf)

	assert.Equal(t, 25.0, kpi.CallbackRate)
	assert.Equal(t, 75.0, kpi.FirstTimeFixRate)
}

func TestKPIMetrics_ARAgingBuckets(t *testing.T) {
	ds := hvac.Dataset{
		Invoices: []hvac.Invoice{
			openInvoice("I1", "J1", 100, 30),
			openInvoice("I2", "J2", 200, 31),
			openInvoice("I3", "J3", 300, 60),
			openInvoice("I4", "J4", 400, 90),
			openInvoice("I5", "J5", 500, 91),
			paidInvoice("I6", "J6", 999, 1, 200),
		},
	}

	aging := newEngine(ds).KPIMetrics(asOf).ARAging

	assert.True(t, aging.Current.Equal(money(100)))
	assert.True(t, aging.Days30.Equal(money(500)))
	assert.True(t, aging.Days60.Equal(money(400)))
	assert.True(t, aging.Days90Plus.Equal(money(500)))
}

func TestKPIMetrics_OverBudgetIgnoresMissingActuals(t *testing.T) {
	ds := hvac.Dataset{
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 5, 4, -1),  // no actual recorded
			completedJob("J2", "C1", 5, 4, 4.4), // exactly at tolerance
			completedJob("J3", "C1", 5, 4, 4.5), // over
		},
	}

	assert.Equal(t, 1, newEngine(ds).KPIMetrics(asOf).JobsOverBudget)
}

func TestKPIMetrics_ContractsDueRenewal(t *testing.T) {
	ds := hvac.Dataset{
		Contracts: []hvac.Contract{
			contract("K1", "C1", hvac.ContractActive, 30),
			contract("K2", "C1", hvac.ContractActive, 90),
			contract("K3", "C1", hvac.ContractActive, 91),
			contract("K4", "C1", hvac.ContractExpired, 10),
			contract("K5", "C1", hvac.ContractActive, -20),
		},
	}

	assert.Equal(t, 3, newEngine(ds).KPIMetrics(asOf).ContractsDueRenewal)
}

func TestKPIMetrics_ZeroAsOfUsesClock(t *testing.T) {
	engine := newEngine(overBudgetDataset())

	kpi := engine.KPIMetrics(time.Time{})

	assert.Equal(t, asOf, kpi.AsOf)
	assert.Equal(t, 1, kpi.JobsOverBudget)
}

// =============================================================================
// TECHNICIAN METRICS
// =============================================================================

func TestTechnicianMetrics_NoRecentJobsIsZeroed(t *testing.T) {
	ds := hvac.Dataset{
		Technicians: []hvac.Technician{technician("T1", 45, 95)},
		Jobs:        []hvac.Job{completedJob("J1", "C1", 120, 2, 3, "T1")},
	}

	m := newEngine(ds).TechnicianMetrics("T1", asOf)

	assert.Equal(t, hvac.TechnicianMetrics{TechnicianID: "T1"}, m)
}

func TestTechnicianMetrics_OverBudgetJob(t *testing.T) {
	engine := newEngine(overBudgetDataset())

	m := engine.TechnicianMetrics("T1", asOf)

	assert.Equal(t, 1, m.TotalJobs)
	assert.Equal(t, 0.0, m.CallbackRate)
	assert.Equal(t, 100.0, m.FirstTimeFixRate)
	assert.InDelta(t, 25.0, m.LaborVariancePercentage, 1e-9)
	assert.True(t, m.AvgMarginContribution.Equal(money(235)))
	// 80 base + 10 for FTF > 90 - 10 for variance > 20
	assert.Equal(t, 80.0, m.EfficiencyIndex)
}

func TestTechnicianMetrics_EfficiencyClampsAndDefaults(t *testing.T) {
	ds := hvac.Dataset{
		Technicians: []hvac.Technician{technician("T1", 40, 98)},
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 3, 4, 4, "T1"),
			completedJob("J2", "C1", 3, 4, 4, "GHOST"),
		},
	}
	engine := newEngine(ds)

	assert.Equal(t, 100.0, engine.TechnicianMetrics("T1", asOf).EfficiencyIndex, "98 + 10 clamps to 100")
	assert.Equal(t, 80.0, engine.TechnicianMetrics("GHOST", asOf).EfficiencyIndex, "missing record uses base 70")
}

func TestTechnicianMetrics_CallbacksAreUnwindowedByDefault(t *testing.T) {
	// GIVEN: two recent jobs, plus an old job with a callback
	ds := hvac.Dataset{
		Technicians: []hvac.Technician{technician("T1", 40, 70)},
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 5, 2, 2, "T1"),
			completedJob("J2", "C1", 6, 2, 2, "T1"),
			completedJob("OLD", "C1", 200, 2, 2, "T1"),
			scheduledJob("F1", "C1", "T1"),
		},
		Callbacks: []hvac.Callback{callback("CB1", "OLD", "F1", hvac.ReasonMisdiagnosis)},
	}

	allTime := newEngine(ds).TechnicianMetrics("T1", asOf)
	windowed := newEngine(ds, hvac.WithCallbackScope(hvac.CallbackScopeWindowed)).TechnicianMetrics("T1", asOf)

	assert.Equal(t, 50.0, allTime.CallbackRate)
	assert.Equal(t, 50.0, allTime.FirstTimeFixRate)
	assert.Equal(t, 0.0, windowed.CallbackRate)
	assert.Equal(t, 100.0, windowed.FirstTimeFixRate)
}

func TestTechnicianMetrics_MarginUsesOwnRateNotCrewBlend(t *testing.T) {
	// GIVEN: a two-person job; the margin for T1 prices all hours at T1's rate
	job := completedJob("J1", "C1", 5, 2, 2, "T1", "T2")
	ds := hvac.Dataset{
		Technicians: []hvac.Technician{technician("T1", 50, 70), technician("T2", 25, 70)},
		Jobs:        []hvac.Job{job},
		Invoices:    []hvac.Invoice{paidInvoice("I1", "J1", 500, 1, 4)},
	}

	m := newEngine(ds).TechnicianMetrics("T1", asOf)

	// 500 - 2h x 70
	assert.True(t, m.AvgMarginContribution.Equal(money(360)))
}

func TestTechnicianMetrics_VarianceSkipsJobsWithoutActuals(t *testing.T) {
	ds := hvac.Dataset{
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 5, 4, 3, "T1"), // -25%
			completedJob("J2", "C1", 5, 4, -1, "T1"),
			completedJob("J3", "C1", 5, 2, 2.3, "T1"), // +15%
		},
	}

	m := newEngine(ds).TechnicianMetrics("T1", asOf)

	assert.Equal(t, 3, m.TotalJobs)
	assert.InDelta(t, -5.0, m.LaborVariancePercentage, 1e-9)
	assert.True(t, m.AvgMarginContribution.IsZero(), "no paid invoices")
}

// =============================================================================
// CLIENT METRICS
// =============================================================================

func TestClientMetrics_NoContractsIsFifty(t *testing.T) {
	ds := hvac.Dataset{
		Clients:     []hvac.Client{client("C1")},
		Technicians: []hvac.Technician{technician("T1", 45, 80)},
		Jobs:        []hvac.Job{completedJob("J1", "C1", 10, 4, 1, "T1")},
		Invoices:    []hvac.Invoice{paidInvoice("I1", "J1", 1000, 5, 5)},
	}

	m := newEngine(ds).ClientMetrics("C1", asOf)

	assert.Equal(t, 50, m.RenewalLikelihood)
}

func TestClientMetrics_RenewalWithContract(t *testing.T) {
	// GIVEN: fast payer, no callbacks, healthy margin, one contract
	ds := hvac.Dataset{
		Clients:     []hvac.Client{client("C1")},
		Technicians: []hvac.Technician{technician("T1", 45, 80)},
		Jobs:        []hvac.Job{completedJob("J1", "C1", 10, 4, 1, "T1")},
		Invoices:    []hvac.Invoice{paidInvoice("I1", "J1", 1000, 5, 10)},
		Contracts:   []hvac.Contract{contract("K1", "C1", hvac.ContractActive, 200)},
	}

	m := newEngine(ds).ClientMetrics("C1", asOf)

	assert.True(t, m.Trailing6moRevenue.Equal(money(1000)))
	assert.Equal(t, 10.0, m.AvgDaysToPay)
	assert.InDelta(t, 93.7, m.MarginPercentage, 1e-9)
	assert.Equal(t, 0.0, m.CallbackLoad)
	// 50 + 20 + 15 + 15, clamped
	assert.Equal(t, 100, m.RenewalLikelihood)
	// revenue tier 0, margin 25, payment 20, callbacks 15
	assert.Equal(t, 60, m.ValueScore)
}

func TestClientMetrics_SlowPayerWithCallbacks(t *testing.T) {
	ds := hvac.Dataset{
		Clients: []hvac.Client{client("C1")},
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 10, 4, 4),
			completedJob("J2", "C1", 12, 4, 4),
			scheduledJob("F1", "C1"),
		},
		Invoices: []hvac.Invoice{
			paidInvoice("I1", "J1", 100, 1, 50),
			paidInvoice("I2", "J2", 100, 1, 60),
		},
		Contracts: []hvac.Contract{contract("K1", "C1", hvac.ContractActive, 200)},
		Callbacks: []hvac.Callback{callback("CB1", "J1", "F1", hvac.ReasonWorkmanship)},
	}

	m := newEngine(ds).ClientMetrics("C1", asOf)

	assert.Equal(t, 55.0, m.AvgDaysToPay)
	assert.Equal(t, 50.0, m.CallbackLoad)
	assert.Less(t, m.MarginPercentage, 10.0)
	// 50 - 20 - 15 - 15 clamps to 0
	assert.Equal(t, 0, m.RenewalLikelihood)
}

func TestClientMetrics_SameDayPaymentCountsInAverage(t *testing.T) {
	// GIVEN: one invoice paid the day it was issued and one after 10 days
	ds := hvac.Dataset{
		Clients: []hvac.Client{client("C1")},
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 10, 4, 4),
			completedJob("J2", "C1", 12, 4, 4),
		},
		Invoices: []hvac.Invoice{
			paidInvoice("I1", "J1", 100, 1, 0),
			paidInvoice("I2", "J2", 100, 1, 10),
		},
	}

	m := newEngine(ds).ClientMetrics("C1", asOf)

	// THEN: zero days is a value, so the average is (0 + 10) / 2
	assert.Equal(t, 5.0, m.AvgDaysToPay)
}

func TestClientMetrics_NoRecentJobs(t *testing.T) {
	ds := hvac.Dataset{
		Clients:   []hvac.Client{client("C1")},
		Contracts: []hvac.Contract{contract("K1", "C1", hvac.ContractActive, 200)},
	}

	m := newEngine(ds).ClientMetrics("C1", asOf)

	assert.True(t, m.Trailing6moRevenue.IsZero())
	assert.Equal(t, 0.0, m.AvgDaysToPay)
	assert.Equal(t, 0.0, m.CallbackLoad)
	// payment tier counts 0 days as fast, callback tier counts 0% as low
	assert.Equal(t, 35, m.ValueScore)
}

func TestValueScore_TierBoundaries(t *testing.T) {
	cases := []struct {
		name     string
		revenue  int64
		margin   float64
		days     float64
		callback float64
		want     int
	}{
		{"revenue exactly 50000 is not top tier", 50000, 0, 100, 100, 30},
		{"revenue above 50000", 50001, 0, 100, 100, 40},
		{"revenue exactly 5000 earns nothing", 5000, 0, 100, 100, 0},
		{"margin exactly 30", 0, 30, 100, 100, 20},
		{"margin exactly 10 earns nothing", 0, 10, 100, 100, 0},
		{"payment exactly 15 days", 0, 0, 15, 100, 20},
		{"payment exactly 45 days", 0, 0, 45, 100, 10},
		{"payment 46 days earns nothing", 0, 0, 46, 100, 0},
		{"callback exactly 5", 0, 0, 100, 5, 10},
		{"callback exactly 15 earns nothing", 0, 0, 100, 15, 0},
		{"every top tier", 60000, 35, 10, 0, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := hvac.ValueScore(money(tc.revenue), tc.margin, tc.days, tc.callback)
			assert.Equal(t, tc.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestAllMetrics_FTFPlusCallbackIs100(t *testing.T) {
	ds := overBudgetDataset()
	ds.Jobs = append(ds.Jobs, scheduledJob("F1", "C1", "T1"))
	ds.Callbacks = []hvac.Callback{callback("CB1", "J1", "F1", hvac.ReasonPartFailure)}
	engine := newEngine(ds)

	kpi := engine.KPIMetrics(asOf)
	require.Equal(t, 100.0, kpi.CallbackRate)
	assert.Equal(t, 100.0, kpi.CallbackRate+kpi.FirstTimeFixRate)

	for _, m := range engine.AllTechnicianMetrics(asOf) {
		assert.Equal(t, 100.0, m.CallbackRate+m.FirstTimeFixRate)
	}
}

func TestParseCallbackScope(t *testing.T) {
	assert.Equal(t, hvac.CallbackScopeWindowed, hvac.ParseCallbackScope("windowed"))
	assert.Equal(t, hvac.CallbackScopeAllTime, hvac.ParseCallbackScope("all_time"))
	assert.Equal(t, hvac.CallbackScopeAllTime, hvac.ParseCallbackScope(""))
}
