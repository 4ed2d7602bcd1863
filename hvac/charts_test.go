package hvac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hvac-insights/hvac"
)

// =============================================================================
// REVENUE BY MONTH
// =============================================================================

func TestRevenueByMonth(t *testing.T) {
	engine := newEngine(overBudgetDataset())

	series := engine.RevenueByMonth(asOf, 6)

	require.Len(t, series, 6)
	assert.Equal(t, "Jan", series[0].Month)
	assert.Equal(t, "Jun", series[5].Month)
	assert.True(t, series[0].Revenue.IsZero())
	assert.True(t, series[5].Revenue.Equal(money(600)))
	assert.True(t, series[5].Margin.Equal(money(235)))
}

func TestRevenueByMonth_DefaultsToSixMonths(t *testing.T) {
	series := newEngine(hvac.Dataset{}).RevenueByMonth(asOf, 0)

	assert.Len(t, series, hvac.DefaultChartMonths)
}

// =============================================================================
// TOP CLIENTS
// =============================================================================

func TestTopClientsByRevenue(t *testing.T) {
	ds := hvac.Dataset{
		Clients: []hvac.Client{client("C1"), client("C2"), client("C3")},
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 10, 2, 2),
			completedJob("J2", "C2", 20, 2, 2),
			completedJob("J3", "C3", 20, 2, 2),
			completedJob("OLD", "C3", 400, 2, 2),
		},
		Invoices: []hvac.Invoice{
			paidInvoice("I1", "J1", 600, 5, 5),
			paidInvoice("I2", "J2", 900, 5, 5),
			openInvoice("I3", "J3", 5000, 5),
			paidInvoice("I4", "OLD", 9000, 390, 5),
		},
	}
	engine := newEngine(ds)

	top := engine.TopClientsByRevenue(10, asOf)

	require.Len(t, top, 2, "unpaid and out-of-window revenue is ignored")
	assert.Equal(t, "C2", top[0].Client.ID)
	assert.Equal(t, "C1", top[1].Client.ID)
	assert.True(t, top[1].Margin.Equal(money(500)), "2h at the default rate")

	assert.Len(t, engine.TopClientsByRevenue(1, asOf), 1)
}

// =============================================================================
// CALLBACK TRENDS
// =============================================================================

func TestCallbackTrends_GroupsByCategory(t *testing.T) {
	// GIVEN: three recent callbacks, two of them part failures
	ds := hvac.Dataset{
		Jobs: []hvac.Job{
			completedJob("J1", "C1", 10, 2, 2),
			completedJob("J2", "C1", 20, 2, 2),
			completedJob("J3", "C1", 30, 2, 2),
			completedJob("OLD", "C1", 200, 2, 2),
		},
		Callbacks: []hvac.Callback{
			callback("CB1", "J1", "X1", hvac.ReasonPartFailure),
			callback("CB2", "J2", "X2", hvac.ReasonWorkmanship),
			callback("CB3", "J3", "X3", hvac.ReasonPartFailure),
			callback("CB4", "OLD", "X4", hvac.ReasonMisdiagnosis),
		},
	}

	// WHEN
	trends := newEngine(ds).CallbackTrends(asOf)

	// THEN
	require.Len(t, trends, 2)
	assert.Equal(t, hvac.ReasonPartFailure, trends[0].Category)
	assert.Equal(t, "Part Failure", trends[0].Label)
	assert.Equal(t, 2, trends[0].Count)
	assert.Equal(t, hvac.ReasonWorkmanship, trends[1].Category)
	assert.Equal(t, 1, trends[1].Count)

	total := 0.0
	for _, tr := range trends {
		total += tr.Percentage
	}
	assert.InDelta(t, 100.0, total, 1e-9)
}

func TestCallbackTrends_NoCallbacks(t *testing.T) {
	assert.Empty(t, newEngine(overBudgetDataset()).CallbackTrends(asOf))
}

func TestReasonLabel(t *testing.T) {
	assert.Equal(t, "Part Failure", hvac.ReasonLabel(hvac.ReasonPartFailure))
	assert.Equal(t, "Misdiagnosis", hvac.ReasonLabel(hvac.ReasonMisdiagnosis))
}

// =============================================================================
// TEAM SUMMARY
// =============================================================================

func TestTeamSummary(t *testing.T) {
	// GIVEN: T1 with one good job, T2 with no recent work
	ds := overBudgetDataset()
	ds.Technicians = append(ds.Technicians, technician("T2", 30, 90))

	// WHEN
	summary := newEngine(ds).TeamSummary(asOf)

	// THEN
	assert.Len(t, summary.Technicians, 2)
	assert.InDelta(t, 40.0, summary.AvgEfficiency, 1e-9)
	assert.InDelta(t, 50.0, summary.AvgFTF, 1e-9)
	assert.Equal(t, 0.0, summary.AvgCallbackRate)
	require.Len(t, summary.NeedsCoaching, 1)
	assert.Equal(t, "T2", summary.NeedsCoaching[0].TechnicianID)
	assert.Equal(t, []string{"Low FTF rate"}, summary.NeedsCoaching[0].Issues)
}

func TestTeamSummary_EmptyRoster(t *testing.T) {
	summary := newEngine(hvac.Dataset{}).TeamSummary(asOf)

	assert.Equal(t, 0.0, summary.AvgEfficiency)
	assert.NotNil(t, summary.NeedsCoaching)
	assert.Empty(t, summary.NeedsCoaching)
}

func TestCoachingIssues(t *testing.T) {
	assert.Equal(t,
		[]string{"Low FTF rate", "High callbacks", "Time estimation"},
		hvac.CoachingIssues(hvac.TechnicianMetrics{FirstTimeFixRate: 70, CallbackRate: 30, LaborVariancePercentage: -30}))
	assert.Empty(t, hvac.CoachingIssues(hvac.TechnicianMetrics{FirstTimeFixRate: 80, CallbackRate: 15, LaborVariancePercentage: 25}))
}
