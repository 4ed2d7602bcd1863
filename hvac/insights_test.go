package hvac_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hvac-insights/generic"
	"github.com/warp/hvac-insights/hvac"
)

func TestJobProfitStatus(t *testing.T) {
	tests := []struct {
		name      string
		estimated float64
		actual    float64
		want      hvac.ProfitStatus
	}{
		{"no actual yet", 4, -1, hvac.ProfitPending},
		{"zero actual", 4, 0, hvac.ProfitPending},
		{"no estimate", 0, 3, hvac.ProfitPending},
		{"under estimate", 4, 3, hvac.ProfitOnTrack},
		{"within ten percent", 4, 4.2, hvac.ProfitOnTrack},
		{"over", 4, 5, hvac.ProfitOverBudget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hvac.JobProfitStatus(completedJob("J1", "C1", 1, tt.estimated, tt.actual)))
		})
	}
}

// =============================================================================
// UPSELL
// =============================================================================

func TestUpsellFor(t *testing.T) {
	// GIVEN: one unit both old (2010) and high risk, one healthy unit
	equipment := []hvac.Equipment{
		{ID: "E1", InstallYear: 2010, FailureRiskScore: 80},
		{ID: "E2", InstallYear: 2021, FailureRiskScore: 20},
	}

	noContract := hvac.UpsellFor(equipment, false, asOf)
	assert.Equal(t, 1, noContract.OldEquipment)
	assert.Equal(t, 1, noContract.HighRiskEquipment)
	assert.Equal(t, 10, noContract.Score)
	assert.Equal(t, "High", noContract.Priority)

	covered := hvac.UpsellFor(equipment, true, asOf)
	assert.Equal(t, 5, covered.Score)
	assert.Equal(t, "Low", covered.Priority)
}

func TestUpsellPriority(t *testing.T) {
	cases := map[int]string{9: "High", 8: "Medium", 6: "Medium", 5: "Low", 3: "Low", 2: "None", 0: "None"}
	for score, want := range cases {
		assert.Equal(t, want, hvac.UpsellPriority(score), "score %d", score)
	}
}

func TestClientUpsell_UsesStoreContracts(t *testing.T) {
	ds := hvac.Dataset{
		Clients:   []hvac.Client{client("C1")},
		Contracts: []hvac.Contract{contract("K1", "C1", hvac.ContractActive, 40)},
		Equipment: []hvac.Equipment{{ID: "E1", ClientID: "C1", InstallYear: 2000}},
	}

	u := newEngine(ds).ClientUpsell("C1", asOf)

	assert.True(t, u.HasActiveContract)
	assert.Equal(t, 2, u.Score)
	assert.Equal(t, "None", u.Priority)
}

func TestDaysUntilRenewal(t *testing.T) {
	assert.Equal(t, 30, hvac.DaysUntilRenewal(contract("K1", "C1", hvac.ContractActive, 30), asOf))
	assert.Equal(t, -20, hvac.DaysUntilRenewal(contract("K2", "C1", hvac.ContractActive, -20), asOf))

	partial := hvac.Contract{RenewalDate: asOf.Add(36 * time.Hour)}
	assert.Equal(t, 2, hvac.DaysUntilRenewal(partial, asOf), "partial days round up")
}

// =============================================================================
// ALERTS
// =============================================================================

func bigJob(id, clientID string, hours float64) hvac.Job {
	j := scheduledJob(id, clientID)
	j.LaborHoursEstimated = hours
	return j
}

func TestAlerts(t *testing.T) {
	ds := hvac.Dataset{
		Clients: []hvac.Client{client("C1"), client("C2"), client("C3")},
		Jobs: []hvac.Job{
			bigJob("J1", "C1", 200), // 25000 estimated
			bigJob("J2", "C2", 400), // covered by an active contract
			bigJob("J3", "C3", 10),
		},
		Contracts: []hvac.Contract{
			contract("K1", "C2", hvac.ContractActive, 30),
			contract("K2", "C3", hvac.ContractExpired, 10),
			contract("K3", "C3", hvac.ContractActive, 200),
		},
		Equipment: []hvac.Equipment{
			{ID: "E1", ClientID: "C1", InstallYear: 2010, FailureRiskScore: 20},
			{ID: "E2", ClientID: "C1", InstallYear: 2021, FailureRiskScore: 80},
			{ID: "E3", ClientID: "C2", InstallYear: 2021, FailureRiskScore: 10},
			{ID: "E4", ClientID: "ghost", InstallYear: 2012, FailureRiskScore: 10},
			{ID: "E5", ClientID: "C2", InstallYear: 2005, FailureRiskScore: 90},
		},
	}

	alerts := newEngine(ds).Alerts(asOf)

	require.Len(t, alerts.EquipmentUpgrades, 3, "capped at three")
	assert.Equal(t, "E1", alerts.EquipmentUpgrades[0].Equipment.ID)
	assert.Equal(t, "Age", alerts.EquipmentUpgrades[0].Reason)
	assert.Equal(t, 14, alerts.EquipmentUpgrades[0].Age)
	assert.Equal(t, "High Risk", alerts.EquipmentUpgrades[1].Reason)
	assert.Equal(t, "Unknown", alerts.EquipmentUpgrades[2].ClientName)

	require.Len(t, alerts.ContractRenewals, 1)
	assert.Equal(t, "K1", alerts.ContractRenewals[0].Contract.ID)
	assert.Equal(t, 30, alerts.ContractRenewals[0].DaysUntilRenewal)

	require.Len(t, alerts.ClientsWithoutContract, 1)
	assert.Equal(t, "C1", alerts.ClientsWithoutContract[0].Client.ID)
	assert.True(t, alerts.ClientsWithoutContract[0].EstimatedRevenue.Equal(money(25000)))
}

func TestAlerts_EmptyListsAreNotNil(t *testing.T) {
	alerts := newEngine(hvac.Dataset{}).Alerts(asOf)

	assert.NotNil(t, alerts.EquipmentUpgrades)
	assert.NotNil(t, alerts.ContractRenewals)
	assert.NotNil(t, alerts.ClientsWithoutContract)
}

func TestEstimatedRevenue_PrefersActualHours(t *testing.T) {
	j := completedJob("J1", "C1", 5, 10, 2)
	j.PartsCost = money(50)
	engine := newEngine(hvac.Dataset{Jobs: []hvac.Job{j}})

	assert.True(t, engine.EstimatedRevenue("C1").Equal(money(300)))
}

func TestEquipmentAge(t *testing.T) {
	eq := hvac.Equipment{InstallYear: 2014}

	assert.Equal(t, 10, eq.Age(asOf))
	assert.Equal(t, 11, eq.Age(generic.AddDays(asOf, 365)))
}
