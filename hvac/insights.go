package hvac

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/hvac-insights/generic"
)

// =============================================================================
// JOB PROFIT STATUS
// =============================================================================

type ProfitStatus string

const (
	ProfitPending    ProfitStatus = "pending"
	ProfitOnTrack    ProfitStatus = "on-track"
	ProfitOverBudget ProfitStatus = "over-budget"
)

// JobProfitStatus compares actual and estimated hours. A job is on track
// while the overrun stays within 10% of the estimate; it is pending until
// both figures are known and non-zero.
func JobProfitStatus(j Job) ProfitStatus {
	if !j.HasActualHours() || j.LaborHoursEstimated == 0 {
		return ProfitPending
	}
	if j.ActualHours()-j.LaborHoursEstimated <= j.LaborHoursEstimated*0.1 {
		return ProfitOnTrack
	}
	return ProfitOverBudget
}

// =============================================================================
// UPSELL
// =============================================================================

const (
	// OldEquipmentYears is the age past which a unit is an upgrade candidate.
	OldEquipmentYears = 10

	// HighRiskScore is the failure risk past which a unit is an upgrade candidate.
	HighRiskScore = 70.0
)

// Upsell summarizes a client's sales opportunity from their equipment and
// contract coverage.
type Upsell struct {
	OldEquipment      int    `json:"old_equipment"`
	HighRiskEquipment int    `json:"high_risk_equipment"`
	HasActiveContract bool   `json:"has_active_contract"`
	Score             int    `json:"score"`
	Priority          string `json:"priority"`
}

// UpsellFor weighs old units x2, high-risk units x3 and adds 5 when the
// client has no active contract. A unit that is both counts in both.
func UpsellFor(equipment []Equipment, hasActiveContract bool, asOf time.Time) Upsell {
	u := Upsell{HasActiveContract: hasActiveContract}
	for _, e := range equipment {
		if e.Age(asOf) > OldEquipmentYears {
			u.OldEquipment++
		}
		if e.FailureRiskScore > HighRiskScore {
			u.HighRiskEquipment++
		}
	}
	u.Score = u.OldEquipment*2 + u.HighRiskEquipment*3
	if !hasActiveContract {
		u.Score += 5
	}
	u.Priority = UpsellPriority(u.Score)
	return u
}

// UpsellPriority labels a score: High above 8, Medium above 5, Low above 2.
func UpsellPriority(score int) string {
	switch {
	case score > 8:
		return "High"
	case score > 5:
		return "Medium"
	case score > 2:
		return "Low"
	}
	return "None"
}

// ClientUpsell evaluates UpsellFor against the store.
func (e *Engine) ClientUpsell(clientID string, asOf time.Time) Upsell {
	asOf = e.resolve(asOf)
	return UpsellFor(e.store.EquipmentByClientID(clientID), e.store.HasActiveContract(clientID), asOf)
}

// =============================================================================
// CONTRACT RENEWAL
// =============================================================================

// DaysUntilRenewal is the number of days from asOf to the renewal date,
// rounded up. Negative once the date has passed.
func DaysUntilRenewal(c Contract, asOf time.Time) int {
	return generic.DaysUntil(asOf, c.RenewalDate)
}

// =============================================================================
// ALERTS
// =============================================================================

const (
	alertLimit = 3

	// estimatedLaborRate prices labor hours for the lifetime revenue estimate
	// used by the high-value client alert.
	estimatedLaborRate = 125

	highValueRevenue = 20000
)

type EquipmentAlert struct {
	Equipment  Equipment `json:"equipment"`
	ClientName string    `json:"client_name"`
	Age        int       `json:"age"`
	Reason     string    `json:"reason"` // "Age" or "High Risk"
}

type RenewalAlert struct {
	Contract         Contract `json:"contract"`
	ClientName       string   `json:"client_name"`
	DaysUntilRenewal int      `json:"days_until_renewal"`
}

type ClientAlert struct {
	Client           Client          `json:"client"`
	EstimatedRevenue decimal.Decimal `json:"estimated_revenue"`
}

// Alerts are the dashboard's opportunity lists, each capped at three entries
// in store order.
type Alerts struct {
	EquipmentUpgrades      []EquipmentAlert `json:"equipment_upgrades"`
	ContractRenewals       []RenewalAlert   `json:"contract_renewals"`
	ClientsWithoutContract []ClientAlert    `json:"clients_without_contract"`
}

// Alerts collects:
//   - equipment that is old or high risk
//   - active contracts renewing within 90 days of asOf
//   - clients whose estimated job revenue exceeds 20000 with no active contract
func (e *Engine) Alerts(asOf time.Time) Alerts {
	asOf = e.resolve(asOf)
	out := Alerts{
		EquipmentUpgrades:      []EquipmentAlert{},
		ContractRenewals:       []RenewalAlert{},
		ClientsWithoutContract: []ClientAlert{},
	}

	for _, eq := range e.store.Equipment() {
		if len(out.EquipmentUpgrades) == alertLimit {
			break
		}
		age := eq.Age(asOf)
		if eq.FailureRiskScore <= HighRiskScore && age <= OldEquipmentYears {
			continue
		}
		reason := "High Risk"
		if age > OldEquipmentYears {
			reason = "Age"
		}
		out.EquipmentUpgrades = append(out.EquipmentUpgrades, EquipmentAlert{
			Equipment:  eq,
			ClientName: e.clientName(eq.ClientID),
			Age:        age,
			Reason:     reason,
		})
	}

	renewBy := generic.AddDays(asOf, RenewalDays)
	for _, c := range e.store.Contracts() {
		if len(out.ContractRenewals) == alertLimit {
			break
		}
		if c.Status != ContractActive || c.RenewalDate.After(renewBy) {
			continue
		}
		out.ContractRenewals = append(out.ContractRenewals, RenewalAlert{
			Contract:         c,
			ClientName:       e.clientName(c.ClientID),
			DaysUntilRenewal: DaysUntilRenewal(c, asOf),
		})
	}

	threshold := decimal.NewFromInt(highValueRevenue)
	for _, c := range e.store.Clients() {
		if len(out.ClientsWithoutContract) == alertLimit {
			break
		}
		if e.store.HasActiveContract(c.ID) {
			continue
		}
		est := e.EstimatedRevenue(c.ID)
		if est.GreaterThan(threshold) {
			out.ClientsWithoutContract = append(out.ClientsWithoutContract, ClientAlert{Client: c, EstimatedRevenue: est})
		}
	}
	return out
}

// EstimatedRevenue is a rough lifetime value for a client: every job's hours
// (actual, else estimated) at 125/h plus parts.
func (e *Engine) EstimatedRevenue(clientID string) decimal.Decimal {
	rate := decimal.NewFromInt(estimatedLaborRate)
	sum := decimal.Zero
	for _, j := range e.store.JobsByClientID(clientID) {
		h := j.LaborHoursEstimated
		if j.HasActualHours() {
			h = j.ActualHours()
		}
		sum = sum.Add(decimal.NewFromFloat(h).Mul(rate)).Add(j.PartsCost)
	}
	return sum
}

// clientName falls back to "Unknown" for a dangling reference.
func (e *Engine) clientName(id string) string {
	if c, ok := e.store.ClientByID(id); ok {
		return c.Name
	}
	return "Unknown"
}
