/*
dto.go - Response bodies for the HTTP API

PURPOSE:
  Decouples the wire format from the hvac types. Money leaves the domain as
  decimal.Decimal and is sent as a JSON number; dates are RFC3339.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - toXDTO: converters from hvac values

SEE ALSO:
  - handlers.go: uses these types
  - tables.go: TablePageDTO and TableInfoDTO
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/hvac-insights/hvac"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type HealthDTO struct {
	Status     string      `json:"status"`
	Counts     hvac.Counts `json:"counts"`
	LastReload *ReloadRun  `json:"last_reload,omitempty"`
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// =============================================================================
// METRICS
// =============================================================================

type ARAgingDTO struct {
	Current    float64 `json:"current"`
	Days30     float64 `json:"days_30"`
	Days60     float64 `json:"days_60"`
	Days90Plus float64 `json:"days_90_plus"`
}

type KPIMetricsDTO struct {
	AsOf                  time.Time  `json:"as_of"`
	RevenueMTD            float64    `json:"revenue_mtd"`
	RevenueYTD            float64    `json:"revenue_ytd"`
	GrossMarginPercentage float64    `json:"gross_margin_percentage"`
	CallbackRate          float64    `json:"callback_rate"`
	FirstTimeFixRate      float64    `json:"first_time_fix_rate"`
	ARAging               ARAgingDTO `json:"ar_aging"`
	JobsOverBudget        int        `json:"jobs_over_budget"`
	ContractsDueRenewal   int        `json:"contracts_due_renewal"`
}

func toKPIMetricsDTO(k hvac.KPIMetrics) KPIMetricsDTO {
	return KPIMetricsDTO{
		AsOf:                  k.AsOf,
		RevenueMTD:            money(k.RevenueMTD),
		RevenueYTD:            money(k.RevenueYTD),
		GrossMarginPercentage: k.GrossMarginPercentage,
		CallbackRate:          k.CallbackRate,
		FirstTimeFixRate:      k.FirstTimeFixRate,
		ARAging: ARAgingDTO{
			Current:    money(k.ARAging.Current),
			Days30:     money(k.ARAging.Days30),
			Days60:     money(k.ARAging.Days60),
			Days90Plus: money(k.ARAging.Days90Plus),
		},
		JobsOverBudget:      k.JobsOverBudget,
		ContractsDueRenewal: k.ContractsDueRenewal,
	}
}

type TechnicianMetricsDTO struct {
	TechnicianID            string  `json:"technician_id"`
	Name                    string  `json:"name,omitempty"`
	FirstTimeFixRate        float64 `json:"first_time_fix_rate"`
	CallbackRate            float64 `json:"callback_rate"`
	EfficiencyIndex         float64 `json:"efficiency_index"`
	AvgMarginContribution   float64 `json:"avg_margin_contribution"`
	LaborVariancePercentage float64 `json:"labor_variance_percentage"`
	TotalJobs               int     `json:"total_jobs"`
}

func toTechnicianMetricsDTO(m hvac.TechnicianMetrics, name string) TechnicianMetricsDTO {
	return TechnicianMetricsDTO{
		TechnicianID:            m.TechnicianID,
		Name:                    name,
		FirstTimeFixRate:        m.FirstTimeFixRate,
		CallbackRate:            m.CallbackRate,
		EfficiencyIndex:         m.EfficiencyIndex,
		AvgMarginContribution:   money(m.AvgMarginContribution),
		LaborVariancePercentage: m.LaborVariancePercentage,
		TotalJobs:               m.TotalJobs,
	}
}

type ClientMetricsDTO struct {
	ClientID           string  `json:"client_id"`
	Name               string  `json:"name,omitempty"`
	Trailing6moRevenue float64 `json:"trailing_6mo_revenue"`
	AvgDaysToPay       float64 `json:"avg_days_to_pay"`
	MarginPercentage   float64 `json:"margin_percentage"`
	CallbackLoad       float64 `json:"callback_load"`
	RenewalLikelihood  int     `json:"renewal_likelihood"`
	ValueScore         int     `json:"value_score"`
}

func toClientMetricsDTO(m hvac.ClientMetrics, name string) ClientMetricsDTO {
	return ClientMetricsDTO{
		ClientID:           m.ClientID,
		Name:               name,
		Trailing6moRevenue: money(m.Trailing6moRevenue),
		AvgDaysToPay:       m.AvgDaysToPay,
		MarginPercentage:   m.MarginPercentage,
		CallbackLoad:       m.CallbackLoad,
		RenewalLikelihood:  m.RenewalLikelihood,
		ValueScore:         m.ValueScore,
	}
}

type TeamSummaryDTO struct {
	AvgEfficiency   float64                `json:"avg_efficiency"`
	AvgFTF          float64                `json:"avg_first_time_fix_rate"`
	AvgCallbackRate float64                `json:"avg_callback_rate"`
	NeedsCoaching   []hvac.CoachingNote    `json:"needs_coaching"`
	Technicians     []TechnicianMetricsDTO `json:"technicians"`
}

// =============================================================================
// CHARTS
// =============================================================================

type MonthlyRevenueDTO struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Margin  float64 `json:"margin"`
}

type ClientRevenueDTO struct {
	ClientID string  `json:"client_id"`
	Name     string  `json:"name"`
	Revenue  float64 `json:"revenue"`
	Margin   float64 `json:"margin"`
}

// =============================================================================
// ALERTS
// =============================================================================

type EquipmentAlertDTO struct {
	EquipmentID      string  `json:"equipment_id"`
	ClientName       string  `json:"client_name"`
	Make             string  `json:"make"`
	Model            string  `json:"model"`
	Age              int     `json:"age"`
	FailureRiskScore float64 `json:"failure_risk_score"`
	Reason           string  `json:"reason"`
}

type RenewalAlertDTO struct {
	ContractID       string    `json:"contract_id"`
	ClientName       string    `json:"client_name"`
	AnnualValue      float64   `json:"annual_value"`
	RenewalDate      time.Time `json:"renewal_date"`
	DaysUntilRenewal int       `json:"days_until_renewal"`
}

type ClientAlertDTO struct {
	ClientID         string  `json:"client_id"`
	Name             string  `json:"name"`
	Industry         string  `json:"industry"`
	EstimatedRevenue float64 `json:"estimated_revenue"`
}

type AlertsDTO struct {
	EquipmentUpgrades      []EquipmentAlertDTO `json:"equipment_upgrades"`
	ContractRenewals       []RenewalAlertDTO   `json:"contract_renewals"`
	ClientsWithoutContract []ClientAlertDTO    `json:"clients_without_contract"`
}

func toAlertsDTO(a hvac.Alerts) AlertsDTO {
	out := AlertsDTO{
		EquipmentUpgrades:      make([]EquipmentAlertDTO, len(a.EquipmentUpgrades)),
		ContractRenewals:       make([]RenewalAlertDTO, len(a.ContractRenewals)),
		ClientsWithoutContract: make([]ClientAlertDTO, len(a.ClientsWithoutContract)),
	}
	for i, e := range a.EquipmentUpgrades {
		out.EquipmentUpgrades[i] = EquipmentAlertDTO{
			EquipmentID:      e.Equipment.ID,
			ClientName:       e.ClientName,
			Make:             e.Equipment.Make,
			Model:            e.Equipment.Model,
			Age:              e.Age,
			FailureRiskScore: e.Equipment.FailureRiskScore,
			Reason:           e.Reason,
		}
	}
	for i, r := range a.ContractRenewals {
		out.ContractRenewals[i] = RenewalAlertDTO{
			ContractID:       r.Contract.ID,
			ClientName:       r.ClientName,
			AnnualValue:      money(r.Contract.AnnualValue),
			RenewalDate:      r.Contract.RenewalDate,
			DaysUntilRenewal: r.DaysUntilRenewal,
		}
	}
	for i, c := range a.ClientsWithoutContract {
		out.ClientsWithoutContract[i] = ClientAlertDTO{
			ClientID:         c.Client.ID,
			Name:             c.Client.Name,
			Industry:         c.Client.Industry,
			EstimatedRevenue: money(c.EstimatedRevenue),
		}
	}
	return out
}
