package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/warp/hvac-insights/generic"
	"github.com/warp/hvac-insights/hvac"
)

// =============================================================================
// TABLE CATALOG - Column layouts of the listing pages
// =============================================================================
// Value returns the raw cell used for sorting and JSON; Render is the display
// text written to exports. Enum values are plain strings so they sort.

var (
	jobTypeOptions    = []string{"service", "install", "pm"}
	systemTypeOptions = []string{"RTU", "split", "mini-split", "chiller", "boiler", "refrigeration"}
	industryOptions   = []string{
		"Restaurant", "Retail Store", "Office Building", "Warehouse", "Medical Facility", "Auto Shop",
		"Hotel", "Grocery Store", "Manufacturing", "Gym/Fitness", "School/Daycare", "Church",
	}
)

func tableCatalog() []tableView {
	return []tableView{
		jobsTable(),
		techniciansTable(),
		clientsTable(),
		contractsTable(),
		callbacksTable(),
		equipmentTable(),
	}
}

func jobsTable() tableView {
	return tableDef[hvac.JobRow]{
		name:  "jobs",
		title: "Jobs",
		rows:  func(e *hvac.Engine, _ time.Time) []hvac.JobRow { return e.JobRows() },
		columns: []generic.Column[hvac.JobRow]{
			{Key: "id", Header: "Job ID", Value: func(r hvac.JobRow) any { return r.ID }, Sortable: true},
			{Key: "client_name", Header: "Client", Value: func(r hvac.JobRow) any { return r.ClientName }, Sortable: true, Filterable: true},
			{
				Key: "job_type", Header: "Type",
				Value:    func(r hvac.JobRow) any { return string(r.JobType) },
				Render:   func(r hvac.JobRow) string { return jobTypeLabel(r.JobType) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect, FilterOptions: jobTypeOptions,
			},
			{
				Key: "system_type", Header: "System",
				Value:    func(r hvac.JobRow) any { return string(r.SystemType) },
				Render:   func(r hvac.JobRow) string { return systemTypeLabel(r.SystemType) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect, FilterOptions: systemTypeOptions,
			},
			{
				Key: "scheduled_at", Header: "Scheduled",
				Value:    func(r hvac.JobRow) any { return r.ScheduledAt },
				Render:   func(r hvac.JobRow) string { return date(r.ScheduledAt) },
				Sortable: true,
			},
			{
				Key: "status", Header: "Status",
				Value:    func(r hvac.JobRow) any { return string(r.Status) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect,
				FilterOptions: []string{"scheduled", "in_progress", "done", "invoiced", "paid", "canceled"},
			},
			{Key: "technician_names", Header: "Technicians", Value: func(r hvac.JobRow) any { return r.TechnicianNames }, Filterable: true},
			{
				Key: "labor_hours_estimated", Header: "Est. Hours",
				Value:    func(r hvac.JobRow) any { return r.LaborHoursEstimated },
				Render:   func(r hvac.JobRow) string { return hours(r.LaborHoursEstimated) },
				Sortable: true,
			},
			{
				Key: "labor_hours_actual", Header: "Actual Hours",
				Value: func(r hvac.JobRow) any { return r.LaborHoursActual },
				Render: func(r hvac.JobRow) string {
					if !r.HasActualHours() {
						return "-"
					}
					return hours(*r.LaborHoursActual)
				},
				Sortable: true,
			},
			{
				Key: "profit_status", Header: "Profit Status",
				Value:    func(r hvac.JobRow) any { return string(r.ProfitStatus) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect,
				FilterOptions: []string{"pending", "on-track", "over-budget"},
			},
			{
				Key: "parts_cost", Header: "Parts Cost",
				Value:    func(r hvac.JobRow) any { return r.PartsCost },
				Render:   func(r hvac.JobRow) string { return currency(r.PartsCost) },
				Sortable: true,
			},
			{
				Key: "invoice_total", Header: "Invoice Total",
				Value: func(r hvac.JobRow) any { return r.InvoiceTotal },
				Render: func(r hvac.JobRow) string {
					if !r.InvoiceTotal.IsPositive() {
						return "-"
					}
					return currency(r.InvoiceTotal)
				},
				Sortable: true,
			},
			{
				Key: "came_back", Header: "Callback",
				Value:    func(r hvac.JobRow) any { return r.CameBack },
				Render:   func(r hvac.JobRow) string { return yesNo(r.CameBack) },
				Sortable: true,
			},
		},
	}
}

func techniciansTable() tableView {
	return tableDef[hvac.TechnicianRow]{
		name:  "technicians",
		title: "Technicians",
		rows:  (*hvac.Engine).TechnicianRows,
		columns: []generic.Column[hvac.TechnicianRow]{
			{Key: "name", Header: "Technician", Value: func(r hvac.TechnicianRow) any { return r.Name }, Sortable: true, Filterable: true},
			{
				Key: "role", Header: "Role",
				Value:    func(r hvac.TechnicianRow) any { return string(r.Role) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect,
				FilterOptions: []string{"junior", "senior", "lead", "specialist"},
			},
			{
				Key: "hire_date", Header: "Hire Date",
				Value:    func(r hvac.TechnicianRow) any { return r.HireDate },
				Render:   func(r hvac.TechnicianRow) string { return date(r.HireDate) },
				Sortable: true,
			},
			{
				Key: "efficiency_index", Header: "Efficiency Score",
				Value:    func(r hvac.TechnicianRow) any { return r.EfficiencyIndex },
				Render:   func(r hvac.TechnicianRow) string { return strconv.FormatFloat(r.EfficiencyIndex, 'f', 1, 64) },
				Sortable: true,
			},
			{
				Key: "first_time_fix_rate", Header: "First Time Fix",
				Value:    func(r hvac.TechnicianRow) any { return r.FirstTimeFixRate },
				Render:   func(r hvac.TechnicianRow) string { return percent(r.FirstTimeFixRate) },
				Sortable: true,
			},
			{
				Key: "callback_rate", Header: "Callback Rate",
				Value:    func(r hvac.TechnicianRow) any { return r.CallbackRate },
				Render:   func(r hvac.TechnicianRow) string { return percent(r.CallbackRate) },
				Sortable: true,
			},
			{
				Key: "avg_margin_contribution", Header: "Avg Margin",
				Value:    func(r hvac.TechnicianRow) any { return r.AvgMarginContribution },
				Render:   func(r hvac.TechnicianRow) string { return currency(r.AvgMarginContribution) },
				Sortable: true,
			},
			{
				Key: "labor_variance_percentage", Header: "Labor Variance",
				Value:    func(r hvac.TechnicianRow) any { return r.LaborVariancePercentage },
				Render:   func(r hvac.TechnicianRow) string { return signedPercent(r.LaborVariancePercentage) },
				Sortable: true,
			},
			{Key: "total_jobs", Header: "Jobs (90d)", Value: func(r hvac.TechnicianRow) any { return r.TotalJobs }, Sortable: true},
			{
				Key: "hourly_cost", Header: "Hourly Cost",
				Value:    func(r hvac.TechnicianRow) any { return r.HourlyCost },
				Render:   func(r hvac.TechnicianRow) string { return currency(r.HourlyCost) + "/hr" },
				Sortable: true,
			},
		},
	}
}

func clientsTable() tableView {
	return tableDef[hvac.ClientRow]{
		name:  "clients",
		title: "Clients",
		rows:  (*hvac.Engine).ClientRows,
		columns: []generic.Column[hvac.ClientRow]{
			{Key: "name", Header: "Client Name", Value: func(r hvac.ClientRow) any { return r.Name }, Sortable: true, Filterable: true},
			{
				Key: "industry", Header: "Industry",
				Value:    func(r hvac.ClientRow) any { return r.Industry },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect, FilterOptions: industryOptions,
			},
			{
				Key: "service_level", Header: "Service Level",
				Value:    func(r hvac.ClientRow) any { return string(r.ServiceLevel) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect,
				FilterOptions: []string{"standard", "priority", "premium"},
			},
			{Key: "value_score", Header: "Value Score", Value: func(r hvac.ClientRow) any { return r.ValueScore }, Sortable: true},
			{
				Key: "trailing_6mo_revenue", Header: "6-Month Revenue",
				Value:    func(r hvac.ClientRow) any { return r.Trailing6moRevenue },
				Render:   func(r hvac.ClientRow) string { return currency(r.Trailing6moRevenue) },
				Sortable: true,
			},
			{
				Key: "margin_percentage", Header: "Margin %",
				Value:    func(r hvac.ClientRow) any { return r.MarginPercentage },
				Render:   func(r hvac.ClientRow) string { return percent(r.MarginPercentage) },
				Sortable: true,
			},
			{
				Key: "avg_days_to_pay", Header: "Avg Days to Pay",
				Value:    func(r hvac.ClientRow) any { return r.AvgDaysToPay },
				Render:   func(r hvac.ClientRow) string { return fmt.Sprintf("%.0f days", r.AvgDaysToPay) },
				Sortable: true,
			},
			{
				Key: "callback_load", Header: "Callback Rate",
				Value:    func(r hvac.ClientRow) any { return r.CallbackLoad },
				Render:   func(r hvac.ClientRow) string { return percent(r.CallbackLoad) },
				Sortable: true,
			},
			{
				Key: "has_contract", Header: "Contract",
				Value:    func(r hvac.ClientRow) any { return r.Upsell.HasActiveContract },
				Render:   func(r hvac.ClientRow) string { return yesNo(r.Upsell.HasActiveContract) },
				Sortable: true,
			},
			{
				Key: "upsell_score", Header: "Upsell Priority",
				Value:    func(r hvac.ClientRow) any { return r.Upsell.Score },
				Render:   func(r hvac.ClientRow) string { return r.Upsell.Priority },
				Sortable: true,
			},
			{Key: "contact_name", Header: "Contact", Value: func(r hvac.ClientRow) any { return r.ContactName }, Filterable: true},
			{Key: "contact_phone", Header: "Phone", Value: func(r hvac.ClientRow) any { return r.ContactPhone }},
		},
	}
}

func contractsTable() tableView {
	return tableDef[hvac.ContractRow]{
		name:  "contracts",
		title: "Contracts",
		rows:  (*hvac.Engine).ContractRows,
		columns: []generic.Column[hvac.ContractRow]{
			{Key: "client_name", Header: "Client", Value: func(r hvac.ContractRow) any { return r.ClientName }, Sortable: true, Filterable: true},
			{
				Key: "client_industry", Header: "Industry",
				Value:    func(r hvac.ContractRow) any { return r.ClientIndustry },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect, FilterOptions: industryOptions,
			},
			{
				Key: "status", Header: "Status",
				Value:    func(r hvac.ContractRow) any { return string(r.Status) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect,
				FilterOptions: []string{"active", "expired", "cancelled", "pending_renewal"},
			},
			{
				Key: "annual_value", Header: "Annual Value",
				Value:    func(r hvac.ContractRow) any { return r.AnnualValue },
				Render:   func(r hvac.ContractRow) string { return currency(r.AnnualValue) },
				Sortable: true,
			},
			{Key: "visits_per_year", Header: "Visits/Year", Value: func(r hvac.ContractRow) any { return r.VisitsPerYear }, Sortable: true},
			{
				Key: "start_date", Header: "Start Date",
				Value:    func(r hvac.ContractRow) any { return r.StartDate },
				Render:   func(r hvac.ContractRow) string { return date(r.StartDate) },
				Sortable: true,
			},
			{
				Key: "end_date", Header: "End Date",
				Value:    func(r hvac.ContractRow) any { return r.EndDate },
				Render:   func(r hvac.ContractRow) string { return date(r.EndDate) },
				Sortable: true,
			},
			{
				Key: "renewal_date", Header: "Renewal Date",
				Value:    func(r hvac.ContractRow) any { return r.RenewalDate },
				Render:   func(r hvac.ContractRow) string { return date(r.RenewalDate) },
				Sortable: true,
			},
			{
				Key: "days_until_renewal", Header: "Days Until Renewal",
				Value: func(r hvac.ContractRow) any { return r.DaysUntilRenewal },
				Render: func(r hvac.ContractRow) string {
					if r.DaysUntilRenewal < 0 {
						return "Overdue"
					}
					return fmt.Sprintf("%d days", r.DaysUntilRenewal)
				},
				Sortable: true,
			},
		},
	}
}

func callbacksTable() tableView {
	return tableDef[hvac.CallbackRow]{
		name:  "callbacks",
		title: "Callbacks",
		rows:  func(e *hvac.Engine, _ time.Time) []hvac.CallbackRow { return e.CallbackRows() },
		columns: []generic.Column[hvac.CallbackRow]{
			{Key: "client_name", Header: "Client", Value: func(r hvac.CallbackRow) any { return r.ClientName }, Sortable: true, Filterable: true},
			{
				Key: "system_type", Header: "System Type",
				Value:    func(r hvac.CallbackRow) any { return r.SystemType },
				Render:   func(r hvac.CallbackRow) string { return systemTypeLabel(hvac.SystemType(r.SystemType)) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect, FilterOptions: systemTypeOptions,
			},
			{
				Key: "job_type", Header: "Job Type",
				Value:    func(r hvac.CallbackRow) any { return r.JobType },
				Render:   func(r hvac.CallbackRow) string { return jobTypeLabel(hvac.JobType(r.JobType)) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect, FilterOptions: jobTypeOptions,
			},
			{
				Key: "root_job_date", Header: "Original Job",
				Value:    func(r hvac.CallbackRow) any { return r.RootJobDate },
				Render:   func(r hvac.CallbackRow) string { return datePtr(r.RootJobDate) },
				Sortable: true,
			},
			{
				Key: "callback_job_date", Header: "Callback Date",
				Value:    func(r hvac.CallbackRow) any { return r.CallbackJobDate },
				Render:   func(r hvac.CallbackRow) string { return datePtr(r.CallbackJobDate) },
				Sortable: true,
			},
			{
				Key: "reason_category", Header: "Root Cause",
				Value:    func(r hvac.CallbackRow) any { return string(r.ReasonCategory) },
				Render:   func(r hvac.CallbackRow) string { return hvac.ReasonLabel(r.ReasonCategory) + ": " + r.RootCause },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect,
				FilterOptions: []string{"workmanship", "part_failure", "misdiagnosis", "documentation", "other"},
			},
			{
				Key: "outcome", Header: "Outcome",
				Value:    func(r hvac.CallbackRow) any { return string(r.Outcome) },
				Sortable: true, Filterable: true, FilterType: generic.FilterSelect,
				FilterOptions: []string{"resolved", "repeat"},
			},
			{Key: "technician_names", Header: "Original Technicians", Value: func(r hvac.CallbackRow) any { return r.TechnicianNames }, Filterable: true},
			{Key: "corrective_action", Header: "Corrective Action", Value: func(r hvac.CallbackRow) any { return r.CorrectiveAction }},
		},
	}
}

func equipmentTable() tableView {
	return tableDef[hvac.EquipmentRow]{
		name:  "equipment",
		title: "Equipment",
		rows:  (*hvac.Engine).EquipmentRows,
		columns: []generic.Column[hvac.EquipmentRow]{
			{Key: "id", Header: "Unit", Value: func(r hvac.EquipmentRow) any { return r.ID }, Sortable: true},
			{Key: "client_name", Header: "Client", Value: func(r hvac.EquipmentRow) any { return r.ClientName }, Sortable: true, Filterable: true},
			{Key: "make", Header: "Make", Value: func(r hvac.EquipmentRow) any { return r.Make }, Sortable: true, Filterable: true},
			{Key: "model", Header: "Model", Value: func(r hvac.EquipmentRow) any { return r.Model }},
			{Key: "age", Header: "Age (years)", Value: func(r hvac.EquipmentRow) any { return r.Age }, Sortable: true},
			{Key: "refrigerant_type", Header: "Refrigerant", Value: func(r hvac.EquipmentRow) any { return r.RefrigerantType }, Filterable: true},
			{
				Key: "last_service_date", Header: "Last Service",
				Value:    func(r hvac.EquipmentRow) any { return r.LastServiceDate },
				Render:   func(r hvac.EquipmentRow) string { return datePtr(r.LastServiceDate) },
				Sortable: true,
			},
			{
				Key: "failure_risk_score", Header: "Failure Risk",
				Value:    func(r hvac.EquipmentRow) any { return r.FailureRiskScore },
				Render:   func(r hvac.EquipmentRow) string { return strconv.FormatFloat(r.FailureRiskScore, 'f', 0, 64) },
				Sortable: true,
			},
		},
	}
}

// =============================================================================
// DISPLAY FORMATS
// =============================================================================

// currency rounds to whole dollars: "$1,235", "-$40".
func currency(d decimal.Decimal) string {
	n := d.Round(0).IntPart()
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

func percent(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" }

func signedPercent(v float64) string {
	if v > 0 {
		return "+" + percent(v)
	}
	return percent(v)
}

func hours(h float64) string {
	if h == 1 {
		return "1 hour"
	}
	return strconv.FormatFloat(h, 'f', 1, 64) + " hours"
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

func datePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return date(*t)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func jobTypeLabel(t hvac.JobType) string {
	switch t {
	case hvac.JobService:
		return "Service Call"
	case hvac.JobPM:
		return "Preventive Maintenance"
	case hvac.JobInstall:
		return "Installation"
	}
	return string(t)
}

func systemTypeLabel(t hvac.SystemType) string {
	switch t {
	case hvac.SystemRTU:
		return "Rooftop Unit"
	case hvac.SystemSplit:
		return "Split System"
	case hvac.SystemMiniSplit:
		return "Mini-Split"
	case hvac.SystemChiller:
		return "Chiller"
	case hvac.SystemBoiler:
		return "Boiler"
	case hvac.SystemRefrigeration:
		return "Refrigeration"
	}
	return string(t)
}
