/*
Package hvac holds the business model of an HVAC service contractor and the
analytics computed over it.

PURPOSE:
  Operational records (clients, technicians, jobs, invoices, contracts,
  equipment, callbacks) are loaded once into an immutable Store. The Engine
  derives KPI, technician and client metrics from the Store as of a given
  instant. Nothing here is persisted or mutated after load.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entities: the raw records, with JSON tags matching the source files
  - Derived records: KPIMetrics, TechnicianMetrics, ClientMetrics

CONVENTIONS:
  - Money is decimal.Decimal; hours and scores are float64/int
  - Nullable fields are pointers (nil = not yet known / not applicable)

SEE ALSO:
  - store.go: Record Store and its accessors
  - metrics.go: KPI, technician and client metric computations
  - charts.go: Revenue, top-client and callback trend series
*/
package hvac

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

type ServiceLevel string

const (
	ServiceStandard ServiceLevel = "standard"
	ServicePriority ServiceLevel = "priority"
	ServicePremium  ServiceLevel = "premium"
)

type TechnicianRole string

const (
	RoleJunior     TechnicianRole = "junior"
	RoleSenior     TechnicianRole = "senior"
	RoleLead       TechnicianRole = "lead"
	RoleSpecialist TechnicianRole = "specialist"
)

type JobType string

const (
	JobService JobType = "service"
	JobInstall JobType = "install"
	JobPM      JobType = "pm"
)

type SystemType string

const (
	SystemRTU           SystemType = "RTU"
	SystemSplit         SystemType = "split"
	SystemMiniSplit     SystemType = "mini-split"
	SystemChiller       SystemType = "chiller"
	SystemBoiler        SystemType = "boiler"
	SystemRefrigeration SystemType = "refrigeration"
)

// JobStatus follows scheduled -> in_progress -> done -> invoiced -> paid, or
// canceled at any point.
type JobStatus string

const (
	StatusScheduled  JobStatus = "scheduled"
	StatusInProgress JobStatus = "in_progress"
	StatusDone       JobStatus = "done"
	StatusInvoiced   JobStatus = "invoiced"
	StatusPaid       JobStatus = "paid"
	StatusCanceled   JobStatus = "canceled"
)

type PaymentMethod string

const (
	PaymentCheck      PaymentMethod = "check"
	PaymentACH        PaymentMethod = "ach"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentCash       PaymentMethod = "cash"
)

type ContractStatus string

const (
	ContractActive         ContractStatus = "active"
	ContractExpired        ContractStatus = "expired"
	ContractCancelled      ContractStatus = "cancelled"
	ContractPendingRenewal ContractStatus = "pending_renewal"
)

type CallbackReason string

const (
	ReasonMisdiagnosis  CallbackReason = "misdiagnosis"
	ReasonPartFailure   CallbackReason = "part_failure"
	ReasonWorkmanship   CallbackReason = "workmanship"
	ReasonDocumentation CallbackReason = "documentation"
	ReasonOther         CallbackReason = "other"
)

type CallbackOutcome string

const (
	OutcomeResolved CallbackOutcome = "resolved"
	OutcomeRepeat   CallbackOutcome = "repeat"
)

type AttachmentType string

const (
	AttachmentQuote      AttachmentType = "quote"
	AttachmentInvoice    AttachmentType = "invoice"
	AttachmentFieldNote  AttachmentType = "field_note"
	AttachmentPhoto      AttachmentType = "photo"
	AttachmentDiagnostic AttachmentType = "diagnostic"
)

// =============================================================================
// ENTITIES
// =============================================================================

type Client struct {
	ID           string       `json:"id" validate:"required"`
	Name         string       `json:"name" validate:"required"`
	Industry     string       `json:"industry"`
	Address      string       `json:"address"`
	ContactName  string       `json:"contact_name"`
	ContactEmail string       `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string       `json:"contact_phone"`
	CreditTerms  int          `json:"credit_terms" validate:"gte=0"`
	ServiceLevel ServiceLevel `json:"service_level" validate:"oneof=standard priority premium"`
	CreatedAt    time.Time    `json:"created_at"`
}

type SkillRatings struct {
	HVACSystems     int `json:"hvac_systems" validate:"min=1,max=10"`
	Electrical      int `json:"electrical" validate:"min=1,max=10"`
	Refrigeration   int `json:"refrigeration" validate:"min=1,max=10"`
	Troubleshooting int `json:"troubleshooting" validate:"min=1,max=10"`
	CustomerService int `json:"customer_service" validate:"min=1,max=10"`
}

type Technician struct {
	ID              string          `json:"id" validate:"required"`
	Name            string          `json:"name" validate:"required"`
	Role            TechnicianRole  `json:"role" validate:"oneof=junior senior lead specialist"`
	Certifications  []string        `json:"certifications"`
	HireDate        time.Time       `json:"hire_date"`
	SkillRatings    SkillRatings    `json:"skill_ratings"`
	HourlyCost      decimal.Decimal `json:"hourly_cost"`
	EfficiencyScore float64         `json:"efficiency_score" validate:"gte=0,lte=100"`
}

type Job struct {
	ID                  string          `json:"id" validate:"required"`
	ClientID            string          `json:"client_id" validate:"required"`
	TechnicianIDs       []string        `json:"technician_ids" validate:"min=1,max=2,dive,required"`
	JobType             JobType         `json:"job_type" validate:"oneof=service install pm"`
	SystemType          SystemType      `json:"system_type" validate:"oneof=RTU split mini-split chiller boiler refrigeration"`
	SiteLocation        string          `json:"site_location"`
	ScheduledAt         time.Time       `json:"scheduled_at"`
	StartedAt           *time.Time      `json:"started_at"`
	CompletedAt         *time.Time      `json:"completed_at"`
	LaborHoursActual    *float64        `json:"labor_hours_actual" validate:"omitempty,gte=0"`
	LaborHoursEstimated float64         `json:"labor_hours_estimated" validate:"gte=0"`
	PartsCost           decimal.Decimal `json:"parts_cost"`
	SubcontractorCost   decimal.Decimal `json:"subcontractor_cost"`
	TravelTimeHours     float64         `json:"travel_time_hours" validate:"gte=0"`
	Notes               string          `json:"notes"`
	SourceDocs          []string        `json:"source_docs"`
	Status              JobStatus       `json:"status" validate:"oneof=scheduled in_progress done invoiced paid canceled"`
	CameBack            bool            `json:"came_back"`
	ComebackID          *string         `json:"comeback_id"`
}

// HasTechnician reports whether id is assigned to the job.
func (j Job) HasTechnician(id string) bool {
	for _, t := range j.TechnicianIDs {
		if t == id {
			return true
		}
	}
	return false
}

// ActualHours returns labor_hours_actual, or 0 when not recorded.
func (j Job) ActualHours() float64 {
	if j.LaborHoursActual == nil {
		return 0
	}
	return *j.LaborHoursActual
}

// HasActualHours is true only for a recorded, non-zero actual.
func (j Job) HasActualHours() bool {
	return j.LaborHoursActual != nil && *j.LaborHoursActual != 0
}

type Invoice struct {
	ID            string          `json:"id" validate:"required"`
	JobID         string          `json:"job_id" validate:"required"`
	SubtotalLabor decimal.Decimal `json:"subtotal_labor"`
	SubtotalParts decimal.Decimal `json:"subtotal_parts"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	IssuedAt      time.Time       `json:"issued_at"`
	PaidAt        *time.Time      `json:"paid_at"`
	DaysToPay     *int            `json:"days_to_pay" validate:"omitempty,gte=0"`
	PaymentMethod *PaymentMethod  `json:"payment_method"`
}

// IsPaid reports whether the invoice has a payment date.
func (i Invoice) IsPaid() bool { return i.PaidAt != nil }

type Contract struct {
	ID            string          `json:"id" validate:"required"`
	ClientID      string          `json:"client_id" validate:"required"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	AnnualValue   decimal.Decimal `json:"annual_value"`
	VisitsPerYear int             `json:"visits_per_year" validate:"gte=0"`
	EquipmentList []string        `json:"equipment_list"`
	RenewalDate   time.Time       `json:"renewal_date"`
	Status        ContractStatus  `json:"status" validate:"oneof=active expired cancelled pending_renewal"`
}

type Equipment struct {
	ID               string     `json:"id" validate:"required"`
	ClientID         string     `json:"client_id" validate:"required"`
	Make             string     `json:"make"`
	Model            string     `json:"model"`
	InstallYear      int        `json:"install_year"`
	Tonnage          *float64   `json:"tonnage"`
	RefrigerantType  string     `json:"refrigerant_type"`
	LastServiceDate  *time.Time `json:"last_service_date"`
	FailureRiskScore float64    `json:"failure_risk_score" validate:"gte=0,lte=100"`
}

// Age is the number of whole years between install_year and asOf's year.
func (e Equipment) Age(asOf time.Time) int {
	return asOf.Year() - e.InstallYear
}

type Callback struct {
	ID               string          `json:"id" validate:"required"`
	RootJobID        string          `json:"root_job_id" validate:"required"`
	CallbackJobID    string          `json:"callback_job_id" validate:"required"`
	ReasonCategory   CallbackReason  `json:"reason_category" validate:"oneof=misdiagnosis part_failure workmanship documentation other"`
	Outcome          CallbackOutcome `json:"outcome" validate:"oneof=resolved repeat"`
	CorrectiveAction string          `json:"corrective_action"`
}

type Attachment struct {
	ID               string         `json:"id" validate:"required"`
	JobID            string         `json:"job_id" validate:"required"`
	Type             AttachmentType `json:"type" validate:"oneof=quote invoice field_note photo diagnostic"`
	Filename         string         `json:"filename"`
	ExtractedSummary string         `json:"extracted_summary"`
}

type PricebookItem struct {
	ID               string          `json:"id" validate:"required"`
	PartNumber       string          `json:"part_number"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Cost             decimal.Decimal `json:"cost"`
	ListPrice        decimal.Decimal `json:"list_price"`
	MarkupPercentage float64         `json:"markup_percentage"`
	Supplier         string          `json:"supplier"`
}

// =============================================================================
// DERIVED RECORDS - Computed on demand, never stored
// =============================================================================

// ARAging buckets outstanding invoice totals by days since issue.
type ARAging struct {
	Current    decimal.Decimal `json:"current"`
	Days30     decimal.Decimal `json:"days_30"`
	Days60     decimal.Decimal `json:"days_60"`
	Days90Plus decimal.Decimal `json:"days_90_plus"`
}

// Total is the sum of every bucket.
func (a ARAging) Total() decimal.Decimal {
	return a.Current.Add(a.Days30).Add(a.Days60).Add(a.Days90Plus)
}

type KPIMetrics struct {
	AsOf                  time.Time       `json:"as_of"`
	RevenueMTD            decimal.Decimal `json:"revenue_mtd"`
	RevenueYTD            decimal.Decimal `json:"revenue_ytd"`
	GrossMarginPercentage float64         `json:"gross_margin_percentage"`
	CallbackRate          float64         `json:"callback_rate"`
	FirstTimeFixRate      float64         `json:"first_time_fix_rate"`
	ARAging               ARAging         `json:"ar_aging"`
	JobsOverBudget        int             `json:"jobs_over_budget"`
	ContractsDueRenewal   int             `json:"contracts_due_renewal"`
}

type TechnicianMetrics struct {
	TechnicianID            string          `json:"technician_id"`
	FirstTimeFixRate        float64         `json:"first_time_fix_rate"`
	CallbackRate            float64         `json:"callback_rate"`
	EfficiencyIndex         float64         `json:"efficiency_index"`
	AvgMarginContribution   decimal.Decimal `json:"avg_margin_contribution"`
	LaborVariancePercentage float64         `json:"labor_variance_percentage"`
	TotalJobs               int             `json:"total_jobs"`
}

type ClientMetrics struct {
	ClientID           string          `json:"client_id"`
	Trailing6moRevenue decimal.Decimal `json:"trailing_6mo_revenue"`
	AvgDaysToPay       float64         `json:"avg_days_to_pay"`
	MarginPercentage   float64         `json:"margin_percentage"`
	CallbackLoad       float64         `json:"callback_load"`
	RenewalLikelihood  int             `json:"renewal_likelihood"`
	ValueScore         int             `json:"value_score"`
}
