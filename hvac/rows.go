package hvac

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LISTING ROWS - Records joined with the names and metrics a listing shows
// =============================================================================
// Dangling references render as "Unknown" rather than failing the listing.

const unknown = "Unknown"

type JobRow struct {
	Job
	ClientName      string          `json:"client_name"`
	TechnicianNames string          `json:"technician_names"`
	InvoiceTotal    decimal.Decimal `json:"invoice_total"`
	ProfitStatus    ProfitStatus    `json:"profit_status"`
	Complexity      Complexity      `json:"complexity"`
	Emergency       bool            `json:"emergency"`
}

type TechnicianRow struct {
	Technician
	TechnicianMetrics
}

type ClientRow struct {
	Client
	ClientMetrics
	EquipmentCount int    `json:"equipment_count"`
	Upsell         Upsell `json:"upsell"`
}

type ContractRow struct {
	Contract
	ClientName       string `json:"client_name"`
	ClientIndustry   string `json:"client_industry"`
	DaysUntilRenewal int    `json:"days_until_renewal"`
}

type CallbackRow struct {
	Callback
	ClientName      string     `json:"client_name"`
	SystemType      string     `json:"system_type"`
	JobType         string     `json:"job_type"`
	RootJobDate     *time.Time `json:"root_job_date"`
	CallbackJobDate *time.Time `json:"callback_job_date"`
	TechnicianNames string     `json:"technician_names"`
	RootCause       string     `json:"root_cause"`
}

type EquipmentRow struct {
	Equipment
	ClientName string `json:"client_name"`
	Age        int    `json:"age"`
}

func (e *Engine) technicianNames(ids []string) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = unknown
		if t, ok := e.store.TechnicianByID(id); ok {
			names[i] = t.Name
		}
	}
	return strings.Join(names, ", ")
}

// JobRows lists every job with its client, crew, invoice total and profit
// status. Jobs without an invoice show a zero total.
func (e *Engine) JobRows() []JobRow {
	jobs := e.store.Jobs()
	out := make([]JobRow, len(jobs))
	for i, j := range jobs {
		row := JobRow{
			Job:             j,
			ClientName:      e.clientName(j.ClientID),
			TechnicianNames: e.technicianNames(j.TechnicianIDs),
			ProfitStatus:    JobProfitStatus(j),
			Complexity:      ClassifyComplexity(j.Notes, j.ActualHours()),
			Emergency:       IsEmergency(j.Notes),
		}
		if inv, ok := e.store.InvoiceByJobID(j.ID); ok {
			row.InvoiceTotal = inv.Total
		}
		out[i] = row
	}
	return out
}

// TechnicianRows pairs each technician with their metrics as of asOf.
func (e *Engine) TechnicianRows(asOf time.Time) []TechnicianRow {
	asOf = e.resolve(asOf)
	techs := e.store.Technicians()
	out := make([]TechnicianRow, len(techs))
	for i, t := range techs {
		out[i] = TechnicianRow{Technician: t, TechnicianMetrics: e.TechnicianMetrics(t.ID, asOf)}
	}
	return out
}

// ClientRows pairs each client with their metrics and upsell opportunity,
// highest value score first.
func (e *Engine) ClientRows(asOf time.Time) []ClientRow {
	asOf = e.resolve(asOf)
	clients := e.store.Clients()
	out := make([]ClientRow, len(clients))
	for i, c := range clients {
		out[i] = ClientRow{
			Client:         c,
			ClientMetrics:  e.ClientMetrics(c.ID, asOf),
			EquipmentCount: len(e.store.EquipmentByClientID(c.ID)),
			Upsell:         e.ClientUpsell(c.ID, asOf),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ValueScore > out[j].ValueScore
	})
	return out
}

func (e *Engine) ContractRows(asOf time.Time) []ContractRow {
	asOf = e.resolve(asOf)
	contracts := e.store.Contracts()
	out := make([]ContractRow, len(contracts))
	for i, c := range contracts {
		row := ContractRow{
			Contract:         c,
			ClientName:       unknown,
			ClientIndustry:   unknown,
			DaysUntilRenewal: DaysUntilRenewal(c, asOf),
		}
		if cl, ok := e.store.ClientByID(c.ClientID); ok {
			row.ClientName, row.ClientIndustry = cl.Name, cl.Industry
		}
		out[i] = row
	}
	return out
}

// CallbackRows joins each callback with its root job's client, system, crew
// and completion date, and the follow-up job's scheduled date.
func (e *Engine) CallbackRows() []CallbackRow {
	callbacks := e.store.Callbacks()
	out := make([]CallbackRow, len(callbacks))
	for i, cb := range callbacks {
		row := CallbackRow{
			Callback:        cb,
			ClientName:      unknown,
			SystemType:      unknown,
			JobType:         unknown,
			TechnicianNames: unknown,
			RootCause:       RootCause(cb.CorrectiveAction, cb.ReasonCategory),
		}
		if root, ok := e.store.JobByID(cb.RootJobID); ok {
			row.ClientName = e.clientName(root.ClientID)
			row.SystemType = string(root.SystemType)
			row.JobType = string(root.JobType)
			row.RootJobDate = root.CompletedAt
			row.TechnicianNames = e.technicianNames(root.TechnicianIDs)
		}
		if follow, ok := e.store.JobByID(cb.CallbackJobID); ok {
			at := follow.ScheduledAt
			row.CallbackJobDate = &at
		}
		out[i] = row
	}
	return out
}

func (e *Engine) EquipmentRows(asOf time.Time) []EquipmentRow {
	asOf = e.resolve(asOf)
	equipment := e.store.Equipment()
	out := make([]EquipmentRow, len(equipment))
	for i, eq := range equipment {
		out[i] = EquipmentRow{Equipment: eq, ClientName: e.clientName(eq.ClientID), Age: eq.Age(asOf)}
	}
	return out
}

// CallbackResolutionRate is the percentage of callbacks with outcome
// resolved; 0 when there are none.
func (e *Engine) CallbackResolutionRate() float64 {
	callbacks := e.store.Callbacks()
	resolved := 0
	for _, cb := range callbacks {
		if cb.Outcome == OutcomeResolved {
			resolved++
		}
	}
	return ratio(resolved, len(callbacks))
}
