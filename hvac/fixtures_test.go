package hvac_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/hvac-insights/generic"
	"github.com/warp/hvac-insights/hvac"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// asOf is the evaluation instant for every fixture.
var asOf = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := generic.AddDays(asOf, -n)
	return &t
}

func ptr[T any](v T) *T { return &v }

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func technician(id string, hourly int64, efficiency float64) hvac.Technician {
	return hvac.Technician{
		ID:              id,
		Name:            "Tech " + id,
		Role:            hvac.RoleSenior,
		HireDate:        time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC),
		SkillRatings:    hvac.SkillRatings{HVACSystems: 7, Electrical: 7, Refrigeration: 7, Troubleshooting: 7, CustomerService: 7},
		HourlyCost:      money(hourly),
		EfficiencyScore: efficiency,
	}
}

func client(id string) hvac.Client {
	return hvac.Client{
		ID:           id,
		Name:         "Client " + id,
		Industry:     "Restaurant",
		CreditTerms:  30,
		ServiceLevel: hvac.ServiceStandard,
		CreatedAt:    time.Date(2022, time.January, 10, 0, 0, 0, 0, time.UTC),
	}
}

// completedJob is finished `ago` days before asOf with the given hours. A
// negative actual leaves labor_hours_actual unset.
func completedJob(id, clientID string, ago int, estimated, actual float64, techIDs ...string) hvac.Job {
	j := hvac.Job{
		ID:                  id,
		ClientID:            clientID,
		TechnicianIDs:       techIDs,
		JobType:             hvac.JobService,
		SystemType:          hvac.SystemRTU,
		ScheduledAt:         *daysAgo(ago + 1),
		StartedAt:           daysAgo(ago),
		CompletedAt:         daysAgo(ago),
		LaborHoursEstimated: estimated,
		Status:              hvac.StatusDone,
	}
	if actual >= 0 {
		j.LaborHoursActual = ptr(actual)
	}
	return j
}

func scheduledJob(id, clientID string, techIDs ...string) hvac.Job {
	return hvac.Job{
		ID:                  id,
		ClientID:            clientID,
		TechnicianIDs:       techIDs,
		JobType:             hvac.JobPM,
		SystemType:          hvac.SystemSplit,
		ScheduledAt:         generic.AddDays(asOf, 3),
		LaborHoursEstimated: 2,
		Status:              hvac.StatusScheduled,
	}
}

func paidInvoice(id, jobID string, total int64, paidAgo, daysToPay int) hvac.Invoice {
	paid := daysAgo(paidAgo)
	return hvac.Invoice{
		ID:        id,
		JobID:     jobID,
		Total:     money(total),
		IssuedAt:  generic.AddDays(*paid, -daysToPay),
		PaidAt:    paid,
		DaysToPay: ptr(daysToPay),
	}
}

func openInvoice(id, jobID string, total int64, issuedAgo int) hvac.Invoice {
	return hvac.Invoice{
		ID:       id,
		JobID:    jobID,
		Total:    money(total),
		IssuedAt: *daysAgo(issuedAgo),
	}
}

func callback(id, rootJobID, followJobID string, reason hvac.CallbackReason) hvac.Callback {
	return hvac.Callback{
		ID:             id,
		RootJobID:      rootJobID,
		CallbackJobID:  followJobID,
		ReasonCategory: reason,
		Outcome:        hvac.OutcomeResolved,
	}
}

func contract(id, clientID string, status hvac.ContractStatus, renewalInDays int) hvac.Contract {
	return hvac.Contract{
		ID:            id,
		ClientID:      clientID,
		StartDate:     generic.AddDays(asOf, -300),
		EndDate:       generic.AddDays(asOf, 65),
		AnnualValue:   money(4800),
		VisitsPerYear: 4,
		RenewalDate:   generic.AddDays(asOf, renewalInDays),
		Status:        status,
	}
}

func newEngine(ds hvac.Dataset, opts ...hvac.Option) *hvac.Engine {
	opts = append([]hvac.Option{hvac.WithClock(generic.FixedClock{At: asOf})}, opts...)
	return hvac.NewEngine(hvac.NewStore(ds), opts...)
}

// overBudgetDataset is one job completed 10 days ago: 4h estimated, 5h actual,
// $50 parts, one $45/h technician, paid $600 invoice.
func overBudgetDataset() hvac.Dataset {
	job := completedJob("J1", "C1", 10, 4, 5, "T1")
	job.PartsCost = money(50)
	return hvac.Dataset{
		Clients:     []hvac.Client{client("C1")},
		Technicians: []hvac.Technician{technician("T1", 45, 80)},
		Jobs:        []hvac.Job{job},
		Invoices:    []hvac.Invoice{paidInvoice("I1", "J1", 600, 5, 5)},
	}
}
