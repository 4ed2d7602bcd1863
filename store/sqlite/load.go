package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/hvac-insights/hvac"
)

// =============================================================================
// LOAD
// =============================================================================

// LoadDataset reads every table back into a Dataset, ordered by rowid so the
// insertion order of SaveDataset is preserved.
func (s *Store) LoadDataset(ctx context.Context) (hvac.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ds hvac.Dataset
	var err error
	if ds.Clients, err = queryAll(ctx, s.db, "clients", scanClient); err != nil {
		return hvac.Dataset{}, err
	}
	if ds.Technicians, err = queryAll(ctx, s.db, "technicians", scanTechnician); err != nil {
		return hvac.Dataset{}, err
	}
	if ds.Jobs, err = queryAll(ctx, s.db, "jobs", scanJob); err != nil {
		return hvac.Dataset{}, err
	}
	if ds.Invoices, err = queryAll(ctx, s.db, "invoices", scanInvoice); err != nil {
		return hvac.Dataset{}, err
	}
	if ds.Contracts, err = queryAll(ctx, s.db, "contracts", scanContract); err != nil {
		return hvac.Dataset{}, err
	}
	if ds.Equipment, err = queryAll(ctx, s.db, "equipment", scanEquipment); err != nil {
		return hvac.Dataset{}, err
	}
	if ds.Callbacks, err = queryAll(ctx, s.db, "callbacks", scanCallback); err != nil {
		return hvac.Dataset{}, err
	}
	if ds.Attachments, err = queryAll(ctx, s.db, "attachments", scanAttachment); err != nil {
		return hvac.Dataset{}, err
	}
	if ds.Pricebook, err = queryAll(ctx, s.db, "pricebook", scanPricebookItem); err != nil {
		return hvac.Dataset{}, err
	}
	return ds, nil
}

func queryAll[T any](ctx context.Context, db *sql.DB, table string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func parseInto(dst *time.Time, s string) error {
	t, err := parseTime(s)
	if err != nil {
		return err
	}
	*dst = t
	return nil
}

func timePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func decodeList(s string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}

func scanClient(rows *sql.Rows) (hvac.Client, error) {
	var c hvac.Client
	var level, createdAt string
	err := rows.Scan(&c.ID, &c.Name, &c.Industry, &c.Address, &c.ContactName, &c.ContactEmail,
		&c.ContactPhone, &c.CreditTerms, &level, &createdAt)
	if err != nil {
		return c, err
	}
	c.ServiceLevel = hvac.ServiceLevel(level)
	return c, parseInto(&c.CreatedAt, createdAt)
}

func scanTechnician(rows *sql.Rows) (hvac.Technician, error) {
	var t hvac.Technician
	var role, certs, hireDate string
	sr := &t.SkillRatings
	err := rows.Scan(&t.ID, &t.Name, &role, &certs, &hireDate,
		&sr.HVACSystems, &sr.Electrical, &sr.Refrigeration, &sr.Troubleshooting, &sr.CustomerService,
		&t.HourlyCost, &t.EfficiencyScore)
	if err != nil {
		return t, err
	}
	t.Role = hvac.TechnicianRole(role)
	if t.Certifications, err = decodeList(certs); err != nil {
		return t, err
	}
	return t, parseInto(&t.HireDate, hireDate)
}

func scanJob(rows *sql.Rows) (hvac.Job, error) {
	var j hvac.Job
	var techIDs, jobType, systemType, scheduledAt, sourceDocs, status string
	var startedAt, completedAt, comebackID sql.NullString
	var actual sql.NullFloat64
	err := rows.Scan(&j.ID, &j.ClientID, &techIDs, &jobType, &systemType, &j.SiteLocation, &scheduledAt,
		&startedAt, &completedAt, &actual, &j.LaborHoursEstimated, &j.PartsCost, &j.SubcontractorCost,
		&j.TravelTimeHours, &j.Notes, &sourceDocs, &status, &j.CameBack, &comebackID)
	if err != nil {
		return j, err
	}
	j.JobType = hvac.JobType(jobType)
	j.SystemType = hvac.SystemType(systemType)
	j.Status = hvac.JobStatus(status)
	if actual.Valid {
		j.LaborHoursActual = &actual.Float64
	}
	if comebackID.Valid {
		j.ComebackID = &comebackID.String
	}
	if j.TechnicianIDs, err = decodeList(techIDs); err != nil {
		return j, err
	}
	if j.SourceDocs, err = decodeList(sourceDocs); err != nil {
		return j, err
	}
	if j.StartedAt, err = timePtr(startedAt); err != nil {
		return j, err
	}
	if j.CompletedAt, err = timePtr(completedAt); err != nil {
		return j, err
	}
	return j, parseInto(&j.ScheduledAt, scheduledAt)
}

func scanInvoice(rows *sql.Rows) (hvac.Invoice, error) {
	var inv hvac.Invoice
	var issuedAt string
	var paidAt, method sql.NullString
	var daysToPay sql.NullInt64
	err := rows.Scan(&inv.ID, &inv.JobID, &inv.SubtotalLabor, &inv.SubtotalParts, &inv.Tax, &inv.Total,
		&issuedAt, &paidAt, &daysToPay, &method)
	if err != nil {
		return inv, err
	}
	if daysToPay.Valid {
		d := int(daysToPay.Int64)
		inv.DaysToPay = &d
	}
	if method.Valid {
		m := hvac.PaymentMethod(method.String)
		inv.PaymentMethod = &m
	}
	if inv.PaidAt, err = timePtr(paidAt); err != nil {
		return inv, err
	}
	return inv, parseInto(&inv.IssuedAt, issuedAt)
}

func scanContract(rows *sql.Rows) (hvac.Contract, error) {
	var c hvac.Contract
	var start, end, equipment, renewal, status string
	err := rows.Scan(&c.ID, &c.ClientID, &start, &end, &c.AnnualValue, &c.VisitsPerYear,
		&equipment, &renewal, &status)
	if err != nil {
		return c, err
	}
	c.Status = hvac.ContractStatus(status)
	if c.EquipmentList, err = decodeList(equipment); err != nil {
		return c, err
	}
	if err := parseInto(&c.StartDate, start); err != nil {
		return c, err
	}
	if err := parseInto(&c.EndDate, end); err != nil {
		return c, err
	}
	return c, parseInto(&c.RenewalDate, renewal)
}

func scanEquipment(rows *sql.Rows) (hvac.Equipment, error) {
	var e hvac.Equipment
	var tonnage sql.NullFloat64
	var lastService sql.NullString
	err := rows.Scan(&e.ID, &e.ClientID, &e.Make, &e.Model, &e.InstallYear, &tonnage,
		&e.RefrigerantType, &lastService, &e.FailureRiskScore)
	if err != nil {
		return e, err
	}
	if tonnage.Valid {
		e.Tonnage = &tonnage.Float64
	}
	e.LastServiceDate, err = timePtr(lastService)
	return e, err
}

func scanCallback(rows *sql.Rows) (hvac.Callback, error) {
	var cb hvac.Callback
	var reason, outcome string
	err := rows.Scan(&cb.ID, &cb.RootJobID, &cb.CallbackJobID, &reason, &outcome, &cb.CorrectiveAction)
	cb.ReasonCategory = hvac.CallbackReason(reason)
	cb.Outcome = hvac.CallbackOutcome(outcome)
	return cb, err
}

func scanAttachment(rows *sql.Rows) (hvac.Attachment, error) {
	var a hvac.Attachment
	var typ string
	err := rows.Scan(&a.ID, &a.JobID, &typ, &a.Filename, &a.ExtractedSummary)
	a.Type = hvac.AttachmentType(typ)
	return a, err
}

func scanPricebookItem(rows *sql.Rows) (hvac.PricebookItem, error) {
	var p hvac.PricebookItem
	err := rows.Scan(&p.ID, &p.PartNumber, &p.Description, &p.Category, &p.Cost, &p.ListPrice,
		&p.MarkupPercentage, &p.Supplier)
	return p, err
}
