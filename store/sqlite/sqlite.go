/*
Package sqlite persists an hvac.Dataset in a SQLite file.

PURPOSE:
  The JSON collection files stay the source of truth. cmd/import copies a
  loaded dataset into SQLite so the server can start from one file
  (DATA_SOURCE=sqlite) instead of a directory. The analytics never query
  SQL directly; the server reads the whole dataset back and builds an
  hvac.Store from it.

KEY TABLES:
  clients, technicians, jobs, invoices, contracts, equipment, callbacks,
  attachments, pricebook. One row per record, columns named after the JSON
  fields.

ENCODING:
  - Times are RFC3339Nano text; NULL for unset pointers
  - Money is decimal text (decimal.Decimal implements Scanner/Valuer)
  - String lists (technician_ids, certifications, ...) are JSON arrays

  No foreign-key constraints are declared: a leniently loaded dataset may
  carry dangling references and must still round-trip.

WAL MODE:
  Opened with WAL and a single writer. ":memory:" databases are pinned to
  one connection so every query sees the same database.

USAGE:
  db, err := sqlite.New("./data/hvac.db")
  if err != nil {
      log.Fatal(err)
  }
  defer db.Close()

  err = db.SaveDataset(ctx, ds)
  ds, err = db.LoadDataset(ctx)

SEE ALSO:
  - factory: reads the JSON files
  - cmd/import: JSON directory to SQLite
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/hvac-insights/hvac"
)

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (creating if needed) the database at dbPath and migrates it.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// tables lists every table in insert order.
var tables = []string{
	"clients", "technicians", "jobs", "invoices", "contracts",
	"equipment", "callbacks", "attachments", "pricebook",
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		industry TEXT NOT NULL,
		address TEXT NOT NULL,
		contact_name TEXT NOT NULL,
		contact_email TEXT NOT NULL,
		contact_phone TEXT NOT NULL,
		credit_terms INTEGER NOT NULL,
		service_level TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS technicians (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		certifications_json TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		skill_hvac_systems INTEGER NOT NULL,
		skill_electrical INTEGER NOT NULL,
		skill_refrigeration INTEGER NOT NULL,
		skill_troubleshooting INTEGER NOT NULL,
		skill_customer_service INTEGER NOT NULL,
		hourly_cost TEXT NOT NULL,
		efficiency_score REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		technician_ids_json TEXT NOT NULL,
		job_type TEXT NOT NULL,
		system_type TEXT NOT NULL,
		site_location TEXT NOT NULL,
		scheduled_at TEXT NOT NULL,
		started_at TEXT,
		completed_at TEXT,
		labor_hours_actual REAL,
		labor_hours_estimated REAL NOT NULL,
		parts_cost TEXT NOT NULL,
		subcontractor_cost TEXT NOT NULL,
		travel_time_hours REAL NOT NULL,
		notes TEXT NOT NULL,
		source_docs_json TEXT NOT NULL,
		status TEXT NOT NULL,
		came_back INTEGER NOT NULL,
		comeback_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_client ON jobs(client_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_completed_at ON jobs(completed_at);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		subtotal_labor TEXT NOT NULL,
		subtotal_parts TEXT NOT NULL,
		tax TEXT NOT NULL,
		total TEXT NOT NULL,
		issued_at TEXT NOT NULL,
		paid_at TEXT,
		days_to_pay INTEGER,
		payment_method TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_job ON invoices(job_id);

	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		annual_value TEXT NOT NULL,
		visits_per_year INTEGER NOT NULL,
		equipment_list_json TEXT NOT NULL,
		renewal_date TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_client ON contracts(client_id);

	CREATE TABLE IF NOT EXISTS equipment (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		make TEXT NOT NULL,
		model TEXT NOT NULL,
		install_year INTEGER NOT NULL,
		tonnage REAL,
		refrigerant_type TEXT NOT NULL,
		last_service_date TEXT,
		failure_risk_score REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_equipment_client ON equipment(client_id);

	CREATE TABLE IF NOT EXISTS callbacks (
		id TEXT PRIMARY KEY,
		root_job_id TEXT NOT NULL,
		callback_job_id TEXT NOT NULL,
		reason_category TEXT NOT NULL,
		outcome TEXT NOT NULL,
		corrective_action TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_callbacks_root ON callbacks(root_job_id);

	CREATE TABLE IF NOT EXISTS attachments (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		type TEXT NOT NULL,
		filename TEXT NOT NULL,
		extracted_summary TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pricebook (
		id TEXT PRIMARY KEY,
		part_number TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		cost TEXT NOT NULL,
		list_price TEXT NOT NULL,
		markup_percentage REAL NOT NULL,
		supplier TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveDataset replaces the stored dataset with ds in one transaction.
// Duplicate ids within a collection fail with a constraint error.
func (s *Store) SaveDataset(ctx context.Context, ds hvac.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, table := range tables {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	steps := []struct {
		table string
		fn    func(context.Context, execer, hvac.Dataset) error
	}{
		{"clients", insertClients},
		{"technicians", insertTechnicians},
		{"jobs", insertJobs},
		{"invoices", insertInvoices},
		{"contracts", insertContracts},
		{"equipment", insertEquipment},
		{"callbacks", insertCallbacks},
		{"attachments", insertAttachments},
		{"pricebook", insertPricebook},
	}
	for _, step := range steps {
		if err := step.fn(ctx, sqlTx, ds); err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("failed to save %s: duplicate id: %w", step.table, err)
			}
			return fmt.Errorf("failed to save %s: %w", step.table, err)
		}
	}

	return sqlTx.Commit()
}

func insertClients(ctx context.Context, db execer, ds hvac.Dataset) error {
	query := `
		INSERT INTO clients
		(id, name, industry, address, contact_name, contact_email, contact_phone,
		 credit_terms, service_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, c := range ds.Clients {
		_, err := db.ExecContext(ctx, query,
			c.ID, c.Name, c.Industry, c.Address, c.ContactName, c.ContactEmail, c.ContactPhone,
			c.CreditTerms, string(c.ServiceLevel), formatTime(c.CreatedAt),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertTechnicians(ctx context.Context, db execer, ds hvac.Dataset) error {
	query := `
		INSERT INTO technicians
		(id, name, role, certifications_json, hire_date, skill_hvac_systems, skill_electrical,
		 skill_refrigeration, skill_troubleshooting, skill_customer_service, hourly_cost, efficiency_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, t := range ds.Technicians {
		sr := t.SkillRatings
		_, err := db.ExecContext(ctx, query,
			t.ID, t.Name, string(t.Role), encodeList(t.Certifications), formatTime(t.HireDate),
			sr.HVACSystems, sr.Electrical, sr.Refrigeration, sr.Troubleshooting, sr.CustomerService,
			t.HourlyCost, t.EfficiencyScore,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertJobs(ctx context.Context, db execer, ds hvac.Dataset) error {
	query := `
		INSERT INTO jobs
		(id, client_id, technician_ids_json, job_type, system_type, site_location, scheduled_at,
		 started_at, completed_at, labor_hours_actual, labor_hours_estimated, parts_cost,
		 subcontractor_cost, travel_time_hours, notes, source_docs_json, status, came_back, comeback_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, j := range ds.Jobs {
		_, err := db.ExecContext(ctx, query,
			j.ID, j.ClientID, encodeList(j.TechnicianIDs), string(j.JobType), string(j.SystemType),
			j.SiteLocation, formatTime(j.ScheduledAt), nullTime(j.StartedAt), nullTime(j.CompletedAt),
			nullFloat(j.LaborHoursActual), j.LaborHoursEstimated, j.PartsCost, j.SubcontractorCost,
			j.TravelTimeHours, j.Notes, encodeList(j.SourceDocs), string(j.Status), j.CameBack,
			nullStringPtr(j.ComebackID),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertInvoices(ctx context.Context, db execer, ds hvac.Dataset) error {
	query := `
		INSERT INTO invoices
		(id, job_id, subtotal_labor, subtotal_parts, tax, total, issued_at, paid_at,
		 days_to_pay, payment_method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, inv := range ds.Invoices {
		var method sql.NullString
		if inv.PaymentMethod != nil {
			method = nullString(string(*inv.PaymentMethod))
		}
		_, err := db.ExecContext(ctx, query,
			inv.ID, inv.JobID, inv.SubtotalLabor, inv.SubtotalParts, inv.Tax, inv.Total,
			formatTime(inv.IssuedAt), nullTime(inv.PaidAt), nullInt(inv.DaysToPay), method,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertContracts(ctx context.Context, db execer, ds hvac.Dataset) error {
	query := `
		INSERT INTO contracts
		(id, client_id, start_date, end_date, annual_value, visits_per_year,
		 equipment_list_json, renewal_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, c := range ds.Contracts {
		_, err := db.ExecContext(ctx, query,
			c.ID, c.ClientID, formatTime(c.StartDate), formatTime(c.EndDate), c.AnnualValue,
			c.VisitsPerYear, encodeList(c.EquipmentList), formatTime(c.RenewalDate), string(c.Status),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertEquipment(ctx context.Context, db execer, ds hvac.Dataset) error {
	query := `
		INSERT INTO equipment
		(id, client_id, make, model, install_year, tonnage, refrigerant_type,
		 last_service_date, failure_risk_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, e := range ds.Equipment {
		_, err := db.ExecContext(ctx, query,
			e.ID, e.ClientID, e.Make, e.Model, e.InstallYear, nullFloat(e.Tonnage),
			e.RefrigerantType, nullTime(e.LastServiceDate), e.FailureRiskScore,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertCallbacks(ctx context.Context, db execer, ds hvac.Dataset) error {
	query := `
		INSERT INTO callbacks
		(id, root_job_id, callback_job_id, reason_category, outcome, corrective_action)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, cb := range ds.Callbacks {
		_, err := db.ExecContext(ctx, query,
			cb.ID, cb.RootJobID, cb.CallbackJobID, string(cb.ReasonCategory), string(cb.Outcome), cb.CorrectiveAction,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertAttachments(ctx context.Context, db execer, ds hvac.Dataset) error {
	query := `
		INSERT INTO attachments (id, job_id, type, filename, extracted_summary)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, a := range ds.Attachments {
		if _, err := db.ExecContext(ctx, query, a.ID, a.JobID, string(a.Type), a.Filename, a.ExtractedSummary); err != nil {
			return err
		}
	}
	return nil
}

func insertPricebook(ctx context.Context, db execer, ds hvac.Dataset) error {
	query := `
		INSERT INTO pricebook
		(id, part_number, description, category, cost, list_price, markup_percentage, supplier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, p := range ds.Pricebook {
		_, err := db.ExecContext(ctx, query,
			p.ID, p.PartNumber, p.Description, p.Category, p.Cost, p.ListPrice, p.MarkupPercentage, p.Supplier,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Counts returns the number of rows per table.
func (s *Store) Counts(ctx context.Context) (hvac.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c hvac.Counts
	targets := []*int{
		&c.Clients, &c.Technicians, &c.Jobs, &c.Invoices, &c.Contracts,
		&c.Equipment, &c.Callbacks, &c.Attachments, &c.Pricebook,
	}
	for i, table := range tables {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(targets[i]); err != nil {
			return hvac.Counts{}, fmt.Errorf("failed to count %s: %w", table, err)
		}
	}
	return c, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func encodeList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
