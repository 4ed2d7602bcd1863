/*
Package factory builds an hvac.Dataset from JSON collection files.

PURPOSE:
  The dashboard's data lives in one JSON array per collection. The factory
  reads them, checks each record against its struct tags and checks that
  every foreign key resolves. The result feeds hvac.NewStore directly or is
  imported into SQLite by cmd/import.

FILES:
  clients.json  technicians.json  jobs.json  invoices.json  contracts.json
  equipment.json  callbacks.json  attachments.json  pricebook.json

  Dates are RFC3339 strings; money is a JSON number or numeric string.

STRICT VS LENIENT:
  Every problem found is collected into one *ValidationError. In strict mode
  the loader returns it; otherwise the problems are logged as warnings and
  the dataset is returned as read. Malformed JSON and missing files always
  fail.

USAGE:
  loader := factory.NewLoader(factory.WithLogger(log), factory.WithStrict(true))
  ds, err := loader.LoadDir("./data")

SEE ALSO:
  - hvac/types.go: record types and their validate tags
  - store/sqlite: persisting a loaded dataset
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/warp/hvac-insights/hvac"
)

// Collection file names, in load order.
const (
	ClientsFile     = "clients.json"
	TechniciansFile = "technicians.json"
	JobsFile        = "jobs.json"
	InvoicesFile    = "invoices.json"
	ContractsFile   = "contracts.json"
	EquipmentFile   = "equipment.json"
	CallbacksFile   = "callbacks.json"
	AttachmentsFile = "attachments.json"
	PricebookFile   = "pricebook.json"
)

// Loader reads and checks a dataset.
type Loader struct {
	validate *validator.Validate
	log      zerolog.Logger
	strict   bool
}

type Option func(*Loader)

func WithLogger(l zerolog.Logger) Option {
	return func(ld *Loader) { ld.log = l.With().Str("component", "loader").Logger() }
}

// WithStrict makes validation problems fatal.
func WithStrict(strict bool) Option {
	return func(ld *Loader) { ld.strict = strict }
}

func NewLoader(opts ...Option) *Loader {
	ld := &Loader{
		validate: validator.New(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// LoadDir reads the collection files from a directory.
func (ld *Loader) LoadDir(dir string) (hvac.Dataset, error) {
	return ld.LoadFS(os.DirFS(dir))
}

// LoadFS reads the collection files from fsys.
func (ld *Loader) LoadFS(fsys fs.FS) (hvac.Dataset, error) {
	var ds hvac.Dataset
	files := []struct {
		name string
		dst  any
	}{
		{ClientsFile, &ds.Clients},
		{TechniciansFile, &ds.Technicians},
		{JobsFile, &ds.Jobs},
		{InvoicesFile, &ds.Invoices},
		{ContractsFile, &ds.Contracts},
		{EquipmentFile, &ds.Equipment},
		{CallbacksFile, &ds.Callbacks},
		{AttachmentsFile, &ds.Attachments},
		{PricebookFile, &ds.Pricebook},
	}
	for _, f := range files {
		if err := readJSON(fsys, f.name, f.dst); err != nil {
			return hvac.Dataset{}, err
		}
	}

	return ld.Accept(ds)
}

// Accept runs Check over a dataset read from any source. In strict mode a
// problem is an error; otherwise each one is logged and the data is kept.
func (ld *Loader) Accept(ds hvac.Dataset) (hvac.Dataset, error) {
	if err := ld.Check(ds); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) || ld.strict {
			return hvac.Dataset{}, err
		}
		for _, p := range verr.Problems {
			ld.log.Warn().Str("collection", p.Collection).Str("id", p.ID).Msg(p.Message)
		}
	}

	ld.log.Info().
		Int("clients", len(ds.Clients)).
		Int("technicians", len(ds.Technicians)).
		Int("jobs", len(ds.Jobs)).
		Int("invoices", len(ds.Invoices)).
		Int("contracts", len(ds.Contracts)).
		Int("equipment", len(ds.Equipment)).
		Int("callbacks", len(ds.Callbacks)).
		Msg("dataset loaded")
	return ds, nil
}

func readJSON(fsys fs.FS, name string, dst any) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
