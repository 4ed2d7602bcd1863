package factory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/warp/hvac-insights/hvac"
)

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// Problem is one invalid record or dangling reference.
type Problem struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Message    string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s[%s]: %s", p.Collection, p.ID, p.Message)
}

// ValidationError lists every problem found in a dataset.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid dataset: " + e.Problems[0].String()
	}
	return fmt.Sprintf("invalid dataset: %d problems, first: %s", len(e.Problems), e.Problems[0])
}

// IsValidationError reports whether err carries dataset problems.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// =============================================================================
// CHECKS
// =============================================================================

type checker struct {
	validate *validator.Validate
	problems []Problem
}

func (c *checker) add(collection, id, format string, args ...any) {
	c.problems = append(c.problems, Problem{Collection: collection, ID: id, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) record(collection, id string, v any) {
	err := c.validate.Struct(v)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.add(collection, id, "%v", err)
		return
	}
	for _, fe := range fieldErrs {
		c.add(collection, id, "field %s failed %q", fieldName(fe), fe.Tag())
	}
}

// fieldName drops the struct name: "Job.TechnicianIDs[0]" -> "TechnicianIDs[0]".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func indexIDs[T any](c *checker, collection string, records []T, id func(T) string) map[string]bool {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		k := id(r)
		if seen[k] {
			c.add(collection, k, "duplicate id")
		}
		seen[k] = true
		c.record(collection, k, r)
	}
	return seen
}

// Check validates every record against its struct tags and verifies that ids
// are unique and foreign keys resolve. It returns nil or a *ValidationError.
func (ld *Loader) Check(ds hvac.Dataset) error {
	c := &checker{validate: ld.validate}

	clients := indexIDs(c, "clients", ds.Clients, func(r hvac.Client) string { return r.ID })
	techs := indexIDs(c, "technicians", ds.Technicians, func(r hvac.Technician) string { return r.ID })
	jobs := indexIDs(c, "jobs", ds.Jobs, func(r hvac.Job) string { return r.ID })
	indexIDs(c, "invoices", ds.Invoices, func(r hvac.Invoice) string { return r.ID })
	indexIDs(c, "contracts", ds.Contracts, func(r hvac.Contract) string { return r.ID })
	indexIDs(c, "equipment", ds.Equipment, func(r hvac.Equipment) string { return r.ID })
	indexIDs(c, "callbacks", ds.Callbacks, func(r hvac.Callback) string { return r.ID })
	indexIDs(c, "attachments", ds.Attachments, func(r hvac.Attachment) string { return r.ID })
	indexIDs(c, "pricebook", ds.Pricebook, func(r hvac.PricebookItem) string { return r.ID })

	for _, j := range ds.Jobs {
		if !clients[j.ClientID] {
			c.add("jobs", j.ID, "unknown client %q", j.ClientID)
		}
		for _, t := range j.TechnicianIDs {
			if !techs[t] {
				c.add("jobs", j.ID, "unknown technician %q", t)
			}
		}
	}
	invoiced := make(map[string]bool, len(ds.Invoices))
	for _, inv := range ds.Invoices {
		if !jobs[inv.JobID] {
			c.add("invoices", inv.ID, "unknown job %q", inv.JobID)
		}
		if invoiced[inv.JobID] {
			c.add("invoices", inv.ID, "job %q is already invoiced", inv.JobID)
		}
		invoiced[inv.JobID] = true
		if inv.PaidAt != nil && inv.PaidAt.Before(inv.IssuedAt) {
			c.add("invoices", inv.ID, "paid before issued")
		}
	}
	for _, k := range ds.Contracts {
		if !clients[k.ClientID] {
			c.add("contracts", k.ID, "unknown client %q", k.ClientID)
		}
	}
	for _, e := range ds.Equipment {
		if !clients[e.ClientID] {
			c.add("equipment", e.ID, "unknown client %q", e.ClientID)
		}
	}
	for _, cb := range ds.Callbacks {
		if !jobs[cb.RootJobID] {
			c.add("callbacks", cb.ID, "unknown root job %q", cb.RootJobID)
		}
		if !jobs[cb.CallbackJobID] {
			c.add("callbacks", cb.ID, "unknown callback job %q", cb.CallbackJobID)
		}
	}
	for _, a := range ds.Attachments {
		if !jobs[a.JobID] {
			c.add("attachments", a.ID, "unknown job %q", a.JobID)
		}
	}

	if len(c.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: c.problems}
}
