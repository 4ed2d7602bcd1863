package hvac

// =============================================================================
// DATASET - The raw collections handed over by a loader
// =============================================================================

// Dataset is every collection the analytics read, as loaded from a source.
// Attachments and Pricebook are carried for completeness; no metric uses them.
type Dataset struct {
	Clients     []Client        `json:"clients"`
	Technicians []Technician    `json:"technicians"`
	Jobs        []Job           `json:"jobs"`
	Invoices    []Invoice       `json:"invoices"`
	Contracts   []Contract      `json:"contracts"`
	Equipment   []Equipment     `json:"equipment"`
	Callbacks   []Callback      `json:"callbacks"`
	Attachments []Attachment    `json:"attachments"`
	Pricebook   []PricebookItem `json:"pricebook"`
}

// Counts holds per-collection sizes.
type Counts struct {
	Clients     int `json:"clients"`
	Technicians int `json:"technicians"`
	Jobs        int `json:"jobs"`
	Invoices    int `json:"invoices"`
	Contracts   int `json:"contracts"`
	Equipment   int `json:"equipment"`
	Callbacks   int `json:"callbacks"`
	Attachments int `json:"attachments"`
	Pricebook   int `json:"pricebook"`
}

// =============================================================================
// STORE - Immutable record store with id and foreign-key indexes
// =============================================================================

// Store is built once from a Dataset and never written afterwards, so it is
// safe for concurrent readers without locking.
//
// Single-record lookups return (record, found). List accessors return a new
// slice on every call. Nested slices and pointers inside records are shared
// with the store and must be treated as read-only.
type Store struct {
	ds Dataset

	clientByID     map[string]int
	technicianByID map[string]int
	jobByID        map[string]int
	invoiceByJob   map[string]int

	contractsByClient map[string][]int
	equipmentByClient map[string][]int
	jobsByClient      map[string][]int
	jobsByTechnician  map[string][]int
	callbacksByRoot   map[string][]int
	attachmentsByJob  map[string][]int
}

// NewStore copies every collection of ds and indexes it. When ids repeat, the
// first record wins for single lookups (matching a linear find).
func NewStore(ds Dataset) *Store {
	s := &Store{
		ds: Dataset{
			Clients:     append([]Client(nil), ds.Clients...),
			Technicians: append([]Technician(nil), ds.Technicians...),
			Jobs:        append([]Job(nil), ds.Jobs...),
			Invoices:    append([]Invoice(nil), ds.Invoices...),
			Contracts:   append([]Contract(nil), ds.Contracts...),
			Equipment:   append([]Equipment(nil), ds.Equipment...),
			Callbacks:   append([]Callback(nil), ds.Callbacks...),
			Attachments: append([]Attachment(nil), ds.Attachments...),
			Pricebook:   append([]PricebookItem(nil), ds.Pricebook...),
		},
		clientByID:        make(map[string]int, len(ds.Clients)),
		technicianByID:    make(map[string]int, len(ds.Technicians)),
		jobByID:           make(map[string]int, len(ds.Jobs)),
		invoiceByJob:      make(map[string]int, len(ds.Invoices)),
		contractsByClient: make(map[string][]int),
		equipmentByClient: make(map[string][]int),
		jobsByClient:      make(map[string][]int),
		jobsByTechnician:  make(map[string][]int),
		callbacksByRoot:   make(map[string][]int),
		attachmentsByJob:  make(map[string][]int),
	}

	for i, c := range s.ds.Clients {
		setFirst(s.clientByID, c.ID, i)
	}
	for i, t := range s.ds.Technicians {
		setFirst(s.technicianByID, t.ID, i)
	}
	for i, j := range s.ds.Jobs {
		setFirst(s.jobByID, j.ID, i)
		s.jobsByClient[j.ClientID] = append(s.jobsByClient[j.ClientID], i)
		for _, tid := range dedupe(j.TechnicianIDs) {
			s.jobsByTechnician[tid] = append(s.jobsByTechnician[tid], i)
		}
	}
	for i, inv := range s.ds.Invoices {
		setFirst(s.invoiceByJob, inv.JobID, i)
	}
	for i, c := range s.ds.Contracts {
		s.contractsByClient[c.ClientID] = append(s.contractsByClient[c.ClientID], i)
	}
	for i, e := range s.ds.Equipment {
		s.equipmentByClient[e.ClientID] = append(s.equipmentByClient[e.ClientID], i)
	}
	for i, cb := range s.ds.Callbacks {
		s.callbacksByRoot[cb.RootJobID] = append(s.callbacksByRoot[cb.RootJobID], i)
	}
	for i, a := range s.ds.Attachments {
		s.attachmentsByJob[a.JobID] = append(s.attachmentsByJob[a.JobID], i)
	}
	return s
}

func setFirst(m map[string]int, key string, i int) {
	if _, ok := m[key]; !ok {
		m[key] = i
	}
}

func dedupe(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func pick[T any](all []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = all[j]
	}
	return out
}

func lookup[T any](all []T, m map[string]int, key string) (T, bool) {
	i, ok := m[key]
	if !ok {
		var zero T
		return zero, false
	}
	return all[i], true
}

// =============================================================================
// COLLECTIONS
// =============================================================================

func (s *Store) Clients() []Client { return append([]Client(nil), s.ds.Clients...) }
func (s *Store) Technicians() []Technician { return append([]Technician(nil), s.ds.Technicians...) }
func (s *Store) Jobs() []Job { return append([]Job(nil), s.ds.Jobs...) }
func (s *Store) Invoices() []Invoice { return append([]Invoice(nil), s.ds.Invoices...) }
func (s *Store) Contracts() []Contract { return append([]Contract(nil), s.ds.Contracts...) }
func (s *Store) Equipment() []Equipment { return append([]Equipment(nil), s.ds.Equipment...) }
func (s *Store) Callbacks() []Callback { return append([]Callback(nil), s.ds.Callbacks...) }
func (s *Store) Attachments() []Attachment { return append([]Attachment(nil), s.ds.Attachments...) }
func (s *Store) Pricebook() []PricebookItem { return append([]PricebookItem(nil), s.ds.Pricebook...) }

// Dataset returns a copy of every collection, e.g. for persisting to SQLite.
func (s *Store) Dataset() Dataset {
	return Dataset{
		Clients:     s.Clients(),
		Technicians: s.Technicians(),
		Jobs:        s.Jobs(),
		Invoices:    s.Invoices(),
		Contracts:   s.Contracts(),
		Equipment:   s.Equipment(),
		Callbacks:   s.Callbacks(),
		Attachments: s.Attachments(),
		Pricebook:   s.Pricebook(),
	}
}

func (s *Store) Counts() Counts {
	return Counts{
		Clients:     len(s.ds.Clients),
		Technicians: len(s.ds.Technicians),
		Jobs:        len(s.ds.Jobs),
		Invoices:    len(s.ds.Invoices),
		Contracts:   len(s.ds.Contracts),
		Equipment:   len(s.ds.Equipment),
		Callbacks:   len(s.ds.Callbacks),
		Attachments: len(s.ds.Attachments),
		Pricebook:   len(s.ds.Pricebook),
	}
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (s *Store) ClientByID(id string) (Client, bool) {
	return lookup(s.ds.Clients, s.clientByID, id)
}

func (s *Store) TechnicianByID(id string) (Technician, bool) {
	return lookup(s.ds.Technicians, s.technicianByID, id)
}

func (s *Store) JobByID(id string) (Job, bool) {
	return lookup(s.ds.Jobs, s.jobByID, id)
}

// InvoiceByJobID returns the invoice billed for a job. At most one exists.
func (s *Store) InvoiceByJobID(jobID string) (Invoice, bool) {
	return lookup(s.ds.Invoices, s.invoiceByJob, jobID)
}

func (s *Store) ContractsByClientID(clientID string) []Contract {
	return pick(s.ds.Contracts, s.contractsByClient[clientID])
}

func (s *Store) EquipmentByClientID(clientID string) []Equipment {
	return pick(s.ds.Equipment, s.equipmentByClient[clientID])
}

func (s *Store) JobsByClientID(clientID string) []Job {
	return pick(s.ds.Jobs, s.jobsByClient[clientID])
}

// JobsByTechnicianID returns every job listing the technician, in load order.
func (s *Store) JobsByTechnicianID(technicianID string) []Job {
	return pick(s.ds.Jobs, s.jobsByTechnician[technicianID])
}

// CallbacksByRootJobID returns the callbacks raised against a job.
func (s *Store) CallbacksByRootJobID(jobID string) []Callback {
	return pick(s.ds.Callbacks, s.callbacksByRoot[jobID])
}

func (s *Store) AttachmentsByJobID(jobID string) []Attachment {
	return pick(s.ds.Attachments, s.attachmentsByJob[jobID])
}

// HasActiveContract reports whether the client holds a contract in status active.
func (s *Store) HasActiveContract(clientID string) bool {
	for _, i := range s.contractsByClient[clientID] {
		if s.ds.Contracts[i].Status == ContractActive {
			return true
		}
	}
	return false
}
