package localstore

import (
	"context"

	"github.com/totegamma/loandesk/internal/domain"
	"github.com/totegamma/loandesk/internal/usecase"
)

type collection interface {
	Type() domain.EntityType
	Path() string
	Fingerprint() uint64
	Records(ctx context.Context) ([]domain.Record, error)
	Count(ctx context.Context) (int, error)
}

// Registry holds one FileStore per entity type under a data directory.
type Registry struct {
	dir   string
	byTyp map[domain.EntityType]collection

	Enquiries           *FileStore[domain.Enquiry]
	Documents           *FileStore[domain.Document]
	Shortlists          *FileStore[domain.Shortlist]
	Staff               *FileStore[domain.Staff]
	Transactions        *FileStore[domain.Transaction]
	PaymentApplications *FileStore[domain.PaymentApplication]
}

var _ usecase.SnapshotSource = (*Registry)(nil)

func NewRegistry(dir string) *Registry {
	r := &Registry{
		dir:                 dir,
		Enquiries:           NewFileStore[domain.Enquiry](dir, domain.EntityEnquiry),
		Documents:           NewFileStore[domain.Document](dir, domain.EntityDocument),
		Shortlists:          NewFileStore[domain.Shortlist](dir, domain.EntityShortlist),
		Staff:               NewFileStore[domain.Staff](dir, domain.EntityStaff),
		Transactions:        NewFileStore[domain.Transaction](dir, domain.EntityTransaction),
		PaymentApplications: NewFileStore[domain.PaymentApplication](dir, domain.EntityPaymentApplication),
	}
	r.byTyp = map[domain.EntityType]collection{
		domain.EntityEnquiry:            r.Enquiries,
		domain.EntityDocument:           r.Documents,
		domain.EntityShortlist:          r.Shortlists,
		domain.EntityStaff:              r.Staff,
		domain.EntityTransaction:        r.Transactions,
		domain.EntityPaymentApplication: r.PaymentApplications,
	}
	return r
}

func (r *Registry) Dir() string {
	return r.dir
}

func (r *Registry) Snapshot(ctx context.Context, t domain.EntityType) ([]domain.Record, error) {
	c, ok := r.byTyp[t]
	if !ok {
		return nil, domain.UnknownEntityTypeError{Name: string(t)}
	}
	return c.Records(ctx)
}

func (r *Registry) Count(ctx context.Context, t domain.EntityType) (int, error) {
	c, ok := r.byTyp[t]
	if !ok {
		return 0, domain.UnknownEntityTypeError{Name: string(t)}
	}
	return c.Count(ctx)
}

// lookup finds the collection stored at path.
func (r *Registry) lookup(path string) (collection, bool) {
	for _, c := range r.byTyp {
		if c.Path() == path {
			return c, true
		}
	}
	return nil, false
}
