package usecase

import (
	"strings"
	"time"

	"github.com/totegamma/loandesk/internal/domain"
)

// Destination is one remote table a type may be written to.
type Destination struct {
	Table       string
	ConflictKey string
}

// MapFunc translates a local record into a remote row. It never fails on
// missing fields; only a record of the wrong type is rejected.
type MapFunc func(record domain.Record, now time.Time) (Row, error)

// Mapping binds an entity type to its remote destinations, tried in order.
// The second destination, where present, covers the older table naming.
type Mapping struct {
	Type         domain.EntityType
	Destinations []Destination
	Map          MapFunc
}

// DefaultMappings returns the remote schema for every entity type.
func DefaultMappings() map[domain.EntityType]Mapping {
	return map[domain.EntityType]Mapping{
		domain.EntityEnquiry: {
			Type: domain.EntityEnquiry,
			Destinations: []Destination{
				{Table: "enquiries", ConflictKey: "mobile"},
				{Table: "Enquiry", ConflictKey: "mobile"},
			},
			Map: mapAs(EnquiryRow),
		},
		domain.EntityDocument: {
			Type: domain.EntityDocument,
			Destinations: []Destination{
				{Table: "documents", ConflictKey: "id"},
			},
			Map: mapAs(DocumentRow),
		},
		domain.EntityShortlist: {
			Type: domain.EntityShortlist,
			Destinations: []Destination{
				{Table: "shortlists", ConflictKey: "mobile"},
				{Table: "Shortlist", ConflictKey: "mobile"},
			},
			Map: mapAs(ShortlistRow),
		},
		domain.EntityStaff: {
			Type: domain.EntityStaff,
			Destinations: []Destination{
				{Table: "staff", ConflictKey: "email"},
				{Table: "Staff", ConflictKey: "email"},
			},
			Map: mapAs(StaffRow),
		},
		domain.EntityTransaction: {
			Type: domain.EntityTransaction,
			Destinations: []Destination{
				{Table: "transactions", ConflictKey: "transaction_id"},
			},
			Map: mapAs(TransactionRow),
		},
		domain.EntityPaymentApplication: {
			Type: domain.EntityPaymentApplication,
			Destinations: []Destination{
				{Table: "payment_applications", ConflictKey: "id"},
				{Table: "PaymentApplication", ConflictKey: "id"},
			},
			Map: mapAs(PaymentApplicationRow),
		},
	}
}

func mapAs[T domain.Record](fn func(T, time.Time) Row) MapFunc {
	return func(record domain.Record, now time.Time) (Row, error) {
		v, ok := recordAs[T](record)
		if !ok {
			return nil, domain.ErrRecordType
		}
		return fn(v, now), nil
	}
}

func recordAs[T domain.Record](record domain.Record) (T, bool) {
	var zero T
	if v, ok := record.(T); ok {
		return v, true
	}
	if p, ok := any(record).(*T); ok && p != nil {
		return *p, true
	}
	return zero, false
}

func EnquiryRow(e domain.Enquiry, now time.Time) Row {
	return Row{
		"id":                e.ID,
		"name":              strings.TrimSpace(e.Name),
		"mobile":            strings.TrimSpace(e.Mobile),
		"email":             nullable(e.Email),
		"business_name":     e.BusinessName,
		"business_type":     e.BusinessType,
		"business_concern":  e.BusinessConcern,
		"district":          e.District,
		"loan_amount":       e.LoanAmount,
		"status":            orDefault(string(e.Status), domain.StatusPending),
		"assigned_staff_id": nullable(e.AssignedStaffID),
		"comments":          e.Comments,
		"created_at":        createdAt(e.CreatedAt, now),
		"updated_at":        now,
	}
}

func DocumentRow(d domain.Document, now time.Time) Row {
	return Row{
		"id":            d.ID,
		"enquiry_id":    nullable(d.EnquiryID),
		"document_type": orDefault(string(d.Type), string(domain.DocumentOther)),
		"file_name":     d.FileName,
		"file_path":     d.FilePath,
		"file_size":     d.FileSize,
		"mime_type":     orDefault(d.MimeType, "application/octet-stream"),
		"verified":      d.Verified,
		"verified_by":   nullable(d.VerifiedBy),
		"verified_at":   timeOrNil(d.VerifiedAt),
		"created_at":    createdAt(d.CreatedAt, now),
		"updated_at":    now,
	}
}

func ShortlistRow(s domain.Shortlist, now time.Time) Row {
	return Row{
		"id":              s.ID,
		"enquiry_id":      nullable(s.EnquiryID),
		"name":            s.Name,
		"mobile":          strings.TrimSpace(s.Mobile),
		"email":           nullable(s.Email),
		"business_name":   s.BusinessName,
		"business_type":   s.BusinessType,
		"district":        s.District,
		"loan_amount":     s.LoanAmount,
		"interest_status": orDefault(string(s.InterestStatus), domain.StatusPending),
		"staff_id":        nullable(s.StaffID),
		"comments":        s.Comments,
		"created_at":      createdAt(s.CreatedAt, now),
		"updated_at":      now,
	}
}

func StaffRow(s domain.Staff, now time.Time) Row {
	return Row{
		"id":         s.ID,
		"email":      strings.ToLower(strings.TrimSpace(s.Email)),
		"name":       s.Name,
		"role":       orDefault(string(s.Role), string(domain.RoleEmployee)),
		"department": s.Department,
		"position":   s.Position,
		"status":     orDefault(string(s.Status), string(domain.StaffActive)),
		"has_access": s.HasAccess,
		"verified":   s.Verified,
		"created_at": createdAt(s.CreatedAt, now),
		"updated_at": now,
	}
}

func TransactionRow(t domain.Transaction, now time.Time) Row {
	date := t.Date
	if date.IsZero() {
		date = createdAt(t.CreatedAt, now)
	}
	return Row{
		"id":             t.ID,
		"transaction_id": t.TransactionID,
		"name":           t.Name,
		"email":          nullable(t.Email),
		"amount":         t.Amount,
		"status":         orDefault(string(t.Status), domain.StatusPending),
		"date":           date,
		"created_at":     createdAt(t.CreatedAt, now),
		"updated_at":     now,
	}
}

func PaymentApplicationRow(p domain.PaymentApplication, now time.Time) Row {
	return Row{
		"id":               p.ID,
		"shortlist_id":     nullable(p.ShortlistID),
		"loan_amount":      p.LoanAmount,
		"tenure_months":    p.TenureMonths,
		"interest_rate":    p.InterestRate,
		"status":           orDefault(string(p.Status), domain.StatusPending),
		"applicant_name":   p.Snapshot.Name,
		"applicant_mobile": p.Snapshot.Mobile,
		"applicant_email":  nullable(p.Snapshot.Email),
		"business_name":    p.Snapshot.BusinessName,
		"business_type":    p.Snapshot.BusinessType,
		"district":         p.Snapshot.District,
		"enquiry_id":       nullable(p.Snapshot.EnquiryID),
		"created_at":       createdAt(p.CreatedAt, now),
		"updated_at":       now,
	}
}

func nullable(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func timeOrNil(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

func createdAt(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
