package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/totegamma/loandesk/internal/domain"
)

type loanFixture struct {
	uc         *LoanUsecase
	enquiries  *RecordUsecase[domain.Enquiry]
	shortlists *RecordUsecase[domain.Shortlist]
	documents  *RecordUsecase[domain.Document]
	payments   *RecordUsecase[domain.PaymentApplication]
	pub        *mockPublisher
}

func newLoanFixture(t *testing.T) loanFixture {
	t.Helper()
	pub := &mockPublisher{}
	f := loanFixture{
		enquiries:  NewRecordUsecase[domain.Enquiry](newMemStore[domain.Enquiry](), pub),
		shortlists: NewRecordUsecase[domain.Shortlist](newMemStore[domain.Shortlist](), pub),
		documents:  NewRecordUsecase[domain.Document](newMemStore[domain.Document](), pub),
		payments:   NewRecordUsecase[domain.PaymentApplication](newMemStore[domain.PaymentApplication](), pub),
		pub:        pub,
	}
	f.uc = NewLoanUsecase(f.enquiries, f.shortlists, f.documents, f.payments)
	f.uc.now = func() time.Time { return time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC) }
	return f
}

func TestShortlistEnquiry(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	enquiry, err := f.enquiries.Create(ctx, domain.Enquiry{
		Name:         "Ravi",
		Mobile:       "9876543210",
		BusinessName: "Ravi Traders",
		District:     "Pune",
		LoanAmount:   decimal.NewFromInt(500000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	shortlist, err := f.uc.ShortlistEnquiry(ctx, enquiry.ID, "staff-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shortlist.EnquiryID != enquiry.ID || shortlist.Mobile != enquiry.Mobile || shortlist.StaffID != "staff-1" {
		t.Fatalf("unexpected shortlist: %+v", shortlist)
	}
	if shortlist.InterestStatus != domain.InterestPending {
		t.Fatalf("expected PENDING interest, got %s", shortlist.InterestStatus)
	}

	updated, err := f.enquiries.Get(ctx, enquiry.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.EnquiryShortlisted {
		t.Fatalf("expected enquiry to be SHORTLISTED, got %s", updated.Status)
	}

	_, err = f.uc.ShortlistEnquiry(ctx, enquiry.ID, "staff-2")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on second shortlist, got %v", err)
	}

	// enquiry create, shortlist create, enquiry update
	if len(f.pub.events) != 3 {
		t.Fatalf("expected 3 change events, got %d", len(f.pub.events))
	}
}

func TestShortlistMissingEnquiry(t *testing.T) {
	f := newLoanFixture(t)
	_, err := f.uc.ShortlistEnquiry(context.Background(), "missing", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyForPayment(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	enquiry, _ := f.enquiries.Create(ctx, domain.Enquiry{
		Name:         "Ravi",
		Mobile:       "9876543210",
		Email:        "ravi@example.com",
		BusinessType: "Retail",
		LoanAmount:   decimal.NewFromInt(500000),
	})
	shortlist, err := f.uc.ShortlistEnquiry(ctx, enquiry.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	app, err := f.uc.ApplyForPayment(ctx, shortlist.ID, domain.LoanTerms{
		TenureMonths: 36,
		InterestRate: decimal.RequireFromString("12.25"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Status != domain.PaymentPending {
		t.Fatalf("expected PENDING, got %s", app.Status)
	}
	if !app.LoanAmount.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("expected loan amount to default to the shortlist amount, got %s", app.LoanAmount)
	}
	if app.Snapshot.Name != "Ravi" || app.Snapshot.EnquiryID != enquiry.ID || app.Snapshot.BusinessType != "Retail" {
		t.Fatalf("unexpected snapshot: %+v", app.Snapshot)
	}

	// the snapshot is not refreshed when the enquiry changes
	enquiry.Name = "Ravi Kumar"
	if _, err := f.enquiries.Update(ctx, enquiry.ID, enquiry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := f.payments.Get(ctx, app.ID)
	if stored.Snapshot.Name != "Ravi" {
		t.Fatalf("expected snapshot to keep the original name, got %s", stored.Snapshot.Name)
	}
}

func TestVerifyDocument(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	doc, _ := f.documents.Create(ctx, domain.Document{EnquiryID: "e1", Type: domain.DocumentGST})
	verified, err := f.uc.VerifyDocument(ctx, doc.ID, "staff-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verified.Verified || verified.VerifiedBy != "staff-1" || verified.VerifiedAt == nil {
		t.Fatalf("unexpected document: %+v", verified)
	}
	if !verified.VerifiedAt.Equal(f.uc.now()) {
		t.Fatalf("expected verification time %v, got %v", f.uc.now(), verified.VerifiedAt)
	}
	if _, err := f.uc.VerifyDocument(ctx, "missing", "staff-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestShortlistEnquiryConcurrent(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	enquiry, _ := f.enquiries.Create(ctx, domain.Enquiry{Name: "Ravi", Mobile: "9876543210"})

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.ShortlistEnquiry(ctx, enquiry.ID, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || conflicts != workers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", workers-1, succeeded, conflicts)
	}
	all, _ := f.shortlists.List(ctx)
	if len(all) != 1 {
		t.Fatalf("expected 1 stored shortlist, got %d", len(all))
	}
}

func TestCreateShortlist(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	enquiry, _ := f.enquiries.Create(ctx, domain.Enquiry{
		Name:            "Ravi",
		Mobile:          "9876543210",
		District:        "Pune",
		AssignedStaffID: "staff-9",
		LoanAmount:      decimal.NewFromInt(250000),
	})

	shortlist, err := f.uc.CreateShortlist(ctx, domain.Shortlist{EnquiryID: enquiry.ID, Comments: "call back"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shortlist.Mobile != enquiry.Mobile || shortlist.District != "Pune" || shortlist.StaffID != "staff-9" {
		t.Fatalf("expected blanks to be filled from the enquiry, got %+v", shortlist)
	}
	if shortlist.Comments != "call back" || !shortlist.LoanAmount.Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("unexpected shortlist: %+v", shortlist)
	}

	_, err = f.uc.CreateShortlist(ctx, domain.Shortlist{EnquiryID: enquiry.ID, Name: "Other"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on second shortlist, got %v", err)
	}
	if _, err := f.uc.CreateShortlist(ctx, domain.Shortlist{EnquiryID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// moving a shortlist onto another enquiry is not allowed
	other, _ := f.enquiries.Create(ctx, domain.Enquiry{Name: "Asha", Mobile: "9000000000"})
	shortlist.EnquiryID = other.ID
	shortlist.Comments = "updated"
	updated, err := f.uc.UpdateShortlist(ctx, shortlist.ID, shortlist)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.EnquiryID != enquiry.ID || updated.Comments != "updated" {
		t.Fatalf("unexpected update: %+v", updated)
	}
}

func TestCreatePaymentApplicationRebuildsSnapshot(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	enquiry, _ := f.enquiries.Create(ctx, domain.Enquiry{Name: "Ravi", Mobile: "9876543210", LoanAmount: decimal.NewFromInt(1000)})
	shortlist, _ := f.uc.ShortlistEnquiry(ctx, enquiry.ID, "")

	app, err := f.uc.CreatePaymentApplication(ctx, domain.PaymentApplication{
		ShortlistID:  shortlist.ID,
		TenureMonths: 12,
		Status:       domain.PaymentApproved,
		Snapshot:     domain.ApplicantInfo{Name: "Forged", Mobile: "1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Snapshot.Name != "Ravi" || app.Snapshot.Mobile != "9876543210" {
		t.Fatalf("expected snapshot from the shortlist, got %+v", app.Snapshot)
	}
	if app.Status != domain.PaymentPending {
		t.Fatalf("expected PENDING, got %s", app.Status)
	}

	if _, err := f.uc.CreatePaymentApplication(ctx, domain.PaymentApplication{ShortlistID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	app.Status = domain.PaymentApproved
	app.Snapshot = domain.ApplicantInfo{Name: "Forged"}
	app.ShortlistID = "other"
	updated, err := f.uc.UpdatePaymentApplication(ctx, app.ID, app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.PaymentApproved {
		t.Fatalf("expected APPROVED, got %s", updated.Status)
	}
	if updated.Snapshot.Name != "Ravi" || updated.ShortlistID != shortlist.ID {
		t.Fatalf("expected snapshot and shortlist to be kept, got %+v", updated)
	}
}
