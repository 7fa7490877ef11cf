package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/totegamma/loandesk/internal/domain"
)

// LoanUsecase holds the multi-record workflows of the loan desk.
type LoanUsecase struct {
	enquiries  *RecordUsecase[domain.Enquiry]
	shortlists *RecordUsecase[domain.Shortlist]
	documents  *RecordUsecase[domain.Document]
	payments   *RecordUsecase[domain.PaymentApplication]
	now        func() time.Time

	// serializes the one-shortlist-per-enquiry check with the write
	mu sync.Mutex
}

func NewLoanUsecase(
	enquiries *RecordUsecase[domain.Enquiry],
	shortlists *RecordUsecase[domain.Shortlist],
	documents *RecordUsecase[domain.Document],
	payments *RecordUsecase[domain.PaymentApplication],
) *LoanUsecase {
	return &LoanUsecase{
		enquiries:  enquiries,
		shortlists: shortlists,
		documents:  documents,
		payments:   payments,
		now:        time.Now,
	}
}

// ShortlistEnquiry copies an enquiry into a new shortlist and marks the
// enquiry SHORTLISTED. An enquiry is shortlisted at most once.
func (uc *LoanUsecase) ShortlistEnquiry(ctx context.Context, enquiryID, staffID string) (domain.Shortlist, error) {
	return uc.CreateShortlist(ctx, domain.Shortlist{EnquiryID: enquiryID, StaffID: staffID})
}

// CreateShortlist stores input as the shortlist of its enquiry. Blank
// applicant fields are filled from the enquiry.
func (uc *LoanUsecase) CreateShortlist(ctx context.Context, input domain.Shortlist) (domain.Shortlist, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	enquiry, err := uc.enquiries.Get(ctx, input.EnquiryID)
	if err != nil {
		return domain.Shortlist{}, err
	}
	if err := uc.ensureNotShortlisted(ctx, enquiry.ID); err != nil {
		return domain.Shortlist{}, err
	}

	shortlist, err := uc.shortlists.Create(ctx, fillShortlist(input, enquiry))
	if err != nil {
		return domain.Shortlist{}, err
	}

	enquiry.Status = domain.EnquiryShortlisted
	if _, err := uc.enquiries.Update(ctx, enquiry.ID, enquiry); err != nil {
		return shortlist, err
	}
	return shortlist, nil
}

// UpdateShortlist replaces a shortlist. The enquiry reference is fixed at
// creation.
func (uc *LoanUsecase) UpdateShortlist(ctx context.Context, id string, input domain.Shortlist) (domain.Shortlist, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	existing, err := uc.shortlists.Get(ctx, id)
	if err != nil {
		return domain.Shortlist{}, err
	}
	input.EnquiryID = existing.EnquiryID
	return uc.shortlists.Update(ctx, id, input)
}

func (uc *LoanUsecase) ensureNotShortlisted(ctx context.Context, enquiryID string) error {
	existing, err := uc.shortlists.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range existing {
		if s.EnquiryID == enquiryID {
			return domain.ConflictError{
				Reason: fmt.Sprintf("enquiry %s is already shortlisted as %s", enquiryID, s.ID),
			}
		}
	}
	return nil
}

func fillShortlist(s domain.Shortlist, e domain.Enquiry) domain.Shortlist {
	s.EnquiryID = e.ID
	if s.Name == "" {
		s.Name = e.Name
	}
	if s.Mobile == "" {
		s.Mobile = e.Mobile
	}
	if s.Email == "" {
		s.Email = e.Email
	}
	if s.BusinessName == "" {
		s.BusinessName = e.BusinessName
	}
	if s.BusinessType == "" {
		s.BusinessType = e.BusinessType
	}
	if s.District == "" {
		s.District = e.District
	}
	if s.LoanAmount.IsZero() {
		s.LoanAmount = e.LoanAmount
	}
	if s.StaffID == "" {
		s.StaffID = e.AssignedStaffID
	}
	if s.Comments == "" {
		s.Comments = e.Comments
	}
	return s
}

// ApplyForPayment opens a payment application for a shortlist, capturing the
// applicant's details as they are now.
func (uc *LoanUsecase) ApplyForPayment(ctx context.Context, shortlistID string, terms domain.LoanTerms) (domain.PaymentApplication, error) {
	shortlist, err := uc.shortlists.Get(ctx, shortlistID)
	if err != nil {
		return domain.PaymentApplication{}, err
	}

	snapshot := domain.ApplicantInfo{
		Name:         shortlist.Name,
		Mobile:       shortlist.Mobile,
		Email:        shortlist.Email,
		BusinessName: shortlist.BusinessName,
		BusinessType: shortlist.BusinessType,
		District:     shortlist.District,
		EnquiryID:    shortlist.EnquiryID,
	}
	// the enquiry may have been removed since shortlisting
	if enquiry, err := uc.enquiries.Get(ctx, shortlist.EnquiryID); err == nil {
		if snapshot.Email == "" {
			snapshot.Email = enquiry.Email
		}
		if snapshot.BusinessName == "" {
			snapshot.BusinessName = enquiry.BusinessName
		}
		if snapshot.BusinessType == "" {
			snapshot.BusinessType = enquiry.BusinessType
		}
		if snapshot.District == "" {
			snapshot.District = enquiry.District
		}
	}

	amount := terms.LoanAmount
	if amount.IsZero() {
		amount = shortlist.LoanAmount
	}

	return uc.payments.Create(ctx, domain.PaymentApplication{
		ShortlistID:  shortlist.ID,
		LoanAmount:   amount,
		TenureMonths: terms.TenureMonths,
		InterestRate: terms.InterestRate,
		Status:       domain.PaymentPending,
		Snapshot:     snapshot,
	})
}

// CreatePaymentApplication opens an application from a full record. The
// applicant snapshot is always rebuilt server side.
func (uc *LoanUsecase) CreatePaymentApplication(ctx context.Context, input domain.PaymentApplication) (domain.PaymentApplication, error) {
	return uc.ApplyForPayment(ctx, input.ShortlistID, domain.LoanTerms{
		LoanAmount:   input.LoanAmount,
		TenureMonths: input.TenureMonths,
		InterestRate: input.InterestRate,
	})
}

// UpdatePaymentApplication replaces the terms and status of an application.
// Its shortlist and snapshot never change.
func (uc *LoanUsecase) UpdatePaymentApplication(ctx context.Context, id string, input domain.PaymentApplication) (domain.PaymentApplication, error) {
	existing, err := uc.payments.Get(ctx, id)
	if err != nil {
		return domain.PaymentApplication{}, err
	}
	input.ShortlistID = existing.ShortlistID
	input.Snapshot = existing.Snapshot
	return uc.payments.Update(ctx, id, input)
}

// VerifyDocument marks a document verified by the given staff member.
func (uc *LoanUsecase) VerifyDocument(ctx context.Context, documentID, verifierID string) (domain.Document, error) {
	doc, err := uc.documents.Get(ctx, documentID)
	if err != nil {
		return domain.Document{}, err
	}

	at := uc.now().UTC()
	doc.Verified = true
	doc.VerifiedBy = verifierID
	doc.VerifiedAt = &at
	return uc.documents.Update(ctx, doc.ID, doc)
}
