package domain

import "github.com/shopspring/decimal"

// PaymentApplication carries loan terms for a shortlisted enquiry.
type PaymentApplication struct {
	Meta
	ShortlistID  string          `json:"shortlistId" validate:"required"`
	LoanAmount   decimal.Decimal `json:"loanAmount"`
	TenureMonths int             `json:"tenureMonths" validate:"gte=0"`
	InterestRate decimal.Decimal `json:"interestRate"`
	Status       PaymentStatus   `json:"status,omitempty"`
	Snapshot     ApplicantInfo   `json:"snapshot"`
}

func (PaymentApplication) EntityType() EntityType { return EntityPaymentApplication }

// ApplicantInfo is copied from the shortlist and its enquiry when the
// application is created. It is never refreshed afterwards.
type ApplicantInfo struct {
	Name         string `json:"name"`
	Mobile       string `json:"mobile"`
	Email        string `json:"email,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	BusinessType string `json:"businessType,omitempty"`
	District     string `json:"district,omitempty"`
	EnquiryID    string `json:"enquiryId,omitempty"`
}

// LoanTerms is the input for a new payment application.
type LoanTerms struct {
	LoanAmount   decimal.Decimal `json:"loanAmount"`
	TenureMonths int             `json:"tenureMonths" validate:"gte=0"`
	InterestRate decimal.Decimal `json:"interestRate"`
}

func (p PaymentApplication) WithMeta(m Meta) PaymentApplication {
	p.Meta = m
	return p
}

func (p PaymentApplication) Normalize() PaymentApplication {
	if p.Status == "" {
		p.Status = PaymentPending
	}
	return p
}
