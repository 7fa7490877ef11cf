package domain

import "github.com/shopspring/decimal"

// Shortlist promotes an enquiry for follow-up. The application keeps at most one
// shortlist per enquiry; nothing in the stores enforces it.
type Shortlist struct {
	Meta
	EnquiryID      string          `json:"enquiryId" validate:"required"`
	Name           string          `json:"name"`
	Mobile         string          `json:"mobile"`
	Email          string          `json:"email,omitempty"`
	BusinessName   string          `json:"businessName,omitempty"`
	BusinessType   string          `json:"businessType,omitempty"`
	District       string          `json:"district,omitempty"`
	LoanAmount     decimal.Decimal `json:"loanAmount"`
	InterestStatus InterestStatus  `json:"interestStatus,omitempty"`
	StaffID        string          `json:"staffId,omitempty"`
	Comments       string          `json:"comments,omitempty"`
}

func (Shortlist) EntityType() EntityType { return EntityShortlist }

func (s Shortlist) WithMeta(m Meta) Shortlist {
	s.Meta = m
	return s
}

func (s Shortlist) Normalize() Shortlist {
	if s.InterestStatus == "" {
		s.InterestStatus = InterestPending
	}
	return s
}
