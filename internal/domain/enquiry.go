package domain

import "github.com/shopspring/decimal"

// Enquiry is an inbound loan request. Mobile is its remote dedup key.
type Enquiry struct {
	Meta
	Name            string          `json:"name" validate:"required"`
	Mobile          string          `json:"mobile" validate:"required,min=10,max=15"`
	Email           string          `json:"email,omitempty" validate:"omitempty,email"`
	BusinessName    string          `json:"businessName,omitempty"`
	BusinessType    string          `json:"businessType,omitempty"`
	BusinessConcern string          `json:"businessConcern,omitempty"`
	District        string          `json:"district,omitempty"`
	LoanAmount      decimal.Decimal `json:"loanAmount"`
	Status          EnquiryStatus   `json:"status,omitempty"`
	AssignedStaffID string          `json:"assignedStaffId,omitempty"`
	Comments        string          `json:"comments,omitempty"`
}

func (Enquiry) EntityType() EntityType { return EntityEnquiry }

func (e Enquiry) WithMeta(m Meta) Enquiry {
	e.Meta = m
	return e
}

func (e Enquiry) Normalize() Enquiry {
	if e.Status == "" {
		e.Status = EnquiryNew
	}
	return e
}
