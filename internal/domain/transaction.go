package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a payment reference. TransactionID is the external id and the
// remote dedup key.
type Transaction struct {
	Meta
	TransactionID string            `json:"transactionId" validate:"required"`
	Name          string            `json:"name,omitempty"`
	Email         string            `json:"email,omitempty" validate:"omitempty,email"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        TransactionStatus `json:"status,omitempty"`
	Date          time.Time         `json:"date"`
}

func (Transaction) EntityType() EntityType { return EntityTransaction }

func (t Transaction) WithMeta(m Meta) Transaction {
	t.Meta = m
	return t
}

func (t Transaction) Normalize() Transaction {
	if t.Status == "" {
		t.Status = TransactionPending
	}
	if t.Date.IsZero() {
		t.Date = t.CreatedAt
	}
	return t
}
