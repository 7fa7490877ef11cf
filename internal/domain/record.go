package domain

import "time"

// Record is a locally persisted entity that can be handed to the sync layer.
type Record interface {
	RecordID() string
	EntityType() EntityType
}

// Meta carries the identity and timestamps every entity shares.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m Meta) RecordID() string {
	return m.ID
}

func (m Meta) RecordMeta() Meta {
	return m
}

// ChangeEvent announces a committed local write. A nil Record means the whole
// collection of Type changed.
type ChangeEvent struct {
	Type   EntityType
	Record Record
}
