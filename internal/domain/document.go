package domain

import "time"

// Document is an uploaded file attached to an enquiry.
type Document struct {
	Meta
	EnquiryID  string       `json:"enquiryId" validate:"required"`
	Type       DocumentType `json:"type,omitempty"`
	FileName   string       `json:"fileName,omitempty"`
	FilePath   string       `json:"filePath,omitempty"`
	FileSize   int64        `json:"fileSize,omitempty" validate:"gte=0"`
	MimeType   string       `json:"mimeType,omitempty"`
	Verified   bool         `json:"verified"`
	VerifiedBy string       `json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time   `json:"verifiedAt,omitempty"`
}

func (Document) EntityType() EntityType { return EntityDocument }

func (d Document) WithMeta(m Meta) Document {
	d.Meta = m
	return d
}

func (d Document) Normalize() Document {
	if d.Type == "" {
		d.Type = DocumentOther
	}
	if !d.Verified {
		d.VerifiedBy = ""
		d.VerifiedAt = nil
	}
	return d
}
