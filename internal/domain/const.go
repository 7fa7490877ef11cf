package domain

// EntityType names one synchronized collection.
type EntityType string

const (
	EntityEnquiry            EntityType = "enquiry"
	EntityDocument           EntityType = "document"
	EntityShortlist          EntityType = "shortlist"
	EntityStaff              EntityType = "staff"
	EntityTransaction        EntityType = "transaction"
	EntityPaymentApplication EntityType = "payment_application"
)

// EntityTypes lists every synchronized collection in bulk-sync order.
var EntityTypes = []EntityType{
	EntityEnquiry,
	EntityStaff,
	EntityDocument,
	EntityShortlist,
	EntityTransaction,
	EntityPaymentApplication,
}

func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t EntityType) String() string {
	return string(t)
}

// ParseEntityType accepts the canonical name and the plural path forms used by the REST API.
func ParseEntityType(s string) (EntityType, error) {
	switch s {
	case "enquiry", "enquiries":
		return EntityEnquiry, nil
	case "document", "documents":
		return EntityDocument, nil
	case "shortlist", "shortlists":
		return EntityShortlist, nil
	case "staff":
		return EntityStaff, nil
	case "transaction", "transactions":
		return EntityTransaction, nil
	case "payment_application", "payment-application", "payment-applications", "payment_applications":
		return EntityPaymentApplication, nil
	}
	return "", UnknownEntityTypeError{Name: s}
}

type EnquiryStatus string

const (
	EnquiryNew           EnquiryStatus = "NEW"
	EnquiryContacted     EnquiryStatus = "CONTACTED"
	EnquiryInterested    EnquiryStatus = "INTERESTED"
	EnquiryNotInterested EnquiryStatus = "NOT_INTERESTED"
	EnquiryShortlisted   EnquiryStatus = "SHORTLISTED"
	EnquiryClosed        EnquiryStatus = "CLOSED"
)

type DocumentType string

const (
	DocumentGST           DocumentType = "GST"
	DocumentUdyam         DocumentType = "UDYAM"
	DocumentBankStatement DocumentType = "BANK_STATEMENT"
	DocumentITR           DocumentType = "ITR"
	DocumentPAN           DocumentType = "PAN"
	DocumentAadhaar       DocumentType = "AADHAAR"
	DocumentOther         DocumentType = "OTHER"
)

type InterestStatus string

const (
	InterestInterested    InterestStatus = "INTERESTED"
	InterestNotInterested InterestStatus = "NOT_INTERESTED"
	InterestPending       InterestStatus = "PENDING"
)

type StaffRole string

const (
	RoleAdmin    StaffRole = "ADMIN"
	RoleEmployee StaffRole = "EMPLOYEE"
)

type StaffStatus string

const (
	StaffActive   StaffStatus = "ACTIVE"
	StaffInactive StaffStatus = "INACTIVE"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
	TransactionCancelled TransactionStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentApproved  PaymentStatus = "APPROVED"
	PaymentRejected  PaymentStatus = "REJECTED"
	PaymentDisbursed PaymentStatus = "DISBURSED"
)

// StatusPending is the canonical remote default for entities without a status.
const StatusPending = "PENDING"
