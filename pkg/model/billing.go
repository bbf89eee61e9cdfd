package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundRequest is the typed form of a Refund create call. Optional fields
// are omitted from the SOAP payload when left at their zero value.
type RefundRequest struct {
	TenantID  string          `json:"tenant_id"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaymentID string          `json:"payment_id"`
	Type      string          `json:"type"` // e.g. "Electronic", "External"
}

// BillRunRequest is the typed form of a BillRun create call.
type BillRunRequest struct {
	TenantID                    string `json:"tenant_id"`
	AccountID                   string `json:"account_id"`
	AutoEmail                   bool   `json:"auto_email"`
	AutoPost                    bool   `json:"auto_post"`
	AutoRenewal                 bool   `json:"auto_renewal"`
	Batch                       string `json:"batch"`
	BillCycleDay                int    `json:"bill_cycle_day"`
	ChargeTypeToExclude         string `json:"charge_type_to_exclude"`
	ID                          string `json:"id"`
	InvoiceDate                 string `json:"invoice_date"` // YYYY-MM-DD
	NoEmailForZeroAmountInvoice bool   `json:"no_email_for_zero_amount_invoice"`
	Status                      string `json:"status"`
	TargetDate                  string `json:"target_date"` // YYYY-MM-DD
}

// RequestRecord is the audit row persisted for every SOAP create round trip.
type RequestRecord struct {
	ID          uuid.UUID `json:"id"`
	TenantID    string    `json:"tenant_id"`
	ObjectType  string    `json:"object_type"`
	StatusCode  int       `json:"status_code"`
	Response    string    `json:"response"` // raw response body excerpt
	SubmittedAt time.Time `json:"submitted_at"`
}
