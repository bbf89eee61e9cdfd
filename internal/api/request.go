package api

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/zuora-adapter/pkg/model"
)

// RefundCreateRequest is the inbound JSON body for POST /refunds.
type RefundCreateRequest struct {
	TenantID  string          `json:"tenantId"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	PaymentID string          `json:"paymentId"`
	Type      string          `json:"type"`
}

func (r RefundCreateRequest) Validate() error {
	if r.TenantID == "" {
		return errors.New("tenantId is required")
	}
	if r.AccountID == "" {
		return errors.New("accountId is required")
	}
	if r.Amount.IsNegative() {
		return errors.New("amount must not be negative")
	}
	return nil
}

// BillRunCreateRequest is the inbound JSON body for POST /bill-runs.
type BillRunCreateRequest struct {
	TenantID                    string `json:"tenantId"`
	AccountID                   string `json:"accountId"`
	AutoEmail                   bool   `json:"autoEmail"`
	AutoPost                    bool   `json:"autoPost"`
	AutoRenewal                 bool   `json:"autoRenewal"`
	Batch                       string `json:"batch"`
	BillCycleDay                int    `json:"billCycleDay"`
	ChargeTypeToExclude         string `json:"chargeTypeToExclude"`
	InvoiceDate                 string `json:"invoiceDate"`
	NoEmailForZeroAmountInvoice bool   `json:"noEmailForZeroAmountInvoice"`
	Status                      string `json:"status"`
	TargetDate                  string `json:"targetDate"`
}

func (r BillRunCreateRequest) Validate() error {
	if r.TenantID == "" {
		return errors.New("tenantId is required")
	}
	if r.BillCycleDay < 0 || r.BillCycleDay > 31 {
		return errors.New("billCycleDay must be between 0 and 31")
	}
	return nil
}

func toRefundRequest(req RefundCreateRequest) model.RefundRequest {
	return model.RefundRequest{
		TenantID:  req.TenantID,
		AccountID: req.AccountID,
		Amount:    req.Amount,
		PaymentID: req.PaymentID,
		Type:      req.Type,
	}
}

func toBillRunRequest(req BillRunCreateRequest) model.BillRunRequest {
	return model.BillRunRequest{
		TenantID:                    req.TenantID,
		AccountID:                   req.AccountID,
		AutoEmail:                   req.AutoEmail,
		AutoPost:                    req.AutoPost,
		AutoRenewal:                 req.AutoRenewal,
		Batch:                       req.Batch,
		BillCycleDay:                req.BillCycleDay,
		ChargeTypeToExclude:         req.ChargeTypeToExclude,
		InvoiceDate:                 req.InvoiceDate,
		NoEmailForZeroAmountInvoice: req.NoEmailForZeroAmountInvoice,
		Status:                      req.Status,
		TargetDate:                  req.TargetDate,
	}
}
