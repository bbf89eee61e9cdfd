package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/zuora-adapter/internal/store"
	"github.com/Checker-Finance/zuora-adapter/internal/zuora"
	"github.com/Checker-Finance/zuora-adapter/pkg/model"
)

// Responses are persisted for audit; anything longer is truncated.
const maxStoredResponse = 2048

// SessionSource hands out authenticated SOAP clients per tenant.
type SessionSource interface {
	Session(ctx context.Context, tenantID string) (*zuora.Client, error)
}

// EventPublisher emits canonical events after a create call is submitted.
type EventPublisher interface {
	PublishObjectCreated(ctx context.Context, evt model.ObjectCreatedEvent) error
}

// Service orchestrates create calls: session, SOAP round trip, audit row,
// event. The SOAP response itself is passed through uninterpreted.
type Service struct {
	logger   *zap.Logger
	sessions SessionSource
	store    store.Store
	events   EventPublisher
}

func NewService(logger *zap.Logger, sessions SessionSource, st store.Store, events EventPublisher) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, sessions: sessions, store: st, events: events}
}

// CreateRefund submits a Refund create call for the tenant.
func (s *Service) CreateRefund(ctx context.Context, req model.RefundRequest) (*model.RequestRecord, error) {
	data := zuora.Data{
		"account_id": req.AccountID,
		"amount":     req.Amount,
		"payment_id": req.PaymentID,
		"type":       req.Type,
	}
	return s.create(ctx, req.TenantID, "Refund", data)
}

// CreateBillRun submits a BillRun create call for the tenant.
func (s *Service) CreateBillRun(ctx context.Context, req model.BillRunRequest) (*model.RequestRecord, error) {
	data := zuora.Data{
		"account_id":                       req.AccountID,
		"auto_email":                       req.AutoEmail,
		"auto_post":                        req.AutoPost,
		"auto_renewal":                     req.AutoRenewal,
		"batch":                            req.Batch,
		"bill_cycle_day":                   req.BillCycleDay,
		"charge_type_to_exclude":           req.ChargeTypeToExclude,
		"id":                               req.ID,
		"invoice_date":                     req.InvoiceDate,
		"no_email_for_zero_amount_invoice": req.NoEmailForZeroAmountInvoice,
		"status":                           req.Status,
		"target_date":                      req.TargetDate,
	}
	return s.create(ctx, req.TenantID, "BillRun", data)
}

// GetRequest returns the audit row for a previously submitted create call.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*model.RequestRecord, error) {
	return s.store.GetRequest(ctx, id)
}

func (s *Service) create(ctx context.Context, tenantID, objectType string, data zuora.Data) (*model.RequestRecord, error) {
	client, err := s.sessions.Session(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	res, err := client.CreateObject(ctx, objectType, data)
	if err != nil {
		s.logger.Error("billing.create_failed",
			zap.String("tenant_id", tenantID),
			zap.String("object_type", objectType),
			zap.Error(err),
		)
		return nil, err
	}

	rec := &model.RequestRecord{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ObjectType:  objectType,
		StatusCode:  res.StatusCode,
		Response:    truncate(string(res.Body), maxStoredResponse),
		SubmittedAt: time.Now().UTC(),
	}

	// Audit and event failures are logged, not surfaced: the SOAP call
	// already went out and the caller needs its result.
	if s.store != nil {
		if err := s.store.RecordRequest(ctx, *rec); err != nil {
			s.logger.Error("billing.audit_failed",
				zap.String("request_id", rec.ID.String()),
				zap.Error(err),
			)
		}
	}

	if s.events != nil {
		evt := model.ObjectCreatedEvent{
			TenantID:   tenantID,
			RequestID:  rec.ID,
			ObjectType: objectType,
			StatusCode: res.StatusCode,
			Timestamp:  rec.SubmittedAt,
		}
		if err := s.events.PublishObjectCreated(ctx, evt); err != nil {
			s.logger.Error("billing.event_publish_failed",
				zap.String("request_id", rec.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("billing.create_submitted",
		zap.String("tenant_id", tenantID),
		zap.String("object_type", objectType),
		zap.String("request_id", rec.ID.String()),
		zap.Int("status", res.StatusCode),
	)
	return rec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
