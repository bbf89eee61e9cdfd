package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/zuora-adapter/internal/store"
	"github.com/Checker-Finance/zuora-adapter/internal/zuora"
	"github.com/Checker-Finance/zuora-adapter/pkg/model"
)

// BillingService defines the billing operations needed by the handler.
type BillingService interface {
	CreateRefund(ctx context.Context, req model.RefundRequest) (*model.RequestRecord, error)
	CreateBillRun(ctx context.Context, req model.BillRunRequest) (*model.RequestRecord, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*model.RequestRecord, error)
}

// ZuoraHandler handles HTTP API requests for billing create operations.
type ZuoraHandler struct {
	logger  *zap.Logger
	service BillingService
}

func NewZuoraHandler(logger *zap.Logger, service BillingService) *ZuoraHandler {
	return &ZuoraHandler{
		logger:  logger,
		service: service,
	}
}

// CreateRefundHandler handles refund submission requests.
func (h *ZuoraHandler) CreateRefundHandler(c *fiber.Ctx) error {
	var req RefundCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rec, err := h.service.CreateRefund(c.Context(), toRefundRequest(req))
	if err != nil {
		h.logger.Error("zuora.create_refund.failed",
			zap.String("tenant_id", req.TenantID),
			zap.Error(err))
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toCreateResponse(rec))
}

// CreateBillRunHandler handles bill run submission requests.
func (h *ZuoraHandler) CreateBillRunHandler(c *fiber.Ctx) error {
	var req BillRunCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rec, err := h.service.CreateBillRun(c.Context(), toBillRunRequest(req))
	if err != nil {
		h.logger.Error("zuora.create_bill_run.failed",
			zap.String("tenant_id", req.TenantID),
			zap.Error(err))
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toCreateResponse(rec))
}

// GetRequestHandler returns the audit row for a submitted create call.
func (h *ZuoraHandler) GetRequestHandler(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request id"})
	}

	rec, err := h.service.GetRequest(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "request not found"})
		}
		h.logger.Error("zuora.get_request.failed",
			zap.String("request_id", id.String()),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(toRequestResponse(rec))
}

// mapError translates upstream failures into gateway-style statuses. A
// *zuora.ErrorResponse here means the login round trip was rejected; create
// responses never surface as errors.
func (h *ZuoraHandler) mapError(c *fiber.Ctx, err error) error {
	var connErr *zuora.ConnectionError
	var respErr *zuora.ErrorResponse

	switch {
	case errors.As(err, &connErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "billing platform unreachable"})
	case errors.As(err, &respErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":          "billing platform rejected login",
			"upstreamStatus": respErr.StatusCode,
		})
	case errors.Is(err, zuora.ErrNotAuthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
