package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/zuora-adapter/internal/store"
	"github.com/Checker-Finance/zuora-adapter/internal/zuora"
	"github.com/Checker-Finance/zuora-adapter/pkg/model"
)

// --- Mock Service ---

type mockService struct {
	createRefundFn  func(ctx context.Context, req model.RefundRequest) (*model.RequestRecord, error)
	createBillRunFn func(ctx context.Context, req model.BillRunRequest) (*model.RequestRecord, error)
	getRequestFn    func(ctx context.Context, id uuid.UUID) (*model.RequestRecord, error)
}

func (m *mockService) CreateRefund(ctx context.Context, req model.RefundRequest) (*model.RequestRecord, error) {
	if m.createRefundFn != nil {
		return m.createRefundFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) CreateBillRun(ctx context.Context, req model.BillRunRequest) (*model.RequestRecord, error) {
	if m.createBillRunFn != nil {
		return m.createBillRunFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) GetRequest(ctx context.Context, id uuid.UUID) (*model.RequestRecord, error) {
	if m.getRequestFn != nil {
		return m.getRequestFn(ctx, id)
	}
	return nil, fmt.Errorf("not implemented")
}

// --- Test Helpers ---

func newTestApp(svc BillingService) *fiber.App {
	app := fiber.New()
	handler := NewZuoraHandler(zap.NewNop(), svc)
	v1 := app.Group("/api/v1")
	v1.Post("/refunds", handler.CreateRefundHandler)
	v1.Post("/bill-runs", handler.CreateBillRunHandler)
	v1.Get("/requests/:id", handler.GetRequestHandler)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// --- CreateRefundHandler Tests ---

func TestCreateRefundHandler_Success(t *testing.T) {
	recID := uuid.New()
	svc := &mockService{
		createRefundFn: func(ctx context.Context, req model.RefundRequest) (*model.RequestRecord, error) {
			return &model.RequestRecord{
				ID:          recID,
				TenantID:    req.TenantID,
				ObjectType:  "Refund",
				StatusCode:  200,
				SubmittedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			}, nil
		},
	}

	app := newTestApp(svc)

	body := `{
		"tenantId": "tenant-1",
		"accountId": "A-100",
		"amount": "49.99",
		"paymentId": "P-200",
		"type": "Electronic"
	}`

	resp := postJSON(t, app, "/api/v1/refunds", body)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var result CreateResponse
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))
	assert.Equal(t, recID, result.RequestID)
	assert.Equal(t, "Refund", result.ObjectType)
	assert.Equal(t, 200, result.StatusCode)
}

func TestCreateRefundHandler_MissingTenant(t *testing.T) {
	app := newTestApp(&mockService{})

	resp := postJSON(t, app, "/api/v1/refunds", `{"accountId": "A-100"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateRefundHandler_ConnectionError(t *testing.T) {
	svc := &mockService{
		createRefundFn: func(ctx context.Context, req model.RefundRequest) (*model.RequestRecord, error) {
			return nil, &zuora.ConnectionError{Err: errors.New("dial tcp: connection refused")}
		},
	}
	app := newTestApp(svc)

	resp := postJSON(t, app, "/api/v1/refunds", `{"tenantId": "tenant-1", "accountId": "A-100"}`)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestCreateRefundHandler_LoginRejected(t *testing.T) {
	svc := &mockService{
		createRefundFn: func(ctx context.Context, req model.RefundRequest) (*model.RequestRecord, error) {
			return nil, &zuora.ErrorResponse{StatusCode: 401, Body: []byte("invalid login")}
		},
	}
	app := newTestApp(svc)

	resp := postJSON(t, app, "/api/v1/refunds", `{"tenantId": "tenant-1", "accountId": "A-100"}`)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	var result map[string]any
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))
	assert.Equal(t, float64(401), result["upstreamStatus"])
}

// --- CreateBillRunHandler Tests ---

func TestCreateBillRunHandler_Success(t *testing.T) {
	var got model.BillRunRequest
	svc := &mockService{
		createBillRunFn: func(ctx context.Context, req model.BillRunRequest) (*model.RequestRecord, error) {
			got = req
			return &model.RequestRecord{
				ID:         uuid.New(),
				TenantID:   req.TenantID,
				ObjectType: "BillRun",
				StatusCode: 200,
			}, nil
		},
	}
	app := newTestApp(svc)

	body := `{
		"tenantId": "tenant-1",
		"autoPost": true,
		"billCycleDay": 15,
		"invoiceDate": "2026-09-01",
		"targetDate": "2026-09-01"
	}`

	resp := postJSON(t, app, "/api/v1/bill-runs", body)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	assert.True(t, got.AutoPost)
	assert.Equal(t, 15, got.BillCycleDay)
	assert.Equal(t, "2026-09-01", got.TargetDate)
}

func TestCreateBillRunHandler_InvalidBillCycleDay(t *testing.T) {
	app := newTestApp(&mockService{})

	resp := postJSON(t, app, "/api/v1/bill-runs", `{"tenantId": "tenant-1", "billCycleDay": 45}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// --- GetRequestHandler Tests ---

func TestGetRequestHandler_Success(t *testing.T) {
	recID := uuid.New()
	svc := &mockService{
		getRequestFn: func(ctx context.Context, id uuid.UUID) (*model.RequestRecord, error) {
			return &model.RequestRecord{
				ID:         id,
				TenantID:   "tenant-1",
				ObjectType: "Refund",
				StatusCode: 200,
				Response:   "<soapenv:Envelope/>",
			}, nil
		},
	}
	app := newTestApp(svc)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/requests/"+recID.String(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result RequestResponse
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))
	assert.Equal(t, recID, result.RequestID)
	assert.Equal(t, "<soapenv:Envelope/>", result.Response)
}

func TestGetRequestHandler_NotFound(t *testing.T) {
	svc := &mockService{
		getRequestFn: func(ctx context.Context, id uuid.UUID) (*model.RequestRecord, error) {
			return nil, store.ErrNotFound
		},
	}
	app := newTestApp(svc)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/requests/"+uuid.NewString(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetRequestHandler_BadID(t *testing.T) {
	app := newTestApp(&mockService{})

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/requests/not-a-uuid", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
