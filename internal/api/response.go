package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/Checker-Finance/zuora-adapter/pkg/model"
)

// CreateResponse acknowledges a submitted create call. The upstream SOAP
// response is not interpreted; clients inspect statusCode themselves or
// fetch the audit row later.
type CreateResponse struct {
	RequestID   uuid.UUID `json:"requestId"`
	ObjectType  string    `json:"objectType"`
	StatusCode  int       `json:"statusCode"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// RequestResponse is the audit row returned by GET /requests/:id.
type RequestResponse struct {
	RequestID   uuid.UUID `json:"requestId"`
	TenantID    string    `json:"tenantId"`
	ObjectType  string    `json:"objectType"`
	StatusCode  int       `json:"statusCode"`
	Response    string    `json:"response"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func toCreateResponse(rec *model.RequestRecord) CreateResponse {
	return CreateResponse{
		RequestID:   rec.ID,
		ObjectType:  rec.ObjectType,
		StatusCode:  rec.StatusCode,
		SubmittedAt: rec.SubmittedAt,
	}
}

func toRequestResponse(rec *model.RequestRecord) RequestResponse {
	return RequestResponse{
		RequestID:   rec.ID,
		TenantID:    rec.TenantID,
		ObjectType:  rec.ObjectType,
		StatusCode:  rec.StatusCode,
		Response:    rec.Response,
		SubmittedAt: rec.SubmittedAt,
	}
}
