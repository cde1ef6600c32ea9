package handler

import (
	"encoding/json"

	"doctrack/internal/domain"
)

// Swagger type definitions for API documentation.
// Handlers bind directly into the request types below.

// --- Request Types ---

// CreateRequestRequest represents the create request body.
type CreateRequestRequest struct {
	// RequesterID defaults to the caller when staff are not filing on someone's behalf.
	RequesterID             int64    `json:"requester_id" example:"5"`
	Purpose                 string   `json:"purpose" binding:"required" example:"Certificate of enrollment"`
	DestinationDepartmentID int64    `json:"destination_department_id" binding:"required" example:"2"`
	Attachments             []string `json:"attachments" example:"attachments/5/3f1c9a6e.pdf"`
}

// ExpectedState is the state the caller last observed.
type ExpectedState struct {
	Status              domain.RequestStatus `json:"status" example:"ONGOING"`
	CurrentDepartmentID int64                `json:"current_department_id" example:"2"`
}

// CommandRequest represents the optional body of a routing command.
type CommandRequest struct {
	ToDepartmentID *int64         `json:"to_department_id" example:"7"`
	Remarks        string         `json:"remarks" example:"Please verify the attached receipt"`
	Expect         *ExpectedState `json:"expect"`
}

// SubmitGateRequest represents the submit gate document body.
type SubmitGateRequest struct {
	Kind              domain.DocumentKind `json:"kind" binding:"required" example:"TRAVEL_ORDER"`
	Purpose           string              `json:"purpose" binding:"required" example:"Regional research conference"`
	Details           json.RawMessage     `json:"details" binding:"required" swaggertype:"object"`
	Attachments       []string            `json:"attachments"`
	RequiredSignerIDs []int64             `json:"required_signer_ids" example:"9,12"`
}

// UpdateGateRequest represents the update gate document body.
type UpdateGateRequest struct {
	Purpose           string          `json:"purpose" binding:"required" example:"Regional research conference"`
	Details           json.RawMessage `json:"details" binding:"required" swaggertype:"object"`
	Attachments       []string        `json:"attachments"`
	RequiredSignerIDs []int64         `json:"required_signer_ids" example:"9,12"`
}

// DecisionRequest represents the optional body of an approve or reject.
type DecisionRequest struct {
	Remarks string `json:"remarks" example:"Approved for travel"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"operation completed successfully"`
}

// DownloadURLResponse represents a presigned attachment link.
type DownloadURLResponse struct {
	Key string `json:"key" example:"attachments/5/3f1c9a6e.pdf"`
	URL string `json:"url" example:"https://s3.amazonaws.com/doctrack-attachments/...?X-Amz-Signature=..."`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
