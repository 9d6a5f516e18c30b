// Package apierror provides standardized error response structures for the API.
// All back-office errors returned to clients go through this package so that
// internal details (SQL errors, upstream bodies) never leak.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}

// RelayResponse is the envelope of the WhatsApp relay endpoints, kept
// compatible with the frontends that already call them.
type RelayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func RelayOK(msg string) *RelayResponse {
	return &RelayResponse{Success: true, Message: msg}
}

func RelayFail(msg string) *RelayResponse {
	return &RelayResponse{Success: false, Error: msg}
}
