package schema

// APIError provides error information returned by the API.
type APIError struct {
	Code    any    `json:"code,omitempty"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type ErrorResponse struct {
	Error *APIError `json:"error,omitempty"`
}
