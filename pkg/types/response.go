// Package types holds the JSON envelope shapes shared by the HTTP layer
// and its clients. Every response is either {"data": ...} or {"error": ...}.
package types

// SuccessEnvelope wraps a successful response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the machine-readable error body. Code is one of the stable
// error codes from pkg/errors; Details carries optional field-level context.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for transport.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
