package gateway

import (
	"context"
	"net/http"

	"github.com/anhcx0209/ontodia-search/errors"
)

var errRequestTooLarge = errors.New("request body too large")

// errorResponse is the body of every failed request. Composition and
// request errors carry their message; upstream failures are summarized so
// endpoint internals stay out of the browser.
type errorResponse struct {
	Error          string      `json:"error"`
	Status         int         `json:"status"`
	Kind           errors.Kind `json:"kind,omitempty"`
	RequestID      string      `json:"requestId"`
	EndpointStatus int         `json:"endpointStatus,omitempty"`
}

// mapErrorToHTTPStatus maps provider failures to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch errors.KindOf(err) {
	case errors.KindComposition:
		return http.StatusBadRequest
	case errors.KindProtocol, errors.KindParse:
		return http.StatusBadGateway
	case errors.KindTransport:
		return http.StatusGatewayTimeout
	}

	switch {
	case errors.Is(err, errRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsTransient(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// sanitizeError returns the message shown to clients.
func sanitizeError(err error, status int) string {
	switch errors.KindOf(err) {
	case errors.KindComposition:
		return err.Error()
	case errors.KindProtocol:
		return "SPARQL endpoint rejected the query"
	case errors.KindParse:
		return "SPARQL endpoint returned an unreadable response"
	case errors.KindTransport:
		return "SPARQL endpoint unreachable"
	}
	switch status {
	case http.StatusBadRequest:
		return "invalid request: " + err.Error()
	case http.StatusRequestEntityTooLarge:
		return "request body too large"
	case http.StatusGatewayTimeout:
		return "request timeout"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	}
	return "internal server error"
}

// writeError writes err as JSON and returns the status used.
func (g *Gateway) writeError(w http.ResponseWriter, requestID string, err error) int {
	status := mapErrorToHTTPStatus(err)
	resp := errorResponse{
		Error:     sanitizeError(err, status),
		Status:    status,
		Kind:      errors.KindOf(err),
		RequestID: requestID,
	}
	var pe *errors.ProtocolError
	if errors.As(err, &pe) {
		resp.EndpointStatus = pe.StatusCode
	}
	writeJSON(w, status, resp)
	return status
}
