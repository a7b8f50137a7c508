// Package errors provides structured service errors that carry a
// machine-readable code, a gRPC status mapping and a localized user message.
package errors

import (
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unclassified failure.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidRequest    Code = "INVALID_REQUEST"
	CodeInvalidResourceID Code = "INVALID_RESOURCE_ID"
	CodeInvalidContact    Code = "INVALID_CONTACT"
	CodeNotFound          Code = "NOT_FOUND"
	CodeMethodNotAllowed  Code = "METHOD_NOT_ALLOWED"

	// Dependency errors
	CodeFavoritesUnavailable Code = "FAVORITES_UNAVAILABLE"
	CodeServiceNotConfigured Code = "SERVICE_NOT_CONFIGURED"

	// Lifecycle errors
	CodeRequestCanceled Code = "REQUEST_CANCELED"
	CodeRequestTimeout  Code = "REQUEST_TIMEOUT"
)

// MessageKey is the catalog key of the user-facing message for c.
func (c Code) MessageKey() string {
	return "error." + strings.ToLower(string(c))
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidRequest,
		CodeInvalidResourceID,
		CodeInvalidContact:
		return codes.InvalidArgument

	case CodeNotFound:
		return codes.NotFound

	case CodeMethodNotAllowed:
		return codes.Unimplemented

	case CodeFavoritesUnavailable:
		return codes.Unavailable

	case CodeRequestCanceled:
		return codes.Canceled

	case CodeRequestTimeout:
		return codes.DeadlineExceeded

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes through their gRPC code.
func (c Code) HTTPStatus() int {
	if c == CodeMethodNotAllowed {
		return http.StatusMethodNotAllowed
	}
	return HTTPStatusFromGRPC(c.GRPCCode())
}

// HTTPStatusFromGRPC follows the google.rpc.Code HTTP mapping.
func HTTPStatusFromGRPC(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.Canceled:
		return 499
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
