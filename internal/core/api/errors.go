package api

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/docguard/internal/types"
)

// Error mapping for both transports.
// Invalid input maps to INVALID_ARGUMENT / 400.
// Missing documents map to NOT_FOUND / 404.
// Lifecycle violations map to FAILED_PRECONDITION / 409.
// Database errors map to UNAVAILABLE / 503.
// Context timeouts map to DEADLINE_EXCEEDED / 504.

func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, types.ErrInvalidDocument), errors.Is(err, types.ErrInvalidRequest):
		return codes.InvalidArgument
	case errors.Is(err, types.ErrDocumentNotFound):
		return codes.NotFound
	case errors.Is(err, types.ErrInvalidTransition):
		return codes.FailedPrecondition
	case errors.Is(err, types.ErrPersistence), errors.Is(err, types.ErrStorage):
		return codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}

// grpcError converts a service error to a gRPC status error.
func grpcError(err error) error {
	return status.Error(grpcCode(err), err.Error())
}

// httpStatus maps a service error to an HTTP status code.
func httpStatus(err error) int {
	switch grpcCode(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
