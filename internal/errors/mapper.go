// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts domain/repo/infra errors into gRPC status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrInvalidTarget):
		return status.Error(codes.InvalidArgument, "invalid target")

	// Blocked is deliberately indistinguishable from other refusals so the
	// blocked party learns nothing about block state.
	case errors.Is(err, ErrBlocked),
		errors.Is(err, ErrSwiperUnavailable),
		errors.Is(err, ErrRequesterUnavailable):
		return status.Error(codes.PermissionDenied, "action not allowed")

	case errors.Is(err, ErrNoLocationSet):
		return status.Error(codes.FailedPrecondition, "location required")

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// HTTPStatus translates an error (domain or gRPC status) into an HTTP status
// code and a client-safe message.
func HTTPStatus(err error) (int, string) {
	st, _ := status.FromError(Map(err))

	switch st.Code() {
	case codes.OK:
		return http.StatusOK, ""
	case codes.InvalidArgument:
		return http.StatusBadRequest, st.Message()
	case codes.PermissionDenied:
		return http.StatusForbidden, st.Message()
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity, st.Message()
	case codes.NotFound:
		return http.StatusNotFound, st.Message()
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, st.Message()
	case codes.Canceled:
		return 499, st.Message()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// IsClientError reports whether err is the caller's fault (bad input,
// refused action, missing record) rather than a server failure.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	st, _ := status.FromError(Map(err))
	switch st.Code() {
	case codes.Internal, codes.Unknown, codes.Unavailable, codes.DataLoss:
		return false
	}
	return true
}
