package ephemeris

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/worldframe/astro"
	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/kb"
)

// ToStatusError maps kernel errors onto gRPC status codes. Errors that
// already carry a status pass through unchanged.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, core.ErrFrameNotFound),
		errors.Is(err, kb.ErrBodyNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrBadRequest),
		errors.Is(err, coord.ErrMalformedCoordinateText),
		errors.Is(err, core.ErrFrameBadInput),
		errors.Is(err, astro.ErrInvalidStep):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, core.ErrCycleDetected),
		errors.Is(err, core.ErrMultipleRoots),
		errors.Is(err, core.ErrNoRoot),
		errors.Is(err, coord.ErrSingularCoordinate),
		errors.Is(err, core.ErrMissingPhysicalRadius),
		errors.Is(err, astro.ErrMissingMass),
		errors.Is(err, core.ErrFrameInUse):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, core.ErrFrameExists),
		errors.Is(err, kb.ErrBodyExists):
		return status.Error(codes.AlreadyExists, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// resolveReason labels frame-resolution failures for metrics. Request
// validation errors are not resolution failures and return "".
func resolveReason(err error) string {
	switch {
	case err == nil, errors.Is(err, ErrBadRequest), errors.Is(err, coord.ErrMalformedCoordinateText):
		return ""
	case errors.Is(err, core.ErrFrameNotFound):
		return "not_found"
	case errors.Is(err, core.ErrCycleDetected):
		return "cycle"
	case errors.Is(err, core.ErrMultipleRoots), errors.Is(err, core.ErrNoRoot):
		return "root"
	case errors.Is(err, coord.ErrSingularCoordinate):
		return "singular"
	case errors.Is(err, core.ErrMissingPhysicalRadius), errors.Is(err, astro.ErrMissingMass):
		return "missing_data"
	default:
		return "other"
	}
}
