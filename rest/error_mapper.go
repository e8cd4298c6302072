package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"doc-retriever/domain"
)

// mapDomainError converts a pipeline error into an echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	var (
		unsupported    *domain.UnsupportedFormatError
		malformed      *domain.MalformedInputError
		notImplemented *domain.NotImplementedFeatureError
		sourceLoad     *domain.SourceLoadError
		backend        *domain.RetrievalBackendError
	)

	switch {
	case errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrDuplicateDocumentID),
		errors.Is(err, domain.ErrPathOutsideRoot):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.As(err, &unsupported),
		errors.As(err, &malformed),
		errors.As(err, &sourceLoad):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())

	case errors.As(err, &notImplemented):
		return echo.NewHTTPError(http.StatusNotImplemented, err.Error())

	case errors.As(err, &backend):
		return echo.NewHTTPError(http.StatusBadGateway, "retrieval backend unavailable")

	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
