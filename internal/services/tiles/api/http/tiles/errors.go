package tiles

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/protobuf/encoding/protojson"

	apperrors "github.com/louisbranch/wear-tiles/internal/platform/errors"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/storage"
)

var (
	errNotFound         = apperrors.New(apperrors.CodeNotFound, "route not found")
	errMethodNotAllowed = apperrors.New(apperrors.CodeMethodNotAllowed, "method not allowed")
)

func badRequest(cause error) error {
	return apperrors.Wrap(apperrors.CodeInvalidRequest, "decode request: "+cause.Error(), cause)
}

// mapDomainError classifies err into a service error.
func mapDomainError(err error) *apperrors.Error {
	var serviceErr *apperrors.Error
	switch {
	case errors.As(err, &serviceErr):
		return serviceErr
	case errors.Is(err, domain.ErrResourceIDRequired), errors.Is(err, domain.ErrInvalidResourceID):
		return apperrors.Wrap(apperrors.CodeInvalidResourceID, err.Error(), err)
	case errors.Is(err, domain.ErrContactIDRequired), errors.Is(err, domain.ErrDuplicateContactID):
		return apperrors.Wrap(apperrors.CodeInvalidContact, err.Error(), err)
	case errors.Is(err, domain.ErrFavoritesUnavailable), errors.Is(err, storage.ErrClosed):
		return apperrors.Wrap(apperrors.CodeFavoritesUnavailable, err.Error(), err)
	case errors.Is(err, domain.ErrServiceNotConfigured),
		errors.Is(err, domain.ErrStateCacheNotConfigured),
		errors.Is(err, domain.ErrResolverNotConfigured),
		errors.Is(err, domain.ErrFavoritesSourceNotConfigured),
		errors.Is(err, storage.ErrNotConfigured):
		return apperrors.Wrap(apperrors.CodeServiceNotConfigured, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.CodeRequestTimeout, err.Error(), err)
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(apperrors.CodeRequestCanceled, err.Error(), err)
	default:
		return apperrors.Wrap(apperrors.CodeUnknown, err.Error(), err)
	}
}

// writeError answers with a google.rpc.Status JSON body whose localized
// message follows the request's Accept-Language.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := mapDomainError(err)
	status := serviceErr.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logf("%s %s: %v", r.Method, r.URL.Path, err)
	}

	locale := h.catalog.Match(r.Header.Get("Accept-Language"))
	userMessage, ok := h.catalog.Message(locale, serviceErr.Code.MessageKey())
	if !ok {
		userMessage, _ = h.catalog.Message(locale, apperrors.CodeUnknown.MessageKey())
	}
	body, marshalErr := protojson.Marshal(serviceErr.Status(locale, userMessage).Proto())
	if marshalErr != nil {
		http.Error(w, userMessage, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
