package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"finboard/internal/errs"
	"finboard/pkg/logger"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	}); err != nil {
		log := logger.FromContext(r.Context())
		log.Error("failed to encode error response", "error", err, "status", status, "code", code)
	}
}

func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	switch e := err.(type) {
	case *errs.NotFoundError:
		log.Warn("resource not found", "error", e.Message)
		h.WriteError(w, r, http.StatusNotFound, "not_found", e.Message)

	case *errs.ValidationError:
		log.Warn("validation failed", "error", e.Message)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", e.Message)

	case *errs.SymbolRequiredError:
		log.Warn("symbol required", "endpoint", e.Endpoint)
		h.WriteError(w, r, http.StatusBadRequest, "symbol_required", e.Message)

	case *errs.ConfigurationError:
		log.Warn("provider not configured", "error", e.Message)
		h.WriteError(w, r, http.StatusBadRequest, "not_configured", e.Message)

	case *errs.RateLimitedError:
		// distinct code so the UI can explain the throttle rather than a
		// generic failure
		log.Warn("provider rate limited", "provider", e.Provider)
		h.WriteError(w, r, http.StatusTooManyRequests, "rate_limited", e.Message)

	case *errs.UpstreamError:
		log.Warn("upstream error",
			"provider", e.Provider,
			"transient", e.Transient,
			"error", e.Message)
		status := http.StatusBadGateway
		if e.Transient {
			status = http.StatusServiceUnavailable
		}
		h.WriteError(w, r, status, "upstream_error", e.Message)

	case *errs.StoreError:
		log.Error("store error", "operation", e.Operation, "error", e.Message)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An error occurred")

	default:
		log.Error("unexpected error",
			"error", err,
			"type", fmt.Sprintf("%T", err))
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An unexpected error occurred")
	}
}
