package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finboard/internal/dto"
	"finboard/internal/errs"
	"finboard/internal/response"
)

type ProviderService interface {
	ListProviders() []dto.ProviderInfo
	ListEndpoints(provider dto.Provider) ([]dto.EndpointInfo, error)
	Preview(ctx context.Context, req dto.TestConnectionRequest) dto.TestConnectionResponse
}

type providerHandlers struct {
	ResponseHandler response.ResponseHandler
	ProviderSvc     ProviderService
}

func NewProviderHandlers(deps *Deps) *providerHandlers {
	return &providerHandlers{
		ResponseHandler: deps.ResponseHandler,
		ProviderSvc:     deps.ProviderSvc,
	}
}

func (h *providerHandlers) ProviderRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListProviders)
	r.Get("/{provider}/endpoints", h.ListEndpoints)
	r.Post("/test", h.TestConnection)
	return r
}

func (h *providerHandlers) ListProviders(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.ProviderSvc.ListProviders())
}

func (h *providerHandlers) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	provider := dto.Provider(chi.URLParam(r, "provider"))
	endpoints, err := h.ProviderSvc.ListEndpoints(provider)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, endpoints)
}

// TestConnection previews a provider/endpoint pair. Upstream failures come
// back as a 200 with success=false: they are the preview's result, not a
// request error.
func (h *providerHandlers) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req dto.TestConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	if req.Provider == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("provider is required"))
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.ProviderSvc.Preview(r.Context(), req))
}
