package handlers

import (
	"log/slog"

	"finboard/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	DashboardSvc    DashboardService
	ProviderSvc     ProviderService
	Events          EventSource
}
