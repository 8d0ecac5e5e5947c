package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"finboard/internal/dto"
	"finboard/internal/errs"
	"finboard/internal/fields"
	"finboard/internal/models"
)

// WidgetStore persists widget configuration. Implemented by both the
// Firestore and the KV-backed stores.
type WidgetStore interface {
	Create(ctx context.Context, w *models.Widget) error
	Get(ctx context.Context, widgetID string) (*models.Widget, error)
	List(ctx context.Context) ([]*models.Widget, error)
	Update(ctx context.Context, w *models.Widget) error
	Delete(ctx context.Context, widgetID string) error
	Count(ctx context.Context) (int, error)
	BulkUpdatePositions(ctx context.Context, positions map[string]int) error
}

type refreshScheduler interface {
	Register(w models.Widget)
	Reschedule(widgetID string, interval time.Duration) bool
	Cancel(widgetID string)
}

type stateReader interface {
	Get(widgetID string) (models.WidgetRuntimeState, bool)
}

type endpointCatalog interface {
	Endpoint(provider dto.Provider, endpoint string) (dto.EndpointInfo, bool)
}

type dashboardService struct {
	store    WidgetStore
	sched    refreshScheduler
	states   stateReader
	catalog  endpointCatalog
	validate *validator.Validate
}

func NewDashboardService(store WidgetStore, sched refreshScheduler, states stateReader, catalog endpointCatalog) *dashboardService {
	return &dashboardService{
		store:    store,
		sched:    sched,
		states:   states,
		catalog:  catalog,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Start loads persisted widgets and brings their refresh loops up. Called
// once at boot, before the HTTP server accepts traffic.
func (s *dashboardService) Start(ctx context.Context) error {
	widgets, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, w := range widgets {
		s.sched.Register(*w)
	}
	return nil
}

func (s *dashboardService) GetDashboard(ctx context.Context) ([]*models.Widget, error) {
	return s.store.List(ctx)
}

func (s *dashboardService) AddWidget(ctx context.Context, req dto.CreateWidgetRequest) (*models.Widget, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errs.NewValidationError(err.Error())
	}
	ep, symbol, err := s.checkBinding(req.Provider, req.Endpoint, req.Symbol)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultWidgetName(ep, symbol)
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	w := &models.Widget{
		WidgetID:               uuid.NewString(),
		Name:                   name,
		Provider:               req.Provider,
		Endpoint:               req.Endpoint,
		Symbol:                 symbol,
		SelectedFields:         req.SelectedFields,
		RefreshIntervalSeconds: req.RefreshIntervalSeconds,
		DisplayMode:            req.DisplayMode,
		Position:               count + 1,
	}
	if err := s.store.Create(ctx, w); err != nil {
		return nil, err
	}
	s.sched.Register(*w)
	return w, nil
}

func (s *dashboardService) UpdateWidget(ctx context.Context, widgetID string, req dto.UpdateWidgetRequest) (*models.Widget, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errs.NewValidationError(err.Error())
	}
	existing, err := s.store.Get(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	ep, symbol, err := s.checkBinding(req.Provider, req.Endpoint, req.Symbol)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultWidgetName(ep, symbol)
	}

	updated := &models.Widget{
		WidgetID:               existing.WidgetID,
		Name:                   name,
		Provider:               req.Provider,
		Endpoint:               req.Endpoint,
		Symbol:                 symbol,
		SelectedFields:         req.SelectedFields,
		RefreshIntervalSeconds: req.RefreshIntervalSeconds,
		DisplayMode:            req.DisplayMode,
		Position:               existing.Position,
		CreatedAt:              existing.CreatedAt,
	}
	if err := s.store.Update(ctx, updated); err != nil {
		return nil, err
	}

	identityChanged := existing.Provider != updated.Provider ||
		existing.Endpoint != updated.Endpoint ||
		existing.Symbol != updated.Symbol

	switch {
	case identityChanged:
		// new data source: restart the loop, with an immediate fetch
		s.sched.Register(*updated)
	case existing.RefreshIntervalSeconds != updated.RefreshIntervalSeconds:
		// same source, new pace: existing data stays untouched
		interval := time.Duration(updated.RefreshIntervalSeconds) * time.Second
		if !s.sched.Reschedule(updated.WidgetID, interval) {
			s.sched.Register(*updated)
		}
	}
	return updated, nil
}

func (s *dashboardService) DeleteWidget(ctx context.Context, widgetID string) error {
	if _, err := s.store.Get(ctx, widgetID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, widgetID); err != nil {
		return err
	}
	s.sched.Cancel(widgetID)
	return nil
}

func (s *dashboardService) ReorderWidgets(ctx context.Context, req dto.ReorderWidgetsRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return errs.NewValidationError(err.Error())
	}
	positions := make(map[string]int, len(req.WidgetOrder))
	for _, wp := range req.WidgetOrder {
		if wp.WidgetID == "" || wp.Position < 1 {
			return errs.NewValidationError("widget order entries need a widgetId and a positive position")
		}
		if _, dup := positions[wp.WidgetID]; dup {
			return errs.NewValidationError("duplicate widgetId in widget order: " + wp.WidgetID)
		}
		positions[wp.WidgetID] = wp.Position
	}
	return s.store.BulkUpdatePositions(ctx, positions)
}

// GetWidgetData binds a widget's selected fields against its latest
// payload. A widget whose first fetch has not landed yet reports loading
// with every field displayed as N/A.
func (s *dashboardService) GetWidgetData(ctx context.Context, widgetID string) (dto.WidgetDataResponse, error) {
	w, err := s.store.Get(ctx, widgetID)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	state, _ := s.states.Get(widgetID)

	resolved := fields.ResolveSelected(state.Data, w.SelectedFields)
	bound := make([]dto.BoundField, len(resolved))
	for i, fv := range resolved {
		bound[i] = dto.BoundField{
			Path:    fv.Path,
			Label:   fv.Label,
			Value:   fv.Value,
			Display: displayValue(fv),
		}
	}

	return dto.WidgetDataResponse{
		WidgetID:          w.WidgetID,
		Fields:            bound,
		IsLoading:         state.IsLoading,
		Error:             state.Error,
		LastUpdated:       state.LastUpdated,
		LastSuccess:       state.LastSuccess,
		ServedViaFallback: state.ServedViaFallback,
	}, nil
}

// checkBinding verifies the provider/endpoint pair exists in the catalog and
// that a symbol is present when the endpoint needs one. Returns the endpoint
// info and the normalized symbol.
func (s *dashboardService) checkBinding(provider dto.Provider, endpoint, symbol string) (dto.EndpointInfo, string, error) {
	ep, ok := s.catalog.Endpoint(provider, endpoint)
	if !ok {
		return dto.EndpointInfo{}, "", errs.NewValidationError(
			fmt.Sprintf("unknown endpoint %q for provider %q", endpoint, provider))
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if ep.RequiresSymbol && symbol == "" {
		return dto.EndpointInfo{}, "", errs.NewSymbolRequiredError(endpoint)
	}
	if !ep.RequiresSymbol {
		symbol = ""
	}
	return ep, symbol, nil
}

func defaultWidgetName(ep dto.EndpointInfo, symbol string) string {
	if symbol == "" {
		return ep.Label
	}
	return ep.Label + " (" + symbol + ")"
}

// displayValue renders one resolved field for card and table views. Absent
// paths and null values read N/A rather than erroring the whole widget.
func displayValue(fv fields.FieldValue) string {
	if !fv.Present || fv.Value == nil {
		return "N/A"
	}
	switch v := fv.Value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}
