package services

import (
	"context"
	"testing"
	"time"

	"finboard/internal/dto"
	"finboard/internal/errs"
	"finboard/internal/models"
	"finboard/pkg/helpers"
)

type fakeWidgetStore struct {
	widgets   map[string]*models.Widget
	positions map[string]int
}

func newFakeWidgetStore() *fakeWidgetStore {
	return &fakeWidgetStore{widgets: make(map[string]*models.Widget)}
}

func (f *fakeWidgetStore) Create(_ context.Context, w *models.Widget) error {
	cp := *w
	f.widgets[w.WidgetID] = &cp
	return nil
}

func (f *fakeWidgetStore) Get(_ context.Context, widgetID string) (*models.Widget, error) {
	w, ok := f.widgets[widgetID]
	if !ok {
		return nil, errs.NewNotFoundError("widget not found")
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWidgetStore) List(_ context.Context) ([]*models.Widget, error) {
	out := make([]*models.Widget, 0, len(f.widgets))
	for _, w := range f.widgets {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeWidgetStore) Update(_ context.Context, w *models.Widget) error {
	if _, ok := f.widgets[w.WidgetID]; !ok {
		return errs.NewNotFoundError("widget not found")
	}
	cp := *w
	f.widgets[w.WidgetID] = &cp
	return nil
}

func (f *fakeWidgetStore) Delete(_ context.Context, widgetID string) error {
	delete(f.widgets, widgetID)
	return nil
}

func (f *fakeWidgetStore) Count(_ context.Context) (int, error) {
	return len(f.widgets), nil
}

func (f *fakeWidgetStore) BulkUpdatePositions(_ context.Context, positions map[string]int) error {
	f.positions = positions
	return nil
}

type fakeScheduler struct {
	registered  []models.Widget
	rescheduled map[string]time.Duration
	cancelled   []string
	noLoop      bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{rescheduled: make(map[string]time.Duration)}
}

func (f *fakeScheduler) Register(w models.Widget) { f.registered = append(f.registered, w) }
func (f *fakeScheduler) Reschedule(widgetID string, interval time.Duration) bool {
	if f.noLoop {
		return false
	}
	f.rescheduled[widgetID] = interval
	return true
}
func (f *fakeScheduler) Cancel(widgetID string) { f.cancelled = append(f.cancelled, widgetID) }

type fakeStates map[string]models.WidgetRuntimeState

func (f fakeStates) Get(widgetID string) (models.WidgetRuntimeState, bool) {
	st, ok := f[widgetID]
	return st, ok
}

type fakeCatalog map[string]dto.EndpointInfo

func (f fakeCatalog) Endpoint(provider dto.Provider, endpoint string) (dto.EndpointInfo, bool) {
	ep, ok := f[string(provider)+"/"+endpoint]
	return ep, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"alpha-vantage/GLOBAL_QUOTE": {
			ID: "GLOBAL_QUOTE", Label: "Global Quote", RequiresSymbol: true,
			Shape: dto.ShapeFlatObject, Volatility: dto.VolatilityQuote,
		},
		"alpha-vantage/MARKET_STATUS": {
			ID: "MARKET_STATUS", Label: "Global Market Status", RequiresSymbol: false,
			Shape: dto.ShapeArrayOfRecords, Volatility: dto.VolatilityMarket,
		},
	}
}

func createReq() dto.CreateWidgetRequest {
	return dto.CreateWidgetRequest{
		Name:                   "My Quote",
		Provider:               dto.ProviderAlphaVantage,
		Endpoint:               "GLOBAL_QUOTE",
		Symbol:                 "aapl",
		SelectedFields:         []string{"Global Quote.05. price"},
		RefreshIntervalSeconds: 30,
		DisplayMode:            dto.DisplayCard,
	}
}

func newDashboard() (*dashboardService, *fakeWidgetStore, *fakeScheduler, fakeStates) {
	store := newFakeWidgetStore()
	sched := newFakeScheduler()
	states := fakeStates{}
	svc := NewDashboardService(store, sched, states, testCatalog())
	return svc, store, sched, states
}

func TestAddWidget(t *testing.T) {
	svc, store, sched, _ := newDashboard()
	ctx := helpers.TestCtx()

	w, err := svc.AddWidget(ctx, createReq())
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	if w.WidgetID == "" {
		t.Fatal("no widget id assigned")
	}
	if w.Symbol != "AAPL" {
		t.Fatalf("symbol = %q, want normalized AAPL", w.Symbol)
	}
	if w.Position != 1 {
		t.Fatalf("position = %d, want 1", w.Position)
	}
	if _, ok := store.widgets[w.WidgetID]; !ok {
		t.Fatal("widget not persisted")
	}
	if len(sched.registered) != 1 || sched.registered[0].WidgetID != w.WidgetID {
		t.Fatalf("scheduler registrations = %+v", sched.registered)
	}

	second, err := svc.AddWidget(ctx, createReq())
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	if second.Position != 2 {
		t.Fatalf("second position = %d, want 2", second.Position)
	}
}

func TestAddWidget_DefaultName(t *testing.T) {
	svc, _, _, _ := newDashboard()

	req := createReq()
	req.Name = "  "
	w, err := svc.AddWidget(helpers.TestCtx(), req)
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	if w.Name != "Global Quote (AAPL)" {
		t.Fatalf("name = %q", w.Name)
	}
}

func TestAddWidget_Validation(t *testing.T) {
	svc, _, sched, _ := newDashboard()
	ctx := helpers.TestCtx()

	req := createReq()
	req.RefreshIntervalSeconds = 5
	if _, err := svc.AddWidget(ctx, req); err == nil {
		t.Fatal("expected error for too-short interval")
	} else if _, ok := err.(*errs.ValidationError); !ok {
		t.Fatalf("err = %T, want *errs.ValidationError", err)
	}

	req = createReq()
	req.Endpoint = "NOPE"
	if _, err := svc.AddWidget(ctx, req); err == nil {
		t.Fatal("expected error for unknown endpoint")
	} else if _, ok := err.(*errs.ValidationError); !ok {
		t.Fatalf("err = %T, want *errs.ValidationError", err)
	}

	req = createReq()
	req.Symbol = "  "
	if _, err := svc.AddWidget(ctx, req); err == nil {
		t.Fatal("expected error for missing symbol")
	} else if _, ok := err.(*errs.SymbolRequiredError); !ok {
		t.Fatalf("err = %T, want *errs.SymbolRequiredError", err)
	}

	if len(sched.registered) != 0 {
		t.Fatal("rejected widgets still registered with the scheduler")
	}
}

func TestAddWidget_SymbolFreeEndpointDropsSymbol(t *testing.T) {
	svc, _, _, _ := newDashboard()

	req := createReq()
	req.Endpoint = "MARKET_STATUS"
	req.Symbol = "AAPL" // irrelevant for a market-wide endpoint
	w, err := svc.AddWidget(helpers.TestCtx(), req)
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	if w.Symbol != "" {
		t.Fatalf("symbol = %q, want empty", w.Symbol)
	}
}

func updateReqFrom(w *models.Widget) dto.UpdateWidgetRequest {
	return dto.UpdateWidgetRequest{
		Name:                   w.Name,
		Provider:               w.Provider,
		Endpoint:               w.Endpoint,
		Symbol:                 w.Symbol,
		SelectedFields:         w.SelectedFields,
		RefreshIntervalSeconds: w.RefreshIntervalSeconds,
		DisplayMode:            w.DisplayMode,
	}
}

func TestUpdateWidget_IntervalOnlyReschedules(t *testing.T) {
	svc, _, sched, _ := newDashboard()
	ctx := helpers.TestCtx()

	w, err := svc.AddWidget(ctx, createReq())
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	sched.registered = nil

	req := updateReqFrom(w)
	req.RefreshIntervalSeconds = 60
	updated, err := svc.UpdateWidget(ctx, w.WidgetID, req)
	if err != nil {
		t.Fatalf("UpdateWidget: %v", err)
	}
	if updated.RefreshIntervalSeconds != 60 {
		t.Fatalf("interval = %d", updated.RefreshIntervalSeconds)
	}
	if len(sched.registered) != 0 {
		t.Fatal("interval change restarted the loop")
	}
	if sched.rescheduled[w.WidgetID] != 60*time.Second {
		t.Fatalf("rescheduled = %v", sched.rescheduled)
	}
}

func TestUpdateWidget_SymbolChangeReregisters(t *testing.T) {
	svc, _, sched, _ := newDashboard()
	ctx := helpers.TestCtx()

	w, err := svc.AddWidget(ctx, createReq())
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	sched.registered = nil

	req := updateReqFrom(w)
	req.Symbol = "MSFT"
	if _, err := svc.UpdateWidget(ctx, w.WidgetID, req); err != nil {
		t.Fatalf("UpdateWidget: %v", err)
	}
	if len(sched.registered) != 1 || sched.registered[0].Symbol != "MSFT" {
		t.Fatalf("registrations = %+v", sched.registered)
	}
	if len(sched.rescheduled) != 0 {
		t.Fatal("identity change used Reschedule")
	}
}

func TestUpdateWidget_FallsBackToRegisterWithoutLoop(t *testing.T) {
	svc, _, sched, _ := newDashboard()
	ctx := helpers.TestCtx()

	w, err := svc.AddWidget(ctx, createReq())
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	sched.registered = nil
	sched.noLoop = true

	req := updateReqFrom(w)
	req.RefreshIntervalSeconds = 90
	if _, err := svc.UpdateWidget(ctx, w.WidgetID, req); err != nil {
		t.Fatalf("UpdateWidget: %v", err)
	}
	if len(sched.registered) != 1 {
		t.Fatal("missing loop was not re-registered")
	}
}

func TestUpdateWidget_Missing(t *testing.T) {
	svc, _, _, _ := newDashboard()

	_, err := svc.UpdateWidget(helpers.TestCtx(), "ghost", updateReqFrom(&models.Widget{
		Provider: dto.ProviderAlphaVantage, Endpoint: "GLOBAL_QUOTE", Symbol: "AAPL",
		RefreshIntervalSeconds: 30, DisplayMode: dto.DisplayCard,
	}))
	if _, ok := err.(*errs.NotFoundError); !ok {
		t.Fatalf("err = %T(%v), want *errs.NotFoundError", err, err)
	}
}

func TestDeleteWidget(t *testing.T) {
	svc, store, sched, _ := newDashboard()
	ctx := helpers.TestCtx()

	w, err := svc.AddWidget(ctx, createReq())
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	if err := svc.DeleteWidget(ctx, w.WidgetID); err != nil {
		t.Fatalf("DeleteWidget: %v", err)
	}
	if _, ok := store.widgets[w.WidgetID]; ok {
		t.Fatal("widget still persisted")
	}
	if len(sched.cancelled) != 1 || sched.cancelled[0] != w.WidgetID {
		t.Fatalf("cancelled = %v", sched.cancelled)
	}

	err = svc.DeleteWidget(ctx, "ghost")
	if _, ok := err.(*errs.NotFoundError); !ok {
		t.Fatalf("err = %T(%v), want *errs.NotFoundError", err, err)
	}
	if len(sched.cancelled) != 1 {
		t.Fatal("missing widget triggered a cancel")
	}
}

func TestReorderWidgets(t *testing.T) {
	svc, store, _, _ := newDashboard()
	ctx := helpers.TestCtx()

	err := svc.ReorderWidgets(ctx, dto.ReorderWidgetsRequest{
		WidgetOrder: []dto.WidgetPosition{{WidgetID: "a", Position: 2}, {WidgetID: "b", Position: 1}},
	})
	if err != nil {
		t.Fatalf("ReorderWidgets: %v", err)
	}
	if store.positions["a"] != 2 || store.positions["b"] != 1 {
		t.Fatalf("positions = %v", store.positions)
	}

	err = svc.ReorderWidgets(ctx, dto.ReorderWidgetsRequest{})
	if _, ok := err.(*errs.ValidationError); !ok {
		t.Fatalf("empty order: err = %T, want *errs.ValidationError", err)
	}

	err = svc.ReorderWidgets(ctx, dto.ReorderWidgetsRequest{
		WidgetOrder: []dto.WidgetPosition{{WidgetID: "a", Position: 1}, {WidgetID: "a", Position: 2}},
	})
	if _, ok := err.(*errs.ValidationError); !ok {
		t.Fatalf("duplicate id: err = %T, want *errs.ValidationError", err)
	}
}

func TestGetWidgetData(t *testing.T) {
	svc, _, _, states := newDashboard()
	ctx := helpers.TestCtx()

	req := createReq()
	req.SelectedFields = []string{"Global Quote.05. price", "Global Quote.06. volume"}
	w, err := svc.AddWidget(ctx, req)
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}

	states[w.WidgetID] = models.WidgetRuntimeState{
		Data: map[string]any{
			"Global Quote": map[string]any{"05. price": "150.00"},
		},
		ServedViaFallback: true,
	}

	resp, err := svc.GetWidgetData(ctx, w.WidgetID)
	if err != nil {
		t.Fatalf("GetWidgetData: %v", err)
	}
	if len(resp.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(resp.Fields))
	}
	if resp.Fields[0].Display != "150.00" {
		t.Fatalf("price display = %q", resp.Fields[0].Display)
	}
	if resp.Fields[1].Display != "N/A" {
		t.Fatalf("absent field display = %q, want N/A", resp.Fields[1].Display)
	}
	if !resp.ServedViaFallback {
		t.Fatal("fallback marker lost")
	}
}

func TestGetWidgetData_NoStateYet(t *testing.T) {
	svc, _, _, _ := newDashboard()
	ctx := helpers.TestCtx()

	w, err := svc.AddWidget(ctx, createReq())
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	resp, err := svc.GetWidgetData(ctx, w.WidgetID)
	if err != nil {
		t.Fatalf("GetWidgetData: %v", err)
	}
	if len(resp.Fields) != 1 || resp.Fields[0].Display != "N/A" {
		t.Fatalf("fields = %+v", resp.Fields)
	}

	if _, err := svc.GetWidgetData(ctx, "ghost"); err == nil {
		t.Fatal("expected error for unknown widget")
	}
}

func TestStart_RegistersPersistedWidgets(t *testing.T) {
	svc, store, sched, _ := newDashboard()
	ctx := helpers.TestCtx()

	store.widgets["w1"] = &models.Widget{WidgetID: "w1", Provider: dto.ProviderAlphaVantage, Endpoint: "GLOBAL_QUOTE", Symbol: "AAPL"}
	store.widgets["w2"] = &models.Widget{WidgetID: "w2", Provider: dto.ProviderAlphaVantage, Endpoint: "MARKET_STATUS"}

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(sched.registered) != 2 {
		t.Fatalf("registered %d widgets, want 2", len(sched.registered))
	}
}
