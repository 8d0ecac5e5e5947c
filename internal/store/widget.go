package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"finboard/internal/errs"
	"finboard/internal/models"
)

const widgetKeyPrefix = "widget:"

type kvWidgetStore struct {
	kv KV
}

// NewKVWidgetStore persists widgets as JSON documents in a KV store. It is
// the default store when no Firestore project is configured.
func NewKVWidgetStore(kv KV) *kvWidgetStore {
	return &kvWidgetStore{kv: kv}
}

func widgetKey(widgetID string) string { return widgetKeyPrefix + widgetID }

func (s *kvWidgetStore) Create(ctx context.Context, w *models.Widget) error {
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	return s.put(ctx, "create", w)
}

func (s *kvWidgetStore) Get(ctx context.Context, widgetID string) (*models.Widget, error) {
	raw, ok, err := s.kv.Get(ctx, widgetKey(widgetID))
	if err != nil {
		return nil, errs.NewStoreError("read", "failed to get widget", err)
	}
	if !ok {
		return nil, errs.NewNotFoundError("widget not found")
	}
	var w models.Widget
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errs.NewStoreError("read", "failed to parse widget data", err)
	}
	return &w, nil
}

func (s *kvWidgetStore) List(ctx context.Context) ([]*models.Widget, error) {
	raws, err := s.kv.List(ctx, widgetKeyPrefix)
	if err != nil {
		return nil, errs.NewStoreError("read", "failed to list widgets", err)
	}
	widgets := make([]*models.Widget, 0, len(raws))
	for _, raw := range raws {
		var w models.Widget
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, errs.NewStoreError("read", "failed to parse widget data", err)
		}
		widgets = append(widgets, &w)
	}
	sort.Slice(widgets, func(i, j int) bool {
		if widgets[i].Position != widgets[j].Position {
			return widgets[i].Position < widgets[j].Position
		}
		return widgets[i].WidgetID < widgets[j].WidgetID
	})
	return widgets, nil
}

func (s *kvWidgetStore) Update(ctx context.Context, w *models.Widget) error {
	if _, err := s.Get(ctx, w.WidgetID); err != nil {
		return err
	}
	w.UpdatedAt = time.Now()
	return s.put(ctx, "update", w)
}

func (s *kvWidgetStore) Delete(ctx context.Context, widgetID string) error {
	if err := s.kv.Delete(ctx, widgetKey(widgetID)); err != nil {
		return errs.NewStoreError("delete", "failed to delete widget", err)
	}
	return nil
}

func (s *kvWidgetStore) Count(ctx context.Context) (int, error) {
	raws, err := s.kv.List(ctx, widgetKeyPrefix)
	if err != nil {
		return 0, errs.NewStoreError("read", "failed to count widgets", err)
	}
	return len(raws), nil
}

func (s *kvWidgetStore) BulkUpdatePositions(ctx context.Context, positions map[string]int) error {
	now := time.Now()
	for widgetID, pos := range positions {
		w, err := s.Get(ctx, widgetID)
		if err != nil {
			return err
		}
		w.Position = pos
		w.UpdatedAt = now
		if err := s.put(ctx, "update", w); err != nil {
			return err
		}
	}
	return nil
}

func (s *kvWidgetStore) put(ctx context.Context, op string, w *models.Widget) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return errs.NewStoreError(op, "failed to encode widget", err)
	}
	if err := s.kv.Set(ctx, widgetKey(w.WidgetID), raw); err != nil {
		return errs.NewStoreError(op, "failed to write widget", err)
	}
	return nil
}
