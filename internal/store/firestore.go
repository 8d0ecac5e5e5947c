package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"finboard/internal/errs"
	"finboard/internal/models"
	"finboard/pkg/logger"
)

type firestoreWidgetStore struct {
	client *firestore.Client
}

// NewFirestoreWidgetStore persists widgets in a Firestore collection so the
// dashboard survives restarts and redeploys.
func NewFirestoreWidgetStore(client *firestore.Client) *firestoreWidgetStore {
	return &firestoreWidgetStore{client: client}
}

func (s *firestoreWidgetStore) collection() *firestore.CollectionRef {
	return s.client.Collection("widgets")
}

func (s *firestoreWidgetStore) Create(ctx context.Context, w *models.Widget) error {
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	_, err := s.collection().Doc(w.WidgetID).Set(ctx, w)
	if err != nil {
		return errs.NewStoreError("create", "failed to create widget", err)
	}
	return nil
}

func (s *firestoreWidgetStore) Get(ctx context.Context, widgetID string) (*models.Widget, error) {
	doc, err := s.collection().Doc(widgetID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("widget not found")
		}
		return nil, errs.NewStoreError("read", "failed to get widget", err)
	}
	var w models.Widget
	if err := doc.DataTo(&w); err != nil {
		return nil, errs.NewStoreError("read", "failed to parse widget data", err)
	}
	return &w, nil
}

func (s *firestoreWidgetStore) List(ctx context.Context) ([]*models.Widget, error) {
	docs, err := s.collection().OrderBy("position", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewStoreError("read", "failed to list widgets", err)
	}
	widgets := make([]*models.Widget, 0, len(docs))
	for _, d := range docs {
		var w models.Widget
		if err := d.DataTo(&w); err != nil {
			return nil, errs.NewStoreError("read", "failed to parse widget data", err)
		}
		widgets = append(widgets, &w)
	}
	return widgets, nil
}

func (s *firestoreWidgetStore) Update(ctx context.Context, w *models.Widget) error {
	w.UpdatedAt = time.Now()
	_, err := s.collection().Doc(w.WidgetID).Set(ctx, w)
	if err != nil {
		return errs.NewStoreError("update", "failed to update widget", err)
	}
	return nil
}

func (s *firestoreWidgetStore) Delete(ctx context.Context, widgetID string) error {
	_, err := s.collection().Doc(widgetID).Delete(ctx)
	if err != nil {
		return errs.NewStoreError("delete", "failed to delete widget", err)
	}
	return nil
}

func (s *firestoreWidgetStore) Count(ctx context.Context) (int, error) {
	docs, err := s.collection().Documents(ctx).GetAll()
	if err != nil {
		return 0, errs.NewStoreError("read", "failed to count widgets", err)
	}
	return len(docs), nil
}

type bulkPositionJob struct {
	widgetID string
	job      *firestore.BulkWriterJob
}

func (s *firestoreWidgetStore) BulkUpdatePositions(ctx context.Context, positions map[string]int) error {
	log := logger.FromContext(ctx)
	bw := s.client.BulkWriter(ctx)
	coll := s.collection()
	now := time.Now()

	jobs := make([]bulkPositionJob, 0, len(positions))
	for widgetID, pos := range positions {
		ref := coll.Doc(widgetID)
		j, err := bw.Update(ref, []firestore.Update{
			{Path: "position", Value: pos},
			{Path: "updatedAt", Value: now},
		})
		if err != nil {
			return errs.NewStoreError("update", "failed to schedule position update", err)
		}
		jobs = append(jobs, bulkPositionJob{widgetID: widgetID, job: j})
	}
	bw.End()

	for _, entry := range jobs {
		if _, err := entry.job.Results(); err != nil {
			log.Error("failed to update widget position", "widget_id", entry.widgetID, "error", err)
			return errs.NewStoreError("update", "failed to update widget position", err)
		}
	}
	return nil
}
