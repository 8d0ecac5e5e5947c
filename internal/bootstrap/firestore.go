package bootstrap

import (
	"context"

	"cloud.google.com/go/firestore"
)

// connectFirestore returns a nil client when no project id is configured.
// Widget persistence then falls back to the in-memory store.
func connectFirestore(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, nil
	}
	return firestore.NewClient(ctx, projectID)
}
