package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"

	"finboard/internal/config"
	"finboard/pkg/logger"
)

type Bootstrap struct {
	Log       *slog.Logger
	Firestore *firestore.Client
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel)

	bs.Firestore, err = connectFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	return bs, nil
}

func (b *Bootstrap) Close() {
	if b.Firestore != nil {
		b.Firestore.Close()
	}
}
