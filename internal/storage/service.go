// Package storage uploads rendered charts and POI photos to the cloud file
// store and records the public URLs.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/db"

	"github.com/google/uuid"
)

// UploadFunc pushes bytes to the external file store and returns a public
// URL. The client itself is a collaborator; only its signature matters here.
type UploadFunc func(ctx context.Context, data []byte, path string) (string, error)

type Service struct {
	db     db.Querier
	upload UploadFunc
}

func NewService(db db.Querier, upload UploadFunc) *Service {
	if upload == nil {
		upload = func(_ context.Context, _ []byte, path string) (string, error) {
			return "https://storage.example/" + path, nil
		}
	}
	return &Service{db: db, upload: upload}
}

// SaveImage uploads an image for a journey day and records the object. The
// row is bookkeeping, not part of the day's transaction; losing it on a
// failed day only orphans an upload.
func (s *Service) SaveImage(ctx context.Context, journeyID string, date time.Time, kind string, data []byte) (string, error) {
	path := fmt.Sprintf("journeys/%s/%s_%s.png", journeyID, date.Format("2006-01-02"), kind)
	url, err := s.upload(ctx, data, path)
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, journey_id, kind, url, recorded_for)
		VALUES ($1,$2,$3,$4,$5)
	`, uuid.NewString(), journeyID, kind, url, date)
	if err != nil {
		return "", err
	}
	return url, nil
}
