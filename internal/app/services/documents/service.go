package documents

import (
	"context"

	"github.com/scholarbridge/awards/internal/app/storage"
	"github.com/scholarbridge/awards/pkg/logger"
)

// Service fronts document storage for the fetch endpoint. Content validation
// (PDF parsing, OCR) is out of scope; files are opaque.
type Service struct {
	store storage.DocumentStore
	log   *logger.Logger
}

// New constructs a documents service.
func New(store storage.DocumentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("documents")
	}
	return &Service{store: store, log: log}
}

// Fetch returns stored file content by its opaque reference.
func (s *Service) Fetch(ctx context.Context, fileID string) (storage.StoredDocument, error) {
	return s.store.GetDocument(ctx, fileID)
}
