package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alcyxob/plan-engine/internal/logger"
)

// ExportResult points at an uploaded plan export.
type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Exporter writes JSON documents to object storage and hands out presigned
// download links for them.
type Exporter struct {
	files   FileStorage
	expires time.Duration
	log     *logger.Logger
}

func NewExporter(files FileStorage, expires time.Duration, log *logger.Logger) *Exporter {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	return &Exporter{files: files, expires: expires, log: log.With("component", "Exporter")}
}

// ExportKey is the object key of one export. Every export gets a new key.
func ExportKey(userID string) string {
	return fmt.Sprintf("exports/%s/%s.json", userID, uuid.NewString())
}

// Export uploads doc as JSON and returns a download link valid until ExpiresAt.
func (e *Exporter) Export(ctx context.Context, userID string, doc any) (*ExportResult, error) {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	key := ExportKey(userID)
	if err := e.files.PutObject(ctx, key, "application/json", body); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	url, err := e.files.GeneratePresignedDownloadURL(ctx, key, e.expires)
	if err != nil {
		if delErr := e.files.DeleteObject(ctx, key); delErr != nil {
			e.log.Warn("failed to remove unreachable export", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("presign export: %w", err)
	}
	e.log.Info("plan exported", "user_id", userID, "key", key, "bytes", len(body))
	return &ExportResult{Key: key, URL: url, ExpiresAt: time.Now().UTC().Add(e.expires)}, nil
}
