package service

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Baaaki/pet-adoption/internal/apperror"
	"github.com/Baaaki/pet-adoption/internal/media"
	"github.com/Baaaki/pet-adoption/internal/metrics"
	"github.com/Baaaki/pet-adoption/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	labelMinConfidence float32 = 75
	labelMaxCount      int32   = 10
	maxFilenameLength          = 100
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ImageUpload is an image received from a client.
type ImageUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// StoredImage is where an ingested image ended up.
type StoredImage struct {
	Key string `json:"key"`
	URL string `json:"imageUrl"`
}

// MediaService stores uploaded images and asks the labeler about them. Every
// call to a provider is bounded by timeout.
type MediaService struct {
	store   media.ObjectStore
	labeler media.Labeler
	timeout time.Duration
}

func NewMediaService(store media.ObjectStore, labeler media.Labeler, timeout time.Duration) *MediaService {
	if labeler == nil {
		labeler = media.NoLabeler{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MediaService{
		store:   store,
		labeler: labeler,
		timeout: timeout,
	}
}

// Ingest uploads the image under a fresh key and returns its public URL.
func (s *MediaService) Ingest(ctx context.Context, img ImageUpload) (*StoredImage, error) {
	if len(img.Data) == 0 {
		return nil, apperror.Validation("image file is empty")
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return nil, apperror.Validation("only image uploads are allowed")
	}

	key := StorageKey(img.Filename)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	url, err := s.store.Put(ctx, key, img.Data, img.ContentType)
	metrics.ObserveMedia("upload", err)
	if err != nil {
		logger.Log.Error("Image upload failed",
			zap.String("key", key),
			zap.Int("size", len(img.Data)),
			zap.Error(err),
		)
		return nil, apperror.Wrap(apperror.KindUploadFailed, "image upload failed", err)
	}

	logger.Log.Info("Image uploaded",
		zap.String("key", key),
		zap.Int("size", len(img.Data)),
		zap.Duration("duration", time.Since(start)),
	)
	return &StoredImage{Key: key, URL: url}, nil
}

// Analyze returns at most ten labels detected with at least 75% confidence.
// Failures are never swallowed here.
func (s *MediaService) Analyze(ctx context.Context, stored *StoredImage, data []byte) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	labels, err := s.labeler.DetectLabels(ctx, media.Image{Key: stored.Key, Bytes: data}, labelMaxCount, labelMinConfidence)
	metrics.ObserveMedia("analyze", err)
	if err != nil {
		logger.Log.Error("Image analysis failed",
			zap.String("key", stored.Key),
			zap.Error(err),
		)
		return nil, apperror.Wrap(apperror.KindAnalysisFailed, "image analysis failed", err)
	}
	if labels == nil {
		labels = []string{}
	}
	if len(labels) > int(labelMaxCount) {
		labels = labels[:labelMaxCount]
	}
	return labels, nil
}

// UploadAndAnalyze ingests the image and labels it. If analysis fails the
// uploaded object is removed again.
func (s *MediaService) UploadAndAnalyze(ctx context.Context, img ImageUpload) (*StoredImage, []string, error) {
	stored, err := s.Ingest(ctx, img)
	if err != nil {
		return nil, nil, err
	}

	labels, err := s.Analyze(ctx, stored, img.Data)
	if err != nil {
		s.Discard(ctx, stored)
		return nil, nil, err
	}
	return stored, labels, nil
}

// Discard deletes an uploaded object on a best-effort basis.
func (s *MediaService) Discard(ctx context.Context, stored *StoredImage) {
	if stored == nil {
		return
	}
	// The request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	err := s.store.Delete(ctx, stored.Key)
	metrics.ObserveMedia("delete", err)
	if err != nil {
		logger.Log.Warn("Failed to discard uploaded image",
			zap.String("key", stored.Key),
			zap.Error(err),
		)
	}
}

// StorageKey builds a collision resistant key that keeps a readable part of
// the original filename.
func StorageKey(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if len(base) > maxFilenameLength {
		base = base[len(base)-maxFilenameLength:]
	}
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("pets/%s-%s", uuid.NewString(), base)
}
