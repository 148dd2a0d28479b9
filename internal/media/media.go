// Package media adapts object storage and image labeling providers to the
// narrow interfaces the listing services consume.
package media

import (
	"context"
	"errors"
)

// ErrLabelingUnavailable is returned when no labeling provider is configured.
var ErrLabelingUnavailable = errors.New("image labeling is not configured")

// ObjectStore keeps uploaded images and serves them at a public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// Image identifies a stored image. Labelers that can read the store directly
// use Key; the others use Bytes.
type Image struct {
	Key   string
	Bytes []byte
}

// Labeler returns the names of objects and concepts detected in an image.
type Labeler interface {
	DetectLabels(ctx context.Context, img Image, maxLabels int32, minConfidence float32) ([]string, error)
}

// NoLabeler fails every request with ErrLabelingUnavailable.
type NoLabeler struct{}

func (NoLabeler) DetectLabels(context.Context, Image, int32, float32) ([]string, error) {
	return nil, ErrLabelingUnavailable
}
