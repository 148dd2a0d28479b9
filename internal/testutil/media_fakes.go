package testutil

import (
	"context"
	"sync"

	"github.com/Baaaki/pet-adoption/internal/media"
)

// FakeObjectStore keeps objects in memory
type FakeObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	PutErr  error
	Deleted []string
	// Block makes Put wait for ctx to finish
	Block bool
}

func NewFakeObjectStore() *FakeObjectStore {
	return &FakeObjectStore{Objects: map[string][]byte{}}
}

func (f *FakeObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if f.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.PutErr != nil {
		return "", f.PutErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Objects[key] = body
	return "https://cdn.test/" + key, nil
}

func (f *FakeObjectStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Objects, key)
	f.Deleted = append(f.Deleted, key)
	return nil
}

func (f *FakeObjectStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Objects)
}

// FakeLabeler returns fixed labels and records the last request
type FakeLabeler struct {
	Labels        []string
	Err           error
	LastImage     media.Image
	MaxLabels     int32
	MinConfidence float32
}

func (f *FakeLabeler) DetectLabels(ctx context.Context, img media.Image, maxLabels int32, minConfidence float32) ([]string, error) {
	f.LastImage = img
	f.MaxLabels = maxLabels
	f.MinConfidence = minConfidence
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Labels, nil
}
