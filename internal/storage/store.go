// Package storage is the thin adapter between the pipeline and the object
// store. The pipeline only ever needs list, head, get, and put over
// path-like keys; everything else about the store is opaque.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("storage: object not found")

// ObjectInfo is the metadata returned by Head and List.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is the blob access surface the pipeline depends on.
type Store interface {
	// Get returns the full content of the object at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes data to key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Head returns metadata for the object at key, or ErrNotFound.
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// List returns metadata for all objects whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// Exists reports whether an object is present at key.
func Exists(ctx context.Context, s Store, key string) (bool, error) {
	_, err := s.Head(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Append adds a line to a text object, creating it if absent. Built on
// get+put, so it inherits the store's last-writer-wins semantics.
func Append(ctx context.Context, s Store, key string, line string) error {
	existing, err := s.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	data := append(existing, []byte(line+"\n")...)
	return s.Put(ctx, key, data, "text/plain; charset=utf-8")
}
