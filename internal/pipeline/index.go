package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meetingpipe/meetingpipe/internal/models"
	"github.com/meetingpipe/meetingpipe/internal/storage"
)

// Index maintains the cross-file processing index via read-modify-write.
//
// The mutex serializes updates within one invocation, which is what makes
// concurrent per-file fan-out safe. Across invocations the write is still
// last-writer-wins; that gap is accepted, matching the storage layer's
// semantics, rather than papered over with a lock the store cannot provide.
type Index struct {
	mu    sync.Mutex
	store storage.Store
	key   string
	now   func() time.Time
}

// NewIndex creates an index manager persisting to key.
func NewIndex(store storage.Store, key string) *Index {
	return &Index{store: store, key: key, now: time.Now}
}

// Update merges one entry into the persisted index. A missing or corrupt
// index document is replaced with a fresh one rather than failing the run.
func (ix *Index) Update(ctx context.Context, base string, entry models.IndexEntry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var index models.ProcessingIndex

	data, err := ix.store.Get(ctx, ix.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// first entry ever
	case err != nil:
		return fmt.Errorf("reading index: %w", err)
	default:
		if err := json.Unmarshal(data, &index); err != nil {
			slog.Warn("index document corrupt, rebuilding", "key", ix.key, "error", err)
			index = models.ProcessingIndex{}
		}
	}

	index.Set(base, entry)
	index.UpdatedAt = ix.now()

	encoded, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := ix.store.Put(ctx, ix.key, encoded, "application/json"); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}
