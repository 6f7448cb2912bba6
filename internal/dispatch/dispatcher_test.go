package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meetingpipe/meetingpipe/internal/budget"
	"github.com/meetingpipe/meetingpipe/internal/models"
	"github.com/meetingpipe/meetingpipe/internal/storage"
)

// recordingProcessor returns a canned result per key and tracks concurrency.
type recordingProcessor struct {
	mu        sync.Mutex
	processed []string
	failing   map[string]bool

	active    int
	maxActive int
	delay     time.Duration
}

func (p *recordingProcessor) ProcessFile(ctx context.Context, key string, b budget.Budget) models.FileResult {
	p.mu.Lock()
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.processed = append(p.processed, key)
	p.mu.Unlock()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	p.active--
	failing := p.failing[key]
	p.mu.Unlock()

	if failing {
		return models.FileResult{File: key, Status: "error", Error: "processing failed"}
	}
	return models.FileResult{File: key, Status: "success", OutputFolder: "output/x/"}
}

func dispatcherConfig(workers int) Config {
	return Config{
		InputPrefix: "recordings/",
		Extensions:  []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".mp4", ".mov"},
		Workers:     workers,
	}
}

func record(key string) Record {
	return Record{
		EventType: "blob_created",
		Storage:   StorageRecord{Object: ObjectRef{Key: key}},
	}
}

func decodeBatch(t *testing.T, resp models.Response) models.BatchBody {
	t.Helper()
	var body models.BatchBody
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body
}

func TestHandleBatch(t *testing.T) {
	processor := &recordingProcessor{failing: map[string]bool{"recordings/bad.mp3": true}}
	d := New(processor, storage.NewMemStore(), dispatcherConfig(1))

	payload := Payload{Records: []Record{
		record("recordings/good.mp3"),
		record("recordings/bad.mp3"),
		record("recordings/readme.txt"),
		record("uploads/elsewhere.mp3"),
	}}

	resp := d.Handle(context.Background(), payload, budget.Static(15*time.Minute))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBatch(t, resp)
	require.Equal(t, 2, body.Summary.TotalFiles)
	require.Equal(t, 1, body.Summary.Successful)
	require.Equal(t, 1, body.Summary.Failed)
	require.Len(t, body.Results, 2)
	require.Equal(t, "recordings/good.mp3", body.Results[0].File)
	require.Equal(t, "recordings/bad.mp3", body.Results[1].File)

	// filtered keys never reach the processor
	require.ElementsMatch(t, []string{"recordings/good.mp3", "recordings/bad.mp3"}, processor.processed)
}

func TestHandleNoMatchingRecords(t *testing.T) {
	processor := &recordingProcessor{}
	d := New(processor, storage.NewMemStore(), dispatcherConfig(1))

	payload := Payload{Records: []Record{
		record("recordings/readme.txt"),
		record("backups/old.mp3"),
	}}

	resp := d.Handle(context.Background(), payload, budget.Static(time.Minute))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBatch(t, resp)
	require.Contains(t, body.Message, "no records matched")
	require.Empty(t, body.Results)
	require.Empty(t, processor.processed)
}

func TestHandleEmptyPayloadFallsBackToManual(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.Put(ctx, "recordings/only.mp3", []byte("x"), ""))

	processor := &recordingProcessor{}
	d := New(processor, store, dispatcherConfig(1))

	resp := d.Handle(ctx, Payload{}, budget.Static(time.Minute))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.ManualBody
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Equal(t, "manual", body.Mode)
	require.Equal(t, []string{"recordings/only.mp3"}, processor.processed)
}

func TestHandleBatchConcurrent(t *testing.T) {
	processor := &recordingProcessor{delay: 20 * time.Millisecond}
	d := New(processor, storage.NewMemStore(), dispatcherConfig(3))

	payload := Payload{Records: []Record{
		record("recordings/a.mp3"),
		record("recordings/b.mp3"),
		record("recordings/c.mp3"),
		record("recordings/d.mp3"),
		record("recordings/e.mp3"),
		record("recordings/f.mp3"),
	}}

	resp := d.Handle(context.Background(), payload, budget.Static(time.Minute))
	body := decodeBatch(t, resp)

	require.Equal(t, 6, body.Summary.TotalFiles)
	require.Equal(t, 6, body.Summary.Successful)

	// results keep payload order regardless of completion order
	for i, key := range []string{"recordings/a.mp3", "recordings/b.mp3", "recordings/c.mp3",
		"recordings/d.mp3", "recordings/e.mp3", "recordings/f.mp3"} {
		require.Equal(t, key, body.Results[i].File)
	}

	require.LessOrEqual(t, processor.maxActive, 3, "worker limit exceeded")
	require.Greater(t, processor.maxActive, 1, "expected some parallelism")
}

func TestManualPicksNewest(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.Put(ctx, "recordings/older.mp3", []byte("x"), ""))
	require.NoError(t, store.Put(ctx, "recordings/newest.mp3", []byte("x"), ""))
	require.NoError(t, store.Put(ctx, "recordings/notes.txt", []byte("x"), ""))
	store.SetModified("recordings/older.mp3", time.Date(2025, 9, 25, 10, 0, 0, 0, time.UTC))
	store.SetModified("recordings/newest.mp3", time.Date(2025, 9, 26, 10, 0, 0, 0, time.UTC))
	store.SetModified("recordings/notes.txt", time.Date(2025, 9, 27, 10, 0, 0, 0, time.UTC))

	processor := &recordingProcessor{}
	d := New(processor, store, dispatcherConfig(1))

	resp := d.Manual(ctx, budget.Static(time.Minute))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"recordings/newest.mp3"}, processor.processed,
		"must pick the newest accepted file, not the newest overall")
}

func TestManualNoCandidates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.Put(ctx, "recordings/notes.txt", []byte("x"), ""))

	d := New(&recordingProcessor{}, store, dispatcherConfig(1))

	resp := d.Manual(ctx, budget.Static(time.Minute))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body models.ErrorBody
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Contains(t, body.Message, "no audio files found")
}

func TestAccepted(t *testing.T) {
	d := New(&recordingProcessor{}, storage.NewMemStore(), dispatcherConfig(1))

	tests := []struct {
		key  string
		want bool
	}{
		{"recordings/a.mp3", true},
		{"recordings/deep/nested/a.wav", true},
		{"recordings/A.MOV", true},
		{"recordings/a.txt", false},
		{"uploads/a.mp3", false},
		{"recordings/", false},
	}
	for _, tt := range tests {
		if got := d.accepted(tt.key); got != tt.want {
			t.Errorf("accepted(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
