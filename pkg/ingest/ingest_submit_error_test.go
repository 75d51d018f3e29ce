package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/japaniel/livepeek/pkg/augment"
	"github.com/japaniel/livepeek/pkg/feed"
)

// failingPool always returns an error on Submit to simulate producer error.
type failingPool struct{ closed bool }

func (f *failingPool) Start(ctx context.Context) {}
func (f *failingPool) Submit(job Job) error      { return errors.New("submit failed") }
func (f *failingPool) SubmitCtx(ctx context.Context, job Job) error {
	return errors.New("submit failed")
}
func (f *failingPool) Close() { f.closed = true }

func TestIngestHandlesSubmitErrorClosesResultCh(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()

	posts := make([]feed.Post, 10)
	for i := range posts {
		posts[i] = feed.Post{Title: "テスト"}
	}

	pool := &failingPool{}
	ingester := NewIngester(conn, composer(augment.Generous), nil)
	// Inject failing pool so first Submit() returns an error
	ingester.PoolFactory = func(workers, queue int) WorkerPoolInterface { return pool }

	// Run ingest and expect it to return quickly with the submit error
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := ingester.Ingest(ctx, posts)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected submit error, got nil")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Ingest hung until the deadline: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Ingest did not return after a submit error")
	}
	if !pool.closed {
		t.Errorf("pool was not closed")
	}
}

func TestIngestCommentsSubmitError(t *testing.T) {
	ingester := NewIngester(nil, nil, composer(augment.Sparse))
	ingester.PoolFactory = func(workers, queue int) WorkerPoolInterface { return &failingPool{} }

	if _, err := ingester.IngestComments(context.Background(), []feed.Comment{{Body: "東京"}}); err == nil {
		t.Fatalf("expected submit error")
	}
}
