package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockWorker is a test implementation of the Worker interface
// that tracks how many times Run was called.
type mockWorker struct {
	mu       sync.Mutex
	runCount int
}

func (m *mockWorker) Run(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCount++
}

func (m *mockWorker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runCount
}

func TestWorkers_Run_AllWorkersAreCalled(t *testing.T) {
	w1 := &mockWorker{}
	w2 := &mockWorker{}
	w3 := &mockWorker{}

	ws := NewWorkers(w1, w2, w3)
	ws.Run(context.Background())

	for i, w := range []*mockWorker{w1, w2, w3} {
		assert.Equal(t, 1, w.count(), "worker[%d]", i)
	}
}

func TestWorkers_Run_Empty(t *testing.T) {
	ws := NewWorkers()

	// Should not panic on empty workers list
	ws.Run(context.Background())
}

// blockingWorker stops only when its context is cancelled.
type blockingWorker struct {
	stopped chan struct{}
}

func (b *blockingWorker) Run(ctx context.Context) {
	<-ctx.Done()
	close(b.stopped)
}

func TestWorkers_Run_WaitsForCancellation(t *testing.T) {
	w := &blockingWorker{stopped: make(chan struct{})}
	ws := NewWorkers(w)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		ws.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Run returned before the context was cancelled")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	<-w.stopped
}
