package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vine-io/flowgen/api"
)

func TestWatch(t *testing.T) {
	delay := WatchDelay
	WatchDelay = 20 * time.Millisecond
	defer func() { WatchDelay = delay }()

	dir := t.TempDir()
	runs := make(chan struct{}, 16)
	p := NewProject("watch")
	_, _ = p.Register("generate", func(ctx context.Context) error {
		runs <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.TODO())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, p, "generate", dir) }()

	wait := func(msg string) bool {
		select {
		case <-runs:
			return true
		case <-time.After(5 * time.Second):
			t.Errorf("timeout waiting for %s", msg)
			return false
		}
	}
	if !wait("initial build") {
		cancel()
		return
	}

	nested := filepath.Join(dir, "orders")
	if !assert.NoError(t, os.MkdirAll(nested, 0o755)) {
		cancel()
		return
	}
	// give the watcher time to pick up the new directory
	time.Sleep(100 * time.Millisecond)
	if !assert.NoError(t, os.WriteFile(filepath.Join(nested, "order.bpmn"), []byte("<definitions/>"), 0o644)) {
		cancel()
		return
	}
	wait("rebuild")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Error("watch did not stop")
	}
}

func TestWatchUnknownTask(t *testing.T) {
	err := Watch(context.TODO(), NewProject("watch"), "missing", t.TempDir())
	assert.True(t, api.IsCode(err, api.StatusNotFound))
}
