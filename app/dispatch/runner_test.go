package dispatch

import (
	"context"
	"testing"
	"time"

	"postline/app/schedule"
)

func newTestRunner(t *testing.T, interval time.Duration) *Runner {
	t.Helper()
	store := newMemStore()
	runner, err := NewRunner(newTestDispatcher(store, &fakePublisher{id: "ext-1"}), interval)
	if err != nil {
		t.Fatalf("NewRunner returned error: %v", err)
	}
	return runner
}

func TestNewRunner_RejectsInvalidArguments(t *testing.T) {
	if _, err := NewRunner(nil, time.Second); err == nil {
		t.Error("Expected error for nil dispatcher")
	}
	store := newMemStore()
	d := newTestDispatcher(store, &fakePublisher{})
	if _, err := NewRunner(d, 0); err == nil {
		t.Error("Expected error for zero interval")
	}
}

func TestRunner_StartStop(t *testing.T) {
	runner := newTestRunner(t, time.Hour)

	if runner.IsRunning() {
		t.Error("Expected runner not running before Start")
	}
	if !runner.Start() {
		t.Error("Expected Start to return true")
	}
	if !runner.IsRunning() {
		t.Error("Expected runner running after Start")
	}
	if !runner.Stop() {
		t.Error("Expected Stop to return true")
	}
	if runner.IsRunning() {
		t.Error("Expected runner stopped after Stop")
	}
}

func TestRunner_StartTwiceReturnsFalse(t *testing.T) {
	runner := newTestRunner(t, time.Hour)

	if !runner.Start() {
		t.Fatal("Expected first Start to succeed")
	}
	defer runner.Stop()

	if runner.Start() {
		t.Error("Expected second Start to return false")
	}
}

func TestRunner_StopWithoutStartReturnsFalse(t *testing.T) {
	runner := newTestRunner(t, time.Hour)

	if runner.Stop() {
		t.Error("Expected Stop to return false when not running")
	}
}

func TestRunner_Restart(t *testing.T) {
	runner := newTestRunner(t, time.Hour)

	if !runner.Start() {
		t.Fatal("Expected Start to succeed")
	}
	if !runner.Stop() {
		t.Fatal("Expected Stop to succeed")
	}
	if !runner.Start() {
		t.Error("Expected Start after Stop to succeed")
	}
	runner.Stop()
}

func TestRunner_FirstTickDispatchesImmediately(t *testing.T) {
	store := newMemStore()
	store.put(pendingPost("sp-1"))
	pub := &fakePublisher{id: "ext-1"}
	runner, err := NewRunner(newTestDispatcher(store, pub), time.Hour)
	if err != nil {
		t.Fatalf("NewRunner returned error: %v", err)
	}

	runner.Start()
	defer runner.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		post, _ := store.Get(context.Background(), "sp-1")
		if post.Status == schedule.StatusPublished {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Expected first tick to publish the due post")
}
