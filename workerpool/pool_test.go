package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsJob(t *testing.T) {
	p := New()
	defer p.Shutdown()

	var ran atomic.Bool
	done := make(chan struct{})
	p.Submit(func() {
		ran.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	if !ran.Load() {
		t.Fatal("job flag not set")
	}
}

func TestCapacitySpawnsBoundedWorkers(t *testing.T) {
	p := New(WithCapacity(2))
	defer p.Shutdown()

	var wg sync.WaitGroup
	release := make(chan struct{})
	for i := 0; i < 5; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			<-release
		})
	}
	time.Sleep(50 * time.Millisecond)
	if n := p.NumWorkers(); n != 2 {
		t.Fatalf("NumWorkers = %d, want 2", n)
	}
	close(release)
	wg.Wait()
}

func TestShutdownWaitsForInFlightJobs(t *testing.T) {
	p := New()
	var finished atomic.Bool
	started := make(chan struct{})
	p.Submit(func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})
	<-started
	p.Shutdown()
	if !finished.Load() {
		t.Fatal("Shutdown returned before in-flight job finished")
	}
}

func TestPanicInJobDoesNotKillPool(t *testing.T) {
	p := New()
	defer p.Shutdown()

	p.Submit(func() { panic("boom") })

	done := make(chan struct{})
	p.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not recover from panic")
	}
}
