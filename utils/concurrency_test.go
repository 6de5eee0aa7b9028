package utils

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetAdd(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://www.amazon.in/dp/B01") {
		t.Error("first Add should report a new URL")
	}
	if s.Add("https://www.amazon.in/dp/B01") {
		t.Error("second Add of the same URL should report a duplicate")
	}
	if !s.Contains("https://www.amazon.in/dp/B01") {
		t.Error("Contains should see the added URL")
	}
	if s.Contains("https://www.amazon.in/dp/B02") {
		t.Error("Contains should not see a URL that was never added")
	}
	if s.Size() != 1 {
		t.Errorf("Size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrentAdds(t *testing.T) {
	s := NewURLSet()

	var wg sync.WaitGroup
	var added int64
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if s.Add(fmt.Sprintf("https://www.amazon.in/dp/B%03d", i)) {
					atomic.AddInt64(&added, 1)
				}
			}
		}()
	}
	wg.Wait()

	if s.Size() != 100 {
		t.Errorf("Size: got %d, want 100", s.Size())
	}
	if added != 100 {
		t.Errorf("exactly one goroutine should win each URL; got %d wins", added)
	}
}

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(3, 0)

	var done int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Wait()

	if done != 20 {
		t.Errorf("completed jobs: got %d, want 20", done)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const maxWorkers = 2
	pool := NewWorkerPool(maxWorkers, 0)

	var active, peak int64
	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&active, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&active, -1)
		})
	}
	pool.Wait()

	if peak > maxWorkers {
		t.Errorf("peak concurrency %d exceeded the limit of %d", peak, maxWorkers)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	const gapMs = 30
	pool := NewWorkerPool(4, gapMs)

	var mu sync.Mutex
	var starts []time.Time
	for i := 0; i < 4; i++ {
		pool.Submit(func() {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	elapsed := starts[len(starts)-1].Sub(starts[0])
	want := time.Duration(gapMs*(len(starts)-1)) * time.Millisecond
	if elapsed < want-5*time.Millisecond {
		t.Errorf("job starts spaced %v apart; rate limit requires at least %v", elapsed, want)
	}
}
