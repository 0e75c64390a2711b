package worker

import (
	"sync"
	"testing"
	"time"
)

func TestKeyed_PreservesOrderPerKey(t *testing.T) {
	k := NewKeyed()
	var mu sync.Mutex
	var got []int

	for i := 0; i < 100; i++ {
		i := i
		k.Submit("customer", func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	k.Wait()

	if len(got) != 100 {
		t.Fatalf("expected 100 jobs, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("job %d ran at position %d", v, i)
		}
	}
}

func TestKeyed_NeverOverlapsSameKey(t *testing.T) {
	k := NewKeyed()
	var mu sync.Mutex
	active := 0
	overlap := false

	for i := 0; i < 20; i++ {
		k.Submit("same", func() {
			mu.Lock()
			active++
			if active > 1 {
				overlap = true
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	k.Wait()
	if overlap {
		t.Fatal("jobs for the same key ran concurrently")
	}
}

func TestKeyed_DistinctKeysRunInParallel(t *testing.T) {
	k := NewKeyed()
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	k.Submit("a", func() {
		started <- struct{}{}
		<-release
	})
	k.Submit("b", func() {
		started <- struct{}{}
		<-release
	})

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("second key was blocked by the first")
		}
	}
	close(release)
	k.Wait()
}
