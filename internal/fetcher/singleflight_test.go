package fetcher

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_CollapsesConcurrentFetches(t *testing.T) {
	var g Group
	var calls int32

	fn := func() (*Metadata, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(100 * time.Millisecond)
		return &Metadata{SourceID: "alpha"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			md, err, _ := g.Do("alpha", fn)
			if err != nil {
				t.Errorf("Do error: %v", err)
			}
			if md == nil || md.SourceID != "alpha" {
				t.Errorf("got %+v, want source alpha", md)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
}

func TestGroup_ForgetsAfterReturn(t *testing.T) {
	var g Group
	var calls int32
	fn := func() (*Metadata, error) {
		atomic.AddInt32(&calls, 1)
		return &Metadata{SourceID: "beta"}, nil
	}

	for i := 0; i < 3; i++ {
		if _, err, _ := g.Do("beta", fn); err != nil {
			t.Fatalf("Do error: %v", err)
		}
	}
	if calls != 3 {
		t.Errorf("got %d calls, want 3 (no caching between builds)", calls)
	}
}
