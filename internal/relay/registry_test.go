package relay

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestClaimRegistry_SingleWinner(t *testing.T) {
	r := NewClaimRegistry()
	key := MessageKey{ChatID: 1, MessageID: 10}

	const racers = 100
	var wins int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if r.TryClaim(key) {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
}

func TestClaimRegistry_ReleaseReopens(t *testing.T) {
	r := NewClaimRegistry()
	key := MessageKey{ChatID: 1, MessageID: 10}

	if !r.TryClaim(key) {
		t.Fatal("first claim should succeed")
	}
	if r.TryClaim(key) {
		t.Fatal("second claim should fail")
	}
	r.Release(key)
	if !r.TryClaim(key) {
		t.Fatal("claim after release should succeed")
	}
}

func TestClaimRegistry_IndependentKeys(t *testing.T) {
	r := NewClaimRegistry()
	if !r.TryClaim(MessageKey{ChatID: 1, MessageID: 10}) {
		t.Fatal("claim on key 1 should succeed")
	}
	if !r.TryClaim(MessageKey{ChatID: 1, MessageID: 11}) {
		t.Fatal("claim on key 2 should succeed")
	}
	if !r.TryClaim(MessageKey{ChatID: 2, MessageID: 10}) {
		t.Fatal("claim on key 3 should succeed")
	}
}

func TestOwnershipRegistry(t *testing.T) {
	r := NewOwnershipRegistry()
	key := MessageKey{ChatID: 1, MessageID: 20}

	if r.Authorize(key, 42) {
		t.Fatal("authorize should fail with no entry")
	}
	r.Record(key, 42)
	if !r.Authorize(key, 42) {
		t.Fatal("owner should be authorized")
	}
	if r.Authorize(key, 43) {
		t.Fatal("non-owner should not be authorized")
	}
	r.Release(key)
	if r.Authorize(key, 42) {
		t.Fatal("authorize should fail after release")
	}
	r.Release(key) // idempotent
}

func TestOwnershipRegistry_RecordOverwrites(t *testing.T) {
	r := NewOwnershipRegistry()
	key := MessageKey{ChatID: 1, MessageID: 20}
	r.Record(key, 42)
	r.Record(key, 43)
	if r.Authorize(key, 42) {
		t.Fatal("old owner should no longer be authorized")
	}
	if !r.Authorize(key, 43) {
		t.Fatal("new owner should be authorized")
	}
}
