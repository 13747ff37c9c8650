package util

import (
	"context"
	"testing"
	"time"
)

func TestSortedStringKeys(t *testing.T) {
	m := map[string]int{"b": 1, "a": 2, "c": 3}
	keys := SortedStringKeys(m)
	if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
		t.Errorf("unexpected order: %v", keys)
	}
}

func TestUniqueStrings(t *testing.T) {
	out := UniqueStrings([]string{"a", "", "b", "a", "b"})
	if len(out) != 2 || out[0] != "a" || out[1] != "b" {
		t.Errorf("unexpected result: %v", out)
	}
}

func TestLimiter_NilNeverBlocks(t *testing.T) {
	var l *Limiter
	if err := l.Wait(context.Background(), 1); err != nil {
		t.Errorf("nil limiter wait: %v", err)
	}
}

func TestLimiter_Burst(t *testing.T) {
	l := NewLimiter(1, 2)
	if err := l.Wait(context.Background(), 2); err != nil {
		t.Errorf("burst of 2 should be immediate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, 2); err == nil {
		t.Error("expected wait to time out on drained bucket")
	}
}
