package aero

import (
	"sync"
	"testing"
)

func TestBoundedListSaturates(t *testing.T) {
	l := NewBoundedList[int](100)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Append(w*1000 + i)
			}
		}(w)
	}
	wg.Wait()

	if l.Len() != 100 {
		t.Errorf("expected len 100, got %d", l.Len())
	}
	if l.Dropped() != 300 {
		t.Errorf("expected 300 dropped, got %d", l.Dropped())
	}

	seen := make(map[int]bool)
	for _, v := range l.Items() {
		if seen[v] {
			t.Fatalf("value %d stored twice", v)
		}
		seen[v] = true
	}
}

func TestBoundedListReset(t *testing.T) {
	l := NewBoundedList[float32](2)
	if i := l.Append(1); i != 0 {
		t.Errorf("expected index 0, got %d", i)
	}
	if i := l.Append(2); i != 1 {
		t.Errorf("expected index 1, got %d", i)
	}
	if i := l.Append(3); i != -1 {
		t.Errorf("expected -1 when full, got %d", i)
	}

	l.Reset()
	if l.Len() != 0 || l.Dropped() != 0 {
		t.Errorf("expected empty list after reset, got len=%d dropped=%d", l.Len(), l.Dropped())
	}
	if l.Cap() != 2 {
		t.Errorf("expected capacity kept, got %d", l.Cap())
	}
	l.Append(7)
	if *l.At(0) != 7 {
		t.Errorf("expected 7 at slot 0, got %v", *l.At(0))
	}
}

func TestBoundedListZeroCapacity(t *testing.T) {
	l := NewBoundedList[GeoPixel](0)
	if _, ok := l.Reserve(); ok {
		t.Error("expected reserve to fail on zero capacity")
	}
	if l.Len() != 0 || l.Dropped() != 1 {
		t.Errorf("expected len 0 dropped 1, got len=%d dropped=%d", l.Len(), l.Dropped())
	}
}
